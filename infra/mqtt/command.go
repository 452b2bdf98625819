package mqtt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kilianp07/bms12v/core/model"
	"github.com/kilianp07/bms12v/core/session"
)

// ErrUnknownCommand is returned for a set topic the bridge does not handle.
var ErrUnknownCommand = errors.New("unknown command topic")

// ParseCommand turns a message on <prefix>/set/... into a session update.
func ParseCommand(prefix, topic string, payload []byte) (session.Update, error) {
	base := prefix + "/" + TopicSetPrefix
	if !strings.HasPrefix(topic, base) {
		return session.Update{}, fmt.Errorf("%w: %s", ErrUnknownCommand, topic)
	}
	field := strings.TrimPrefix(topic, base)
	value := strings.TrimSpace(string(payload))

	var u session.Update
	switch field {
	case "soc", "soh", "temperature", "accessory_load":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return u, fmt.Errorf("%s: %w", field, err)
		}
		switch field {
		case "soc":
			u.SOC = &v
		case "soh":
			u.SOH = &v
		case "temperature":
			u.Temperature = &v
		default:
			u.AccessoryLoad = &v
		}
	case "vehicle_mode":
		m, err := model.ParseVehicleMode(value)
		if err != nil {
			return u, err
		}
		u.VehicleMode = &m
	default:
		name, ok := strings.CutPrefix(field, "fault/")
		if !ok {
			return u, fmt.Errorf("%w: %s", ErrUnknownCommand, topic)
		}
		f, err := model.ParseFault(name)
		if err != nil {
			return u, err
		}
		active, err := parseSwitch(value)
		if err != nil {
			return u, fmt.Errorf("fault %s: %w", f.Name(), err)
		}
		u.Faults = map[model.Fault]bool{f: active}
	}
	return u, nil
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "on":
		return true, nil
	case "0", "false", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid switch value %q", s)
	}
}
