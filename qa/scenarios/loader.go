package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/bms12v/core/model"
	"github.com/kilianp07/bms12v/core/session"
)

// Initial is the state a scenario session starts from.
type Initial struct {
	SOC           float64  `yaml:"soc"`
	Temperature   float64  `yaml:"temperature"`
	AccessoryLoad float64  `yaml:"accessory_load"`
	SOH           float64  `yaml:"soh"`
	VehicleMode   string   `yaml:"vehicle_mode"`
	Faults        []string `yaml:"faults,omitempty"`
}

// Set is a partial operator update applied before a step's ticks.
type Set struct {
	SOC           *float64        `yaml:"soc,omitempty"`
	Temperature   *float64        `yaml:"temperature,omitempty"`
	AccessoryLoad *float64        `yaml:"accessory_load,omitempty"`
	SOH           *float64        `yaml:"soh,omitempty"`
	VehicleMode   string          `yaml:"vehicle_mode,omitempty"`
	Faults        map[string]bool `yaml:"faults,omitempty"`
}

// Update converts s into a session update.
func (s Set) Update() (session.Update, error) {
	u := session.Update{
		SOC:           s.SOC,
		Temperature:   s.Temperature,
		AccessoryLoad: s.AccessoryLoad,
		SOH:           s.SOH,
	}
	if s.VehicleMode != "" {
		m, err := model.ParseVehicleMode(s.VehicleMode)
		if err != nil {
			return u, err
		}
		u.VehicleMode = &m
	}
	if len(s.Faults) > 0 {
		u.Faults = make(map[model.Fault]bool, len(s.Faults))
		for name, active := range s.Faults {
			f, err := model.ParseFault(name)
			if err != nil {
				return u, err
			}
			u.Faults[f] = active
		}
	}
	return u, nil
}

// Expected lists the outputs checked after a step or at the end. Empty
// fields are not checked; `warnings: []` expects no warnings.
type Expected struct {
	BMSMode         string   `yaml:"bms_mode,omitempty"`
	Contactor       string   `yaml:"contactor,omitempty"`
	Warnings        []string `yaml:"warnings,omitempty"`
	Latched         *bool    `yaml:"latched,omitempty"`
	LogHeadContains string   `yaml:"log_head_contains,omitempty"`
}

type Step struct {
	Set    *Set      `yaml:"set,omitempty"`
	Ticks  int       `yaml:"ticks"`
	Expect *Expected `yaml:"expect,omitempty"`
}

type Scenario struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Initial     Initial  `yaml:"initial"`
	Steps       []Step   `yaml:"steps"`
	Expected    Expected `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("%s: scenario name is required", path)
	}
	return &sc, nil
}
