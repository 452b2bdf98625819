package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFault is returned when a fault name cannot be parsed.
var ErrUnknownFault = errors.New("unknown fault")

// Fault identifies one externally reported battery fault. The declaration
// order is the priority order used to pick the fault named in the rationale.
type Fault int

const (
	FaultOvertemperature Fault = iota
	FaultOvervoltage
	FaultUndervoltage
)

// AllFaults lists the faults in priority order.
var AllFaults = []Fault{FaultOvertemperature, FaultOvervoltage, FaultUndervoltage}

// Name returns the key used in snapshots, topics and URLs.
func (f Fault) Name() string {
	switch f {
	case FaultOvertemperature:
		return "overtemperature"
	case FaultOvervoltage:
		return "overvoltage"
	case FaultUndervoltage:
		return "undervoltage"
	default:
		return "unknown"
	}
}

// Label returns the display name used in warnings and rationale text.
func (f Fault) Label() string {
	switch f {
	case FaultOvertemperature:
		return "Overtemperature"
	case FaultOvervoltage:
		return "Overvoltage"
	case FaultUndervoltage:
		return "Undervoltage"
	default:
		return "Unknown"
	}
}

func (f Fault) String() string { return f.Name() }

// ParseFault accepts either the key or the label of a fault.
func ParseFault(s string) (Fault, error) {
	k := strings.ToLower(strings.TrimSpace(s))
	for _, f := range AllFaults {
		if f.Name() == k {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFault, s)
}

// Faults holds the three independent fault flags.
type Faults struct {
	Overtemperature bool `json:"overtemperature" yaml:"overtemperature"`
	Overvoltage     bool `json:"overvoltage" yaml:"overvoltage"`
	Undervoltage    bool `json:"undervoltage" yaml:"undervoltage"`
}

// Get returns the flag for f.
func (fs Faults) Get(f Fault) bool {
	switch f {
	case FaultOvertemperature:
		return fs.Overtemperature
	case FaultOvervoltage:
		return fs.Overvoltage
	case FaultUndervoltage:
		return fs.Undervoltage
	default:
		return false
	}
}

// Set replaces the flag for f. Unknown faults are ignored.
func (fs *Faults) Set(f Fault, active bool) {
	switch f {
	case FaultOvertemperature:
		fs.Overtemperature = active
	case FaultOvervoltage:
		fs.Overvoltage = active
	case FaultUndervoltage:
		fs.Undervoltage = active
	}
}

// Active returns the active faults in priority order. The rationale and the
// warning list are both derived from this one slice.
func (fs Faults) Active() []Fault {
	var out []Fault
	for _, f := range AllFaults {
		if fs.Get(f) {
			out = append(out, f)
		}
	}
	return out
}

// Any reports whether at least one fault is active.
func (fs Faults) Any() bool {
	return fs.Overtemperature || fs.Overvoltage || fs.Undervoltage
}
