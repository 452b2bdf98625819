package scenarios

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kilianp07/bms12v/core/bms"
	"github.com/kilianp07/bms12v/core/model"
	"github.com/kilianp07/bms12v/core/session"
)

// Result is the outcome of one scenario run.
type Result struct {
	Name       string        `json:"name"`
	Ticks      uint64        `json:"ticks"`
	State      session.State `json:"state"`
	Mismatches []string      `json:"mismatches"`
}

// Check returns an error listing every mismatch, or nil.
func (r Result) Check() error {
	if len(r.Mismatches) == 0 {
		return nil
	}
	return fmt.Errorf("scenario %s: %s", r.Name, strings.Join(r.Mismatches, "; "))
}

// epoch is the start of the deterministic scenario clock.
var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Run plays sc on a fresh session with a one-second-per-tick clock. Errors
// are returned for scenarios that cannot be played; output mismatches are
// collected in the result.
func Run(sc *Scenario) (Result, error) {
	if sc == nil {
		return Result{}, errors.New("nil scenario")
	}
	opts, err := options(sc.Initial)
	if err != nil {
		return Result{}, fmt.Errorf("scenario %s: initial: %w", sc.Name, err)
	}
	tick := 0
	opts.ID = sc.Name
	opts.Clock = func() time.Time { return epoch.Add(time.Duration(tick) * time.Second) }
	sess, err := session.New(opts)
	if err != nil {
		return Result{}, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	res := Result{Name: sc.Name, Mismatches: []string{}}
	for i, st := range sc.Steps {
		if st.Set != nil {
			u, err := st.Set.Update()
			if err != nil {
				return res, fmt.Errorf("scenario %s: step %d: %w", sc.Name, i, err)
			}
			if _, err := sess.Apply(u); err != nil {
				return res, fmt.Errorf("scenario %s: step %d: %w", sc.Name, i, err)
			}
		}
		for n := 0; n < st.Ticks; n++ {
			sess.Tick()
			tick++
		}
		if st.Expect != nil {
			res.Mismatches = append(res.Mismatches, compare(fmt.Sprintf("step %d", i), *st.Expect, sess.State())...)
		}
	}
	res.State = sess.State()
	res.Ticks = res.State.Ticks
	res.Mismatches = append(res.Mismatches, compare("final", sc.Expected, res.State)...)
	return res, nil
}

func options(in Initial) (session.Options, error) {
	opts := session.Options{
		Initial: model.Telemetry{
			SOC:           in.SOC,
			Temperature:   in.Temperature,
			AccessoryLoad: in.AccessoryLoad,
			SOH:           in.SOH,
		},
	}
	if in.VehicleMode != "" {
		m, err := model.ParseVehicleMode(in.VehicleMode)
		if err != nil {
			return opts, err
		}
		opts.VehicleMode = m
	}
	for _, name := range in.Faults {
		f, err := model.ParseFault(name)
		if err != nil {
			return opts, err
		}
		opts.Faults.Set(f, true)
	}
	return opts, nil
}

func compare(at string, want Expected, st session.State) []string {
	var out []string
	if want.BMSMode != "" && !strings.EqualFold(want.BMSMode, st.Decision.Mode.String()) {
		out = append(out, fmt.Sprintf("%s: bms_mode %s, want %s", at, st.Decision.Mode, want.BMSMode))
	}
	if want.Contactor != "" && !strings.EqualFold(want.Contactor, st.Decision.Contactor.String()) {
		out = append(out, fmt.Sprintf("%s: contactor %s, want %s", at, st.Decision.Contactor, want.Contactor))
	}
	if want.Warnings != nil && !slices.Equal(want.Warnings, st.Decision.Warnings) {
		out = append(out, fmt.Sprintf("%s: warnings %v, want %v", at, st.Decision.Warnings, want.Warnings))
	}
	if want.Latched != nil {
		latched := st.Latch == bms.Latched
		if latched != *want.Latched {
			out = append(out, fmt.Sprintf("%s: latched %t, want %t", at, latched, *want.Latched))
		}
	}
	if want.LogHeadContains != "" {
		head := ""
		if len(st.Log) > 0 {
			head = st.Log[0].Text
		}
		if !strings.Contains(head, want.LogHeadContains) {
			out = append(out, fmt.Sprintf("%s: log head %q does not contain %q", at, head, want.LogHeadContains))
		}
	}
	return out
}
