package session

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/kilianp07/bms12v/core/bms"
	"github.com/kilianp07/bms12v/core/model"
)

// ErrInvalidValue is returned when a setter receives NaN or an infinity.
var ErrInvalidValue = errors.New("invalid value")

// Default capacities of the bounded buffers.
const (
	DefaultLogCapacity     = 5
	DefaultHistoryCapacity = 60
)

// Options configures a Session.
type Options struct {
	ID              string
	Thresholds      bms.Thresholds
	Physics         bms.PhysicsConfig
	Initial         model.Telemetry
	VehicleMode     model.VehicleMode
	Faults          model.Faults
	LogCapacity     int
	HistoryCapacity int
	// Clock stamps samples; time.Now when nil.
	Clock func() time.Time
}

// Update is a partial change of the operator inputs. Nil fields are left
// untouched.
type Update struct {
	SOC           *float64             `json:"soc,omitempty" yaml:"soc,omitempty"`
	Temperature   *float64             `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	AccessoryLoad *float64             `json:"accessory_load,omitempty" yaml:"accessory_load,omitempty"`
	SOH           *float64             `json:"soh,omitempty" yaml:"soh,omitempty"`
	VehicleMode   *model.VehicleMode   `json:"vehicle_mode,omitempty" yaml:"vehicle_mode,omitempty"`
	Faults        map[model.Fault]bool `json:"-" yaml:"-"`
}

// Empty reports whether u changes nothing.
func (u Update) Empty() bool {
	return u.SOC == nil && u.Temperature == nil && u.AccessoryLoad == nil &&
		u.SOH == nil && u.VehicleMode == nil && len(u.Faults) == 0
}

// Change describes one applied input.
type Change struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// TickResult is the outcome of one control cycle.
type TickResult struct {
	Seq         uint64               `json:"seq"`
	Time        time.Time            `json:"time"`
	Decision    bms.Decision         `json:"decision"`
	Latched     bool                 `json:"latched"`
	Appended    bool                 `json:"appended"`
	LogHead     model.RationaleEntry `json:"log_head"`
	Sample      model.Sample         `json:"sample"`
	Telemetry   model.Telemetry      `json:"telemetry"`
	VehicleMode model.VehicleMode    `json:"vehicle_mode"`
	Faults      model.Faults         `json:"faults"`
}

// State is a consistent view of the whole session taken between ticks.
type State struct {
	ID          string                 `json:"id"`
	Ticks       uint64                 `json:"ticks"`
	Telemetry   model.Telemetry        `json:"telemetry"`
	Voltage     float64                `json:"voltage"`
	VehicleMode model.VehicleMode      `json:"vehicle_mode"`
	Faults      model.Faults           `json:"faults"`
	Latch       bms.LatchState         `json:"latch"`
	Decision    bms.Decision           `json:"decision"`
	Log         []model.RationaleEntry `json:"log"`
	Samples     []model.Sample         `json:"samples"`
}

// Session holds the state of one simulated battery. Tick is the only writer
// of derived state; setters may be called concurrently between ticks.
type Session struct {
	mu sync.RWMutex

	id      string
	th      bms.Thresholds
	physics bms.PhysicsConfig
	clock   func() time.Time

	tel     model.Telemetry
	vehicle model.VehicleMode
	faults  model.Faults
	latch   *bms.Latch
	last    bms.Decision
	ticks   uint64

	log     *RationaleLog
	history *SampleHistory
}

// New creates a session from opts. Zero thresholds and physics fields take
// their defaults.
func New(opts Options) (*Session, error) {
	opts.Thresholds.SetDefaults()
	if err := opts.Thresholds.Validate(); err != nil {
		return nil, err
	}
	opts.Physics.SetDefaults()
	if opts.VehicleMode == "" {
		opts.VehicleMode = model.VehicleOff
	}
	if !opts.VehicleMode.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownVehicleMode, opts.VehicleMode)
	}
	for _, v := range []float64{opts.Initial.SOC, opts.Initial.Temperature, opts.Initial.AccessoryLoad, opts.Initial.SOH} {
		if !finite(v) {
			return nil, fmt.Errorf("initial telemetry: %w", ErrInvalidValue)
		}
	}
	if opts.LogCapacity <= 0 {
		opts.LogCapacity = DefaultLogCapacity
	}
	if opts.HistoryCapacity <= 0 {
		opts.HistoryCapacity = DefaultHistoryCapacity
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	tel := opts.Initial
	tel.AccessoryLoad = math.Max(0, tel.AccessoryLoad)
	tel.SOH = clamp(tel.SOH, 0, 100)
	return &Session{
		id:      opts.ID,
		th:      opts.Thresholds,
		physics: opts.Physics,
		clock:   opts.Clock,
		tel:     tel,
		vehicle: opts.VehicleMode,
		faults:  opts.Faults,
		latch:   bms.NewLatch(tel.SOC, opts.Thresholds),
		last: bms.Decision{
			Mode:      model.BMSNeutral,
			Contactor: model.ContactorClosed,
			Warnings:  []string{},
		},
		log:     NewRationaleLog(opts.LogCapacity),
		history: NewSampleHistory(opts.HistoryCapacity),
	}, nil
}

func (s *Session) ID() string { return s.id }

// Thresholds returns the limits the session arbitrates with.
func (s *Session) Thresholds() bms.Thresholds { return s.th }

// Tick runs one control cycle: latch update, decision, physical advance,
// sample push and log append. It never blocks on anything but the session
// lock.
func (s *Session) Tick() TickResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	latched := s.latch.Update(s.tel.SOC)
	d := bms.Decide(bms.Input{
		Telemetry:       s.tel,
		VehicleMode:     s.vehicle,
		Faults:          s.faults,
		MandatoryCharge: latched,
	}, s.th)

	prevTemp := s.tel.Temperature
	s.tel = s.physics.Advance(s.tel, d.Mode)
	sample := model.Sample{
		Time:        now,
		SOC:         s.tel.SOC,
		Voltage:     s.physics.Voltage(d.Mode),
		Temperature: prevTemp,
	}
	s.history.Push(sample)

	head, appended := s.log.Append(d.Rationale.Severity, d.Rationale.Text)
	s.last = d
	s.ticks++

	return TickResult{
		Seq:         s.ticks,
		Time:        now,
		Decision:    copyDecision(d),
		Latched:     latched,
		Appended:    appended,
		LogHead:     head,
		Sample:      sample,
		Telemetry:   s.tel,
		VehicleMode: s.vehicle,
		Faults:      s.faults,
	}
}

// Apply validates every field of u and then applies them together. Nothing
// is changed when any field is invalid.
func (s *Session) Apply(u Update) ([]Change, error) {
	for name, v := range map[string]*float64{
		"soc":            u.SOC,
		"temperature":    u.Temperature,
		"accessory_load": u.AccessoryLoad,
		"soh":            u.SOH,
	} {
		if v != nil && !finite(*v) {
			return nil, fmt.Errorf("%s: %w", name, ErrInvalidValue)
		}
	}
	if u.VehicleMode != nil && !u.VehicleMode.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownVehicleMode, *u.VehicleMode)
	}
	for f := range u.Faults {
		if f.Name() == "unknown" {
			return nil, fmt.Errorf("%w: %d", model.ErrUnknownFault, int(f))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var changes []Change
	if u.SOC != nil {
		s.tel.SOC = *u.SOC
		changes = append(changes, Change{Field: "soc", Value: fnum(s.tel.SOC)})
	}
	if u.Temperature != nil {
		s.tel.Temperature = *u.Temperature
		changes = append(changes, Change{Field: "temperature", Value: fnum(s.tel.Temperature)})
	}
	if u.AccessoryLoad != nil {
		s.tel.AccessoryLoad = math.Max(0, *u.AccessoryLoad)
		changes = append(changes, Change{Field: "accessory_load", Value: fnum(s.tel.AccessoryLoad)})
	}
	if u.SOH != nil {
		s.tel.SOH = clamp(*u.SOH, 0, 100)
		changes = append(changes, Change{Field: "soh", Value: fnum(s.tel.SOH)})
	}
	if u.VehicleMode != nil {
		s.vehicle = *u.VehicleMode
		changes = append(changes, Change{Field: "vehicle_mode", Value: s.vehicle.String()})
	}
	for _, f := range model.AllFaults {
		active, ok := u.Faults[f]
		if !ok {
			continue
		}
		s.faults.Set(f, active)
		changes = append(changes, Change{Field: "fault/" + f.Name(), Value: strconv.FormatBool(active)})
	}
	return changes, nil
}

func (s *Session) SetSOC(v float64) error {
	_, err := s.Apply(Update{SOC: &v})
	return err
}

func (s *Session) SetTemperature(v float64) error {
	_, err := s.Apply(Update{Temperature: &v})
	return err
}

// SetAccessoryLoad sets the load; negative values are stored as 0.
func (s *Session) SetAccessoryLoad(v float64) error {
	_, err := s.Apply(Update{AccessoryLoad: &v})
	return err
}

// SetSOH sets the state of health, clamped to [0,100].
func (s *Session) SetSOH(v float64) error {
	_, err := s.Apply(Update{SOH: &v})
	return err
}

func (s *Session) SetVehicleMode(m model.VehicleMode) error {
	_, err := s.Apply(Update{VehicleMode: &m})
	return err
}

func (s *Session) SetFault(f model.Fault, active bool) error {
	_, err := s.Apply(Update{Faults: map[model.Fault]bool{f: active}})
	return err
}

// SetFaults replaces all three fault flags.
func (s *Session) SetFaults(fs model.Faults) error {
	m := make(map[model.Fault]bool, len(model.AllFaults))
	for _, f := range model.AllFaults {
		m[f] = fs.Get(f)
	}
	_, err := s.Apply(Update{Faults: m})
	return err
}

// Snapshot returns the advisory payload for the current state.
func (s *Session) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.NewSnapshot(s.tel, s.vehicle, s.last.Mode, s.last.Contactor, s.faults)
}

// State returns a consistent copy of everything the session holds.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		ID:          s.id,
		Ticks:       s.ticks,
		Telemetry:   s.tel,
		Voltage:     s.physics.Voltage(s.last.Mode),
		VehicleMode: s.vehicle,
		Faults:      s.faults,
		Latch:       s.latch.State(),
		Decision:    copyDecision(s.last),
		Log:         s.log.Entries(),
		Samples:     s.history.Samples(),
	}
}

// Log returns the rationale log, newest first.
func (s *Session) Log() []model.RationaleEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.log.Entries()
}

// Samples returns the history window, oldest first.
func (s *Session) Samples() []model.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.Samples()
}

func copyDecision(d bms.Decision) bms.Decision {
	w := make([]string, len(d.Warnings))
	copy(w, d.Warnings)
	d.Warnings = w
	return d
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func clamp(v, lo, hi float64) float64 { return math.Min(hi, math.Max(lo, v)) }

func fnum(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
