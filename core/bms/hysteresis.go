package bms

// LatchState names the two states of the mandatory charge latch.
type LatchState string

const (
	Latched   LatchState = "LATCHED"
	Unlatched LatchState = "UNLATCHED"
)

// Latch tracks mandatory charging with a hysteresis band: it latches when
// SOC falls below the start threshold and releases only once SOC reaches the
// stop threshold. Between the two the previous state is kept.
type Latch struct {
	start   float64
	stop    float64
	latched bool
}

// NewLatch creates a latch whose initial state follows initialSOC.
func NewLatch(initialSOC float64, th Thresholds) *Latch {
	return &Latch{
		start:   th.SOCMandatoryStart,
		stop:    th.SOCMandatoryStop,
		latched: initialSOC < th.SOCMandatoryStart,
	}
}

// Update evaluates the transitions for soc and returns the resulting state.
func (l *Latch) Update(soc float64) bool {
	switch {
	case !l.latched && soc < l.start:
		l.latched = true
	case l.latched && soc >= l.stop:
		l.latched = false
	}
	return l.latched
}

// Latched reports whether mandatory charging is active.
func (l *Latch) Latched() bool { return l.latched }

// State returns the named state.
func (l *Latch) State() LatchState {
	if l.latched {
		return Latched
	}
	return Unlatched
}
