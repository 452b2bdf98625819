package events

import (
	"time"

	"github.com/kilianp07/bms12v/core/session"
)

// Event is implemented by everything published on the session bus.
type Event interface {
	Session() string
}

// TickEvent is published after every tick.
type TickEvent struct {
	SessionID string
	Result    session.TickResult
}

func (e TickEvent) Session() string { return e.SessionID }

// InputEvent is published for each applied operator change. Source names the
// surface it came from, e.g. "api" or "mqtt".
type InputEvent struct {
	SessionID string
	Source    string
	Change    session.Change
	Time      time.Time
}

func (e InputEvent) Session() string { return e.SessionID }

// AdvisoryEvent reports one advisory request. Outcome is "ok", "error",
// "rate_limited" or "not_configured".
type AdvisoryEvent struct {
	SessionID string
	Outcome   string
	Latency   time.Duration
	Err       error
}

func (e AdvisoryEvent) Session() string { return e.SessionID }

// InputEvents converts applied changes into events.
func InputEvents(sessionID, source string, changes []session.Change, at time.Time) []InputEvent {
	out := make([]InputEvent, 0, len(changes))
	for _, c := range changes {
		out = append(out, InputEvent{SessionID: sessionID, Source: source, Change: c, Time: at})
	}
	return out
}
