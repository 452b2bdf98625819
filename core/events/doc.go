// Package events defines the events a running session publishes on its bus.
//
//   - TickEvent: result of one control cycle
//   - InputEvent: an operator input accepted by the session
//   - AdvisoryEvent: outcome of an advisory request
package events
