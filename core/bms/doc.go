// Package bms implements the 12V battery management arbitration.
//
// Decide is a pure priority-ordered function from telemetry, vehicle mode,
// faults and the mandatory charge latch to a Decision. Latch provides the
// hysteresis controller that owns the latch, and PhysicsConfig advances
// telemetry by one tick for a decided mode.
package bms
