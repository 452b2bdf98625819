package advisory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kilianp07/bms12v/core/model"
)

var (
	// ErrUnavailable wraps every transport, authentication or status failure.
	ErrUnavailable = errors.New("advisory service unavailable")
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("advisory service not configured")
	// ErrRateLimited is returned when the local request budget is exhausted.
	ErrRateLimited = errors.New("advisory rate limit exceeded")
)

// Outcome labels used for metrics and events.
const (
	OutcomeOK            = "ok"
	OutcomeError         = "error"
	OutcomeRateLimited   = "rate_limited"
	OutcomeNotConfigured = "not_configured"
)

// Outcome classifies the result of an advisory request.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrRateLimited):
		return OutcomeRateLimited
	case errors.Is(err, ErrNotConfigured):
		return OutcomeNotConfigured
	default:
		return OutcomeError
	}
}

// Advisor produces a diagnostic for a snapshot.
type Advisor interface {
	Analyze(ctx context.Context, snap model.Snapshot) (Analysis, error)
}

// Disabled is the Advisor used when the service is switched off.
type Disabled struct{}

func (Disabled) Analyze(context.Context, model.Snapshot) (Analysis, error) {
	return Analysis{}, ErrNotConfigured
}

const promptHeader = `You are a concise, technical BMS expert AI. Analyze the following 12V battery system parameters.
Respond only in the following format, be direct, no conversation:
Status: [One-line summary of the battery's current state]
Reason: [Brief explanation for the current status]
Action: [Recommended action for the vehicle owner in simple, non-technical language. For example: "Consider driving the vehicle to charge the battery." or "No action needed at this time."]
`

// BuildPrompt renders the request text for snap.
func BuildPrompt(snap model.Snapshot) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n")
	fmt.Fprintf(&b, "- State of Charge (SOC): %d%%\n", snap.SOC)
	fmt.Fprintf(&b, "- State of Health (SOH): %d%%\n", snap.SOH)
	fmt.Fprintf(&b, "- Temperature: %d°C\n", snap.Temperature)
	fmt.Fprintf(&b, "- Accessory Load: %dA\n", snap.AccessoryLoad)
	fmt.Fprintf(&b, "- Vehicle Mode: %s\n", snap.VehicleMode)
	fmt.Fprintf(&b, "- BMS Mode: %s\n", snap.BMSMode)
	fmt.Fprintf(&b, "- Contactor State: %s\n", snap.ContactorState)
	fmt.Fprintf(&b, "- Active Faults: %s", snap.FaultsText())
	return b.String()
}
