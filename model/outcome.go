package model

// Outcome is the terminal state of a single relay request.
type Outcome string

const (
	OutcomeResolutionFailed Outcome = "RESOLUTION_FAILED"
	OutcomeDelivered        Outcome = "DELIVERED"
	// The media was over the size limit and only the link was sent.
	OutcomeOversized Outcome = "OVERSIZED"
	// The media send failed and the link was sent instead.
	OutcomeFallbackSent Outcome = "FALLBACK_SENT"
	// Not even the fallback text could be sent.
	OutcomeFailed Outcome = "FAILED"
)

// UserNotified reports whether the outcome left the user with a visible reply.
func (o Outcome) UserNotified() bool {
	return o != OutcomeFailed
}
