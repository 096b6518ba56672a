package withdrawal

import "time"

// Severity levels for transient user feedback
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Display windows for transient feedback. Warnings clear faster than the
// post-submit result message.
const (
	FeedbackShortTTL = 3 * time.Second
	FeedbackLongTTL  = 5 * time.Second
)

// Feedback is a transient message driving a UI toast. It is never persisted
// and expires on its own; readers get nil once ExpiresAt has passed.
type Feedback struct {
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newFeedback(message string, severity Severity, ttl time.Duration) *Feedback {
	return &Feedback{
		Message:   message,
		Severity:  severity,
		ExpiresAt: time.Now().Add(ttl),
	}
}

// Expired reports whether the feedback's display window has passed
func (f *Feedback) Expired() bool {
	return time.Now().After(f.ExpiresAt)
}
