package canopy

import "time"

// StatusLevel is the severity of a status line.
type StatusLevel uint8

const (
	StatusInfo StatusLevel = iota
	StatusWarn
	StatusError
)

// Status is a short user-facing message. Transient messages expire; sticky
// ones stay until replaced or cleared.
type Status struct {
	Text  string
	Level StatusLevel
	until time.Time
	// sticky messages have no expiry.
	sticky bool
}

// active reports whether s should still be shown at now.
func (s Status) active(now time.Time) bool {
	if s.Text == "" {
		return false
	}
	return s.sticky || now.Before(s.until)
}

// Durations for transient messages.
const (
	statusNoMatch = 900 * time.Millisecond
	statusShort   = 1200 * time.Millisecond
	statusLong    = 4 * time.Second
)

// flash shows a transient message.
func (e *Explorer) flash(text string, level StatusLevel, d time.Duration) {
	e.status = Status{Text: text, Level: level, until: e.now().Add(d)}
	e.RequestRender()
}

// setSticky shows a message until cleared or replaced.
func (e *Explorer) setSticky(text string) {
	e.status = Status{Text: text, Level: StatusInfo, sticky: true}
	e.RequestRender()
}

// clearSticky removes a sticky message, leaving transient ones alone.
func (e *Explorer) clearSticky() {
	if e.status.sticky {
		e.status = Status{}
		e.RequestRender()
	}
}

// Status returns the current status line, if any.
func (e *Explorer) Status() (Status, bool) {
	if !e.status.active(e.now()) {
		return Status{}, false
	}
	return e.status, true
}

// expireStatus drops an expired message and reports whether one was dropped.
func (e *Explorer) expireStatus() bool {
	if e.status.Text != "" && !e.status.active(e.now()) {
		e.status = Status{}
		return true
	}
	return false
}
