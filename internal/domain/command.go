package domain

import "time"

// A single natural-language planning request as received from the caller.
// Commands are immutable once constructed; every downstream artifact is
// keyed back to the CommandID.
type Command struct {
	CommandID  string
	Text       string
	UserID     string
	Locale     string
	ReceivedAt time.Time
}
