package telegram

import "context"

type Kind int

const (
	KindOther Kind = iota
	KindText
	KindPhoto
)

// Message is one channel history entry reduced to what a Post needs.
type Message struct {
	ID       int
	Kind     Kind
	Text     string // message text, or the caption of a photo
	Views    int
	Forwards int
	// Reactions holds one emoji per reaction kind shown under the message.
	Reactions []string
}

// History pages backward through a channel. fromID 0 starts at the newest
// message; otherwise only messages older than fromID are returned.
type History interface {
	History(ctx context.Context, fromID, limit int) ([]Message, error)
}

// Sessions opens an authorized session bound to the configured channel and
// keeps it alive for the duration of fn.
type Sessions interface {
	Session(ctx context.Context, fn func(ctx context.Context, h History) error) error
}
