package domain

import "context"

// Gateway persists user profiles and the append-only nap log, both scoped
// to an opaque identity. Implementations can be in-memory, a local JSON
// file, SQLite, Postgres, or any other backend.
type Gateway interface {
	GetProfile(ctx context.Context, identity string) (*Profile, error)
	SetProfile(ctx context.Context, identity string, profile Profile) error
	Clear(ctx context.Context, identity string) error
	AppendSession(ctx context.Context, identity string, record SessionRecord) error
	QuerySessions(ctx context.Context, identity string, r DateRange) ([]SessionRecord, error)
}

// SessionCompleter is an optional interface that Gateway implementations
// can satisfy to write a completed nap and the updated profile in one
// transaction.
type SessionCompleter interface {
	CompleteSession(ctx context.Context, identity string, profile Profile, record SessionRecord) error
}

// Sounder plays the audible alarm cue. Play must not block for the length
// of the cue; Stop silences anything still playing.
type Sounder interface {
	Play(ctx context.Context) error
	Stop()
}

// Notifier raises a user-visible alert. Implementations can write to the
// terminal, a desktop notification daemon, or anything else.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// AlarmChannel is the best-effort delivery path used while a finished nap
// is waiting to be acknowledged.
type AlarmChannel interface {
	Play(ctx context.Context) error
	Notify(ctx context.Context, title, body string) error
	Stop()
}

// IntentParser converts raw user input into structured intents.
type IntentParser interface {
	Parse(ctx context.Context, input string) (*Intent, error)
}
