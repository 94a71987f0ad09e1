package domain

// IntentType classifies what the user wants to do.
type IntentType int

const (
	IntentUnknown IntentType = iota
	IntentStart              // start the selected nap, optional preset/minutes payload
	IntentSelect             // pick a preset or custom minutes without starting
	IntentCancel             // stop a running countdown
	IntentAcknowledge        // "I'm awake": silence the alarm and collect rewards
	IntentPresets
	IntentStatus
	IntentStats
	IntentName // payload is the new display name
	IntentHelp
	IntentQuit
)

// String returns a human-readable intent type.
func (i IntentType) String() string {
	switch i {
	case IntentStart:
		return "start"
	case IntentSelect:
		return "select"
	case IntentCancel:
		return "cancel"
	case IntentAcknowledge:
		return "acknowledge"
	case IntentPresets:
		return "presets"
	case IntentStatus:
		return "status"
	case IntentStats:
		return "stats"
	case IntentName:
		return "name"
	case IntentHelp:
		return "help"
	case IntentQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Intent represents a parsed user action.
type Intent struct {
	Type    IntentType
	Payload string // optional context, e.g. preset ID or minutes
}
