package notifier

// Level classifies a toast for the client UI.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Toast is a transient user-facing notification.
type Toast struct {
	Level   Level  `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Notifier delivers toasts to one target (a user uid, or a session id
// before login). Implemented by the websocket hub; a logging fallback is
// used where no realtime channel exists.
type Notifier interface {
	Notify(target string, toast Toast)
}
