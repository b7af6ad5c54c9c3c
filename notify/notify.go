package notify

// Severity selects the visual treatment applied by the host's presentation layer.
type Severity string

const (
	SeverityDefault     Severity = "default"
	SeverityDestructive Severity = "destructive"
)

// Notifier presents a transient message to the user. Calls are fire-and-forget:
// implementations must not block and have no way to report failure back to the
// flow that emitted the notification.
type Notifier interface {
	Notify(title, body string, severity Severity)
}

// Func adapts a plain function to the Notifier interface.
type Func func(title, body string, severity Severity)

func (f Func) Notify(title, body string, severity Severity) { f(title, body, severity) }

// Nop returns a Notifier that discards everything.
func Nop() Notifier {
	return Func(func(string, string, Severity) {})
}
