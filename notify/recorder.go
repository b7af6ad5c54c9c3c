package notify

import "sync"

// Notification is a captured message, retained by Recorder in emission order.
type Notification struct {
	Title    string
	Body     string
	Severity Severity
}

// Recorder is an in-memory Notifier that keeps every notification it receives.
// Hosts without a visual surface can drain it; tests assert against it.
type Recorder struct {
	mu   sync.Mutex
	seen []Notification
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Notify(title, body string, severity Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, Notification{Title: title, Body: body, Severity: severity})
}

// All returns a copy of everything notified so far.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.seen))
	copy(out, r.seen)
	return out
}

// Last returns the most recent notification, if any.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.seen) == 0 {
		return Notification{}, false
	}
	return r.seen[len(r.seen)-1], true
}

// Reset discards captured notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = nil
}
