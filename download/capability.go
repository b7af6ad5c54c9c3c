package download

// Platform supplies the host-native capabilities the orchestrator cannot
// implement itself. Browser hosts back TriggerFileSave with a transient anchor
// element; desktop hosts open a save dialog; headless hosts write to disk.
type Platform interface {
	// Confirm presents a blocking yes/no prompt and returns the choice.
	Confirm(message string) bool
	// TriggerFileSave hands a URL and suggested filename to the host's native
	// download mechanism. Best-effort: there is no success or failure signal.
	TriggerFileSave(url, filename string)
}

// PlatformFuncs adapts plain functions to the Platform interface. Nil fields
// behave as no-ops (Confirm answers yes).
type PlatformFuncs struct {
	ConfirmFunc  func(message string) bool
	FileSaveFunc func(url, filename string)
}

func (p PlatformFuncs) Confirm(message string) bool {
	if p.ConfirmFunc == nil {
		return true
	}
	return p.ConfirmFunc(message)
}

func (p PlatformFuncs) TriggerFileSave(url, filename string) {
	if p.FileSaveFunc != nil {
		p.FileSaveFunc(url, filename)
	}
}
