package web

import (
	"log"
	"sync"
)

// Flash is the web UI's notifier. The last alert is shown once on the next
// rendered page; inline auth errors are rendered by the auth screen itself.
type Flash struct {
	mu    sync.Mutex
	alert string
}

// NewFlash creates an empty flash notifier
func NewFlash() *Flash {
	return &Flash{}
}

// Alert implements app.Notifier
func (f *Flash) Alert(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alert = msg
	log.Printf("🔔 %s", msg)
}

// Inline implements app.Notifier. The auth screen renders the error from
// the app state, so it is only logged here.
func (f *Flash) Inline(msg string) {
	log.Printf("⚠️  %s", msg)
}

// ClearInline implements app.Notifier
func (f *Flash) ClearInline() {}

// Take returns the pending alert and clears it
func (f *Flash) Take() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := f.alert
	f.alert = ""
	return msg
}

