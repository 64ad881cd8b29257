package persistence

import "errors"

// ErrRemoteUnavailable marks any failure of the remote store. It is logged and
// latches the facade offline; it is never returned to callers.
var ErrRemoteUnavailable = errors.New("remote store unavailable")

// Mode is the store the facade currently resolves to.
type Mode int32

const (
	// Online resolves operations against the remote store.
	Online Mode = iota
	// Offline resolves every operation against the local cache.
	Offline
)

func (m Mode) String() string {
	if m == Offline {
		return "offline"
	}
	return "online"
}

// Observer receives facade events. The metrics package provides the production
// implementation.
type Observer interface {
	RemoteFailure(op string)
	ModeChanged(m Mode)
	CacheFailure(op string)
}

type nopObserver struct{}

func (nopObserver) RemoteFailure(string) {}
func (nopObserver) ModeChanged(Mode)     {}
func (nopObserver) CacheFailure(string)  {}
