package transport

import (
	"errors"

	"github.com/google/uuid"

	"github.com/park285/lanchess/internal/protocol"
)

// State is the connection state of the event channel.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Down reports whether s means the session is gone.
func (s State) Down() bool {
	return s == StateDisconnected || s == StateFailed
}

type MessageCallback func(env protocol.Envelope)

type StateCallback func(state State)

// HeaderProvider returns headers to add to the handshake and each query.
type HeaderProvider func() map[string]string

// Emitter is the outbound capability the sync engine holds.
type Emitter interface {
	Emit(event string, data any) error
}

var (
	ErrNotConnected = errors.New("event channel not connected")
	ErrQueueFull    = errors.New("outbound queue full")
	ErrClosed       = errors.New("event channel closed")
)

// HeaderClientID is sent on the handshake and every query so the authority
// can correlate the two.
const HeaderClientID = "X-Client-Id"

// NewClientID returns a fresh random client id.
func NewClientID() string { return uuid.NewString() }

// ClientHeaders builds a provider that always sends id.
func ClientHeaders(id string) HeaderProvider {
	return func() map[string]string {
		return map[string]string{HeaderClientID: id}
	}
}
