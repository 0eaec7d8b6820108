package session

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rocketscienceinc/gridclash-backend/internal/apperror"
)

type OverflowPolicy string

const (
	// OverflowDisconnect closes the session when its queue is full.
	OverflowDisconnect OverflowPolicy = "disconnect"
	// OverflowDropOldest discards the oldest queued payload to make room.
	OverflowDropOldest OverflowPolicy = "drop-oldest"
)

const DefaultQueueSize = 32

func (that OverflowPolicy) IsValid() bool {
	return that == OverflowDisconnect || that == OverflowDropOldest
}

// Session is one connection's identity and its bounded outbound queue.
type Session struct {
	ID       string
	PlayerID string

	policy OverflowPolicy

	mu         sync.Mutex
	queue      chan []byte
	done       chan struct{}
	closed     bool
	overflowed bool

	dropped atomic.Uint64
}

func New(id, playerID string, queueSize int, policy OverflowPolicy) *Session {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	if !policy.IsValid() {
		policy = OverflowDisconnect
	}

	return &Session{
		ID:       id,
		PlayerID: playerID,
		policy:   policy,
		queue:    make(chan []byte, queueSize),
		done:     make(chan struct{}),
	}
}

// Send enqueues a payload without blocking.
func (that *Session) Send(payload []byte) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return apperror.ErrSessionClosed
	}

	select {
	case that.queue <- payload:
		return nil
	default:
	}

	if that.policy == OverflowDropOldest {
		// only the write pump receives concurrently, so one receive always frees a slot
		select {
		case <-that.queue:
			that.dropped.Add(1)
		default:
		}

		that.queue <- payload

		return nil
	}

	that.overflowed = true
	that.closeLocked()

	return fmt.Errorf("%w: session %s", apperror.ErrSessionOverflowed, that.ID)
}

// Outbound is closed when the session is closed.
func (that *Session) Outbound() <-chan []byte {
	return that.queue
}

func (that *Session) Done() <-chan struct{} {
	return that.done
}

func (that *Session) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closeLocked()
}

func (that *Session) closeLocked() {
	if that.closed {
		return
	}

	that.closed = true
	close(that.queue)
	close(that.done)
}

func (that *Session) Overflowed() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.overflowed
}

// Dropped - payloads discarded under the drop-oldest policy.
func (that *Session) Dropped() uint64 {
	return that.dropped.Load()
}
