package enhance

import (
	"log"
	"sync"

	"github.com/jonathan/resume-builder/internal/types"
)

// StatusObserver receives every APIStatus transition of an invocation, in order.
type StatusObserver interface {
	OnStatusChange(status types.APIStatus)
}

// StatusFunc adapts a function to StatusObserver.
type StatusFunc func(status types.APIStatus)

// OnStatusChange implements StatusObserver.
func (f StatusFunc) OnStatusChange(status types.APIStatus) { f(status) }

type nopObserver struct{}

func (nopObserver) OnStatusChange(types.APIStatus) {}

// orNop never returns nil.
func orNop(o StatusObserver) StatusObserver {
	if o == nil {
		return nopObserver{}
	}
	return o
}

// forwardObserver passes on one invocation's statuses and drops any that would move the
// lifecycle backwards or follow a terminal status.
type forwardObserver struct {
	next    StatusObserver
	prev    types.APIStatus
	started bool
}

func forwardOnly(o StatusObserver) *forwardObserver {
	return &forwardObserver{next: orNop(o)}
}

func (f *forwardObserver) OnStatusChange(status types.APIStatus) {
	if f.started && !status.Follows(f.prev) {
		log.Printf("[enhance] dropping %s status after %s", status.Phase, f.prev.Phase)
		return
	}
	f.started = true
	f.prev = status
	f.next.OnStatusChange(status)
}

type syncObserver struct {
	mu   sync.Mutex
	next StatusObserver
}

func (s *syncObserver) OnStatusChange(status types.APIStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next.OnStatusChange(status)
}

// Synchronized serializes calls into o so it can be shared by concurrent invocations.
func Synchronized(o StatusObserver) StatusObserver {
	if o == nil {
		return nopObserver{}
	}
	if _, ok := o.(*syncObserver); ok {
		return o
	}
	return &syncObserver{next: o}
}
