package auth

import (
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

type StateChange string

const (
	SignedIn  StateChange = "signed_in"
	SignedOut StateChange = "signed_out"
)

// StateEvent 는 로그인 상태 전이 하나다.
type StateEvent struct {
	Change StateChange
	User   User
	At     time.Time
}

type Listener func(StateEvent)

type subscription struct {
	fn     Listener
	active atomic.Bool
}

// StateNotifier fans auth state transitions out to listeners.
// Listeners run synchronously on the Notify caller's goroutine in subscription
// order; once the unsubscribe func returns the listener is not invoked again.
// A listener may unsubscribe itself or call Notify; the nested event is
// delivered before the outer Notify moves on to the next listener.
// Concurrent Notify calls are not serialized against each other.
type StateNotifier struct {
	mu   sync.Mutex
	seq  uint64
	subs map[uint64]*subscription
}

func NewStateNotifier() *StateNotifier {
	return &StateNotifier{subs: map[uint64]*subscription{}}
}

// Subscribe 는 listener 를 등록하고 해제 함수를 돌려준다. 해제 함수는 여러 번 호출해도 된다.
func (n *StateNotifier) Subscribe(fn Listener) (unsubscribe func()) {
	sub := &subscription{fn: fn}
	sub.active.Store(true)

	n.mu.Lock()
	n.seq++
	id := n.seq
	n.subs[id] = sub
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.active.Store(false)
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
		})
	}
}

func (n *StateNotifier) Notify(ev StateEvent) {
	n.mu.Lock()
	ids := slices.Sorted(maps.Keys(n.subs))
	snapshot := maps.Clone(n.subs)
	n.mu.Unlock()

	// 구독 순서대로 전달한다. 잠금 없이 호출하므로 listener 안에서 Notify 해도 된다.
	for _, id := range ids {
		if s := snapshot[id]; s.active.Load() {
			s.fn(ev)
		}
	}
}

func (n *StateNotifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}
