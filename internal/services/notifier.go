package services

import "sync"

// Notifier fans a change signal out to subscribers. Signals coalesce: a slow
// subscriber sees at most one pending signal, never a backlog.
type Notifier struct {
	mu        sync.Mutex
	next      int
	subs      map[int]chan struct{}
	listeners []func()
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]chan struct{})}
}

// OnChange registers fn to run synchronously on every Notify, before
// subscribers are signalled.
func (n *Notifier) OnChange(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, fn)
}

// Subscribe returns a signal channel and a function that releases it.
func (n *Notifier) Subscribe() (<-chan struct{}, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.next
	n.next++
	ch := make(chan struct{}, 1)
	n.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subs, id)
		})
	}
}

func (n *Notifier) Notify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, fn := range n.listeners {
		fn()
	}
	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
