package web

import "sync"

// DialBroadcaster fans out high-rate dial frames to any listeners
// (e.g. SSE). It keeps the most recent frame so new subscribers get an
// immediate value, and drops frames for slow subscribers rather than
// blocking the frame loop.
type DialBroadcaster struct {
	mu        sync.RWMutex
	subs      map[int]chan DialFrame
	nextID    int
	last      DialFrame
	haveLast  bool
	available bool
}

func NewDialBroadcaster() *DialBroadcaster {
	return &DialBroadcaster{subs: make(map[int]chan DialFrame)}
}

// SetAvailable marks whether a heading source is delivering updates at
// all (the "unavailable platform" status from the error taxonomy).
func (b *DialBroadcaster) SetAvailable(v bool) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.available = v
	b.mu.Unlock()
}

func (b *DialBroadcaster) Available() bool {
	if b == nil {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.available
}

func (b *DialBroadcaster) Subscribe(buffer int) (int, <-chan DialFrame) {
	if b == nil {
		return 0, nil
	}
	if buffer <= 0 {
		buffer = 2
	}
	ch := make(chan DialFrame, buffer)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	last := b.last
	have := b.haveLast
	b.mu.Unlock()
	if have {
		select {
		case ch <- last:
		default:
		}
	}
	return id, ch
}

func (b *DialBroadcaster) Unsubscribe(id int) {
	if b == nil {
		return
	}
	b.mu.Lock()
	ch, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
		close(ch)
	}
	b.mu.Unlock()
}

func (b *DialBroadcaster) Publish(f DialFrame) {
	if b == nil {
		return
	}
	b.mu.RLock()
	subs := make([]chan DialFrame, 0, len(b.subs))
	for _, ch := range b.subs {
		subs = append(subs, ch)
	}
	b.mu.RUnlock()
	for _, ch := range subs {
		select {
		case ch <- f:
		default:
		}
	}
	b.mu.Lock()
	b.last = f
	b.haveLast = true
	b.mu.Unlock()
}
