package phonebook

import (
	"sync"
	"time"
)

type Polarity int

const (
	NoticeSuccess Polarity = iota
	NoticeError
)

func (p Polarity) String() string {
	if p == NoticeError {
		return "error"
	}
	return "success"
}

type Notice struct {
	Polarity Polarity
	Message  string
}

// DefaultNoticeDuration is how long a notice stays visible.
const DefaultNoticeDuration = 5 * time.Second

// Notices holds at most one notice per polarity. Each notice clears itself
// after the configured duration unless a newer one of the same polarity
// replaced it first.
type Notices struct {
	duration time.Duration
	onChange func()

	mu    sync.Mutex
	slots [2]noticeSlot
}

type noticeSlot struct {
	message string
	shown   bool
	gen     uint64
	timer   *time.Timer
}

// NewNotices returns notices lasting d. onChange, if set, is called after
// every show and every clear, including those fired by timers.
func NewNotices(d time.Duration, onChange func()) *Notices {
	if d <= 0 {
		d = DefaultNoticeDuration
	}
	return &Notices{duration: d, onChange: onChange}
}

func (n *Notices) Show(p Polarity, message string) {
	n.mu.Lock()
	slot := &n.slots[p]
	slot.gen++
	gen := slot.gen
	slot.message, slot.shown = message, true
	if slot.timer != nil {
		slot.timer.Stop()
	}
	slot.timer = time.AfterFunc(n.duration, func() { n.expire(p, gen) })
	n.mu.Unlock()

	n.changed()
}

func (n *Notices) expire(p Polarity, gen uint64) {
	n.mu.Lock()
	slot := &n.slots[p]
	if slot.gen != gen || !slot.shown {
		n.mu.Unlock()
		return
	}
	slot.message, slot.shown, slot.timer = "", false, nil
	n.mu.Unlock()

	n.changed()
}

// Get returns the message shown for p, if any.
func (n *Notices) Get(p Polarity) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.slots[p].message, n.slots[p].shown
}

// Active returns the shown notices, success first.
func (n *Notices) Active() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	var active []Notice
	for p, slot := range n.slots {
		if slot.shown {
			active = append(active, Notice{Polarity: Polarity(p), Message: slot.message})
		}
	}
	return active
}

// Stop cancels pending clears. Shown notices stay as they are.
func (n *Notices) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := range n.slots {
		if n.slots[i].timer != nil {
			n.slots[i].timer.Stop()
			n.slots[i].timer = nil
		}
		n.slots[i].gen++
	}
}

func (n *Notices) changed() {
	if n.onChange != nil {
		n.onChange()
	}
}
