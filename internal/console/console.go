// Package console implements the append-only scan log. Lines are never
// edited or removed; subscribers always see the full backlog followed by
// live lines in append order, which is how the UI keeps its panel scrolled
// to the bottom.
package console

import "sync"

// Line is a single console entry.
type Line struct {
	Seq  int    `json:"seq"`
	Text string `json:"text"`
}

// Console is an append-only ordered line log with subscriber fan-out.
type Console struct {
	mu    sync.Mutex
	lines []Line
	subs  map[int]chan Line
	next  int
}

// New creates an empty console.
func New() *Console {
	return &Console{
		subs: make(map[int]chan Line),
	}
}

// Append adds one line and delivers it to every subscriber. A subscriber
// that has fallen behind its buffer is dropped rather than blocking the
// scan goroutine.
func (c *Console) Append(text string) Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	line := Line{Seq: len(c.lines), Text: text}
	c.lines = append(c.lines, line)

	for id, ch := range c.subs {
		select {
		case ch <- line:
		default:
			close(ch)
			delete(c.subs, id)
		}
	}

	return line
}

// Lines returns a copy of every line appended so far, in order.
func (c *Console) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Subscribe returns the current backlog plus a channel of live lines and an
// unsubscribe func. The backlog and the channel together contain every line
// exactly once, in order.
func (c *Console) Subscribe() ([]Line, <-chan Line, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	backlog := make([]Line, len(c.lines))
	copy(backlog, c.lines)

	id := c.next
	c.next++
	ch := make(chan Line, 256)
	c.subs[id] = ch

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if ch, ok := c.subs[id]; ok {
			close(ch)
			delete(c.subs, id)
		}
	}

	return backlog, ch, cancel
}
