// Package queue holds publish-ready items in discovery order until the
// scheduler releases them.
package queue

import "sync"

// Item is one publish-ready article. Content is already truncated to fit
// a photo caption.
type Item struct {
	ID       string
	Title    string
	Link     string
	Content  string
	ImageURL string
}

// Queue is a FIFO with one producer (ingestion) and one consumer (the
// scheduler's publish phase). Both run on the same loop; the mutex guards
// against a future concurrent reader such as the monitoring endpoint.
type Queue struct {
	mu    sync.Mutex
	items []Item
}

func New() *Queue {
	return &Queue{}
}

func (q *Queue) Push(item Item) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, item)
}

// Pop removes and returns the head item. ok is false when empty.
func (q *Queue) Pop() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Item{}, false
	}
	head := q.items[0]
	q.items = q.items[1:]
	return head, true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
