// Package events provides a small synchronous publish/subscribe dispatcher
// used to tell independent views that records changed after a mutation made
// elsewhere.
//
// Delivery is synchronous and in subscription order. Events published before
// a handler subscribed are not replayed.
package events

import (
	"sync"
)

// Topic names an event stream.
type Topic string

// RecordsChanged is published after any successful write that alters records,
// history, welders or norms.
const RecordsChanged Topic = "records.changed"

// Event is the payload delivered to handlers.
type Event struct {
	Topic Topic
	// Source describes the operation that published the event, e.g. "record.add".
	Source string
	// RecordID is set when a single record was touched.
	RecordID uint
}

// Handler receives events.
type Handler func(Event)

// Subscription identifies one registered handler.
type Subscription struct {
	topic Topic
	id    uint64
}

type entry struct {
	id uint64
	fn Handler
}

// Dispatcher fans published events out to subscribers. The zero value is
// not usable; construct one with NewDispatcher. It is safe for concurrent use.
type Dispatcher struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[Topic][]entry
	closed bool
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{subs: make(map[Topic][]entry)}
}

// Subscribe registers fn for topic and returns a handle for Unsubscribe.
// Subscribing to a closed dispatcher is a no-op.
func (d *Dispatcher) Subscribe(topic Topic, fn Handler) Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	sub := Subscription{topic: topic, id: d.nextID}
	if d.closed || fn == nil {
		return sub
	}
	d.subs[topic] = append(d.subs[topic], entry{id: sub.id, fn: fn})
	return sub
}

// Unsubscribe removes the handler. Unknown or already removed subscriptions
// are ignored.
func (d *Dispatcher) Unsubscribe(sub Subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := d.subs[sub.topic]
	for i, e := range list {
		if e.id == sub.id {
			d.subs[sub.topic] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Publish delivers ev to every current subscriber of ev.Topic, in
// subscription order, on the caller's goroutine. Handlers may subscribe or
// unsubscribe while being called; such changes apply to the next Publish.
func (d *Dispatcher) Publish(ev Event) {
	d.mu.Lock()
	list := make([]entry, len(d.subs[ev.Topic]))
	copy(list, d.subs[ev.Topic])
	d.mu.Unlock()

	for _, e := range list {
		e.fn(ev)
	}
}

// Close drops every subscription. Later Publish calls deliver nothing.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs = make(map[Topic][]entry)
	d.closed = true
}
