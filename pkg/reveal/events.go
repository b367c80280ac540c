package reveal

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// EventType identifies what a reader is notifying about.
type EventType string

const (
	EventStart     EventType = "start"
	EventFinish    EventType = "finish"
	EventIntercept EventType = "intercept"
)

// Event is passed to subscribed handlers.
// Index and Char are set for interceptions only; Index is -1 otherwise.
type Event struct {
	Type  EventType
	Index int
	Char  rune
}

// Handler is a subscription callback. Handlers may call back into the reader.
type Handler func(Event)

// SubscriptionID identifies a registered handler for Unsubscribe.
type SubscriptionID uint64

type subscription struct {
	id SubscriptionID
	fn Handler
}

// eventTable keeps handlers in registration order per event key.
type eventTable struct {
	next SubscriptionID

	start  []subscription
	finish []subscription

	byIndex map[int][]subscription

	// byText holds substring subscriptions; textOrder keeps their registration order.
	byText    map[string][]subscription
	textOrder []string

	// resolved maps body indices to substring subscriptions for the current read.
	resolved map[int][]subscription
}

func newEventTable() eventTable {
	return eventTable{
		byIndex:  map[int][]subscription{},
		byText:   map[string][]subscription{},
		resolved: map[int][]subscription{},
	}
}

func (t *eventTable) add(fn Handler) subscription {
	t.next++
	return subscription{id: t.next, fn: fn}
}

// resolveText registers an index interception for every non-overlapping
// occurrence of each subscribed substring, scanning left to right.
func (t *eventTable) resolveText(body string) {
	t.resolved = map[int][]subscription{}
	for _, text := range t.textOrder {
		for _, index := range occurrences(body, text) {
			t.resolved[index] = append(t.resolved[index], t.byText[text]...)
		}
	}
}

// occurrences returns the rune indices of the non-overlapping occurrences of sub in body.
func occurrences(body, sub string) []int {
	if sub == "" {
		return nil
	}

	var indices []int
	offset, runes := 0, 0
	subRunes := utf8.RuneCountInString(sub)
	for {
		i := strings.Index(body[offset:], sub)
		if i < 0 {
			return indices
		}
		runes += utf8.RuneCountInString(body[offset : offset+i])
		indices = append(indices, runes)
		runes += subRunes
		offset += i + len(sub)
	}
}

// OnStart subscribes to the start of every Read/Unread, fired after the
// preexisting text is displayed and before the first character moves.
func (r *Reader) OnStart(fn Handler) SubscriptionID {
	s := r.events.add(fn)
	r.events.start = append(r.events.start, s)
	return s.id
}

// OnFinish subscribes to read completion, including GoToStart/GoToEnd.
// Reads completed from inside a finish handler do not fire finish again.
func (r *Reader) OnFinish(fn Handler) SubscriptionID {
	s := r.events.add(fn)
	r.events.finish = append(r.events.finish, s)
	return s.id
}

// OnIntercept subscribes to the character at index being revealed or hidden.
func (r *Reader) OnIntercept(index int, fn Handler) SubscriptionID {
	s := r.events.add(fn)
	r.events.byIndex[index] = append(r.events.byIndex[index], s)
	return s.id
}

// OnInterceptText subscribes to the first character of every occurrence of text.
// Occurrences are resolved when a read starts.
func (r *Reader) OnInterceptText(text string, fn Handler) SubscriptionID {
	s := r.events.add(fn)
	if _, ok := r.events.byText[text]; !ok {
		r.events.textOrder = append(r.events.textOrder, text)
	}
	r.events.byText[text] = append(r.events.byText[text], s)
	return s.id
}

// Unsubscribe removes a handler. It reports whether the ID was registered.
func (r *Reader) Unsubscribe(id SubscriptionID) bool {
	t := &r.events
	found := false

	var ok bool
	if t.start, ok = without(t.start, id); ok {
		found = true
	}
	if t.finish, ok = without(t.finish, id); ok {
		found = true
	}
	for index, subs := range t.byIndex {
		if t.byIndex[index], ok = without(subs, id); ok {
			found = true
		}
		if len(t.byIndex[index]) == 0 {
			delete(t.byIndex, index)
		}
	}
	for text, subs := range t.byText {
		if t.byText[text], ok = without(subs, id); ok {
			found = true
		}
		if len(t.byText[text]) == 0 {
			delete(t.byText, text)
			t.textOrder = slices.DeleteFunc(t.textOrder, func(s string) bool { return s == text })
		}
	}
	for index, subs := range t.resolved {
		t.resolved[index], _ = without(subs, id)
		if len(t.resolved[index]) == 0 {
			delete(t.resolved, index)
		}
	}
	return found
}

func without(subs []subscription, id SubscriptionID) ([]subscription, bool) {
	i := slices.IndexFunc(subs, func(s subscription) bool { return s.id == id })
	if i < 0 {
		return subs, false
	}
	return slices.Delete(subs, i, i+1), true
}

func (r *Reader) fire(subs []subscription, e Event) {
	// Handlers may unsubscribe while we iterate.
	for _, s := range slices.Clone(subs) {
		s.fn(e)
	}
}

func (r *Reader) fireIntercept(index int, ch rune) {
	e := Event{Type: EventIntercept, Index: index, Char: ch}
	r.fire(r.events.byIndex[index], e)
	r.fire(r.events.resolved[index], e)
}
