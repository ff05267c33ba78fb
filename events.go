package framesync

import (
	"github.com/akmonengine/framesync/physics"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	ON_RESET EventType = iota
	ON_SPIN
	ON_ORIENT
	ON_SLEEP
	ON_WAKE
)

type EventType uint8

func (t EventType) String() string {
	switch t {
	case ON_RESET:
		return "reset"
	case ON_SPIN:
		return "spin"
	case ON_ORIENT:
		return "orient"
	case ON_SLEEP:
		return "sleep"
	case ON_WAKE:
		return "wake"
	}
	return "unknown"
}

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// Command events
type ResetEvent struct {
	Body   physics.BodyHandle
	Target physics.Pose
}

func (e ResetEvent) Type() EventType { return ON_RESET }

type SpinEvent struct {
	Body            physics.BodyHandle
	AngularVelocity mgl64.Vec3
}

func (e SpinEvent) Type() EventType { return ON_SPIN }

type OrientEvent struct {
	Body        physics.BodyHandle
	Orientation mgl64.Quat
}

func (e OrientEvent) Type() EventType { return ON_ORIENT }

// Sleep/Wake events, reported by the physics backend
type SleepEvent struct {
	Body physics.BodyHandle
}

func (e SleepEvent) Type() EventType { return ON_SLEEP }

type WakeEvent struct {
	Body physics.BodyHandle
}

func (e WakeEvent) Type() EventType { return ON_WAKE }

// EventListener - callback for events
type EventListener func(event Event)

// Events buffers what happens during a frame and delivers it once the frame is drawn, so
// listeners never run between the step and the render.
// Events implements physics.Observer: pass it in physics.Config to receive sleep/wake events.
type Events struct {
	listeners map[EventType][]EventListener
	buffer    []Event
}

func NewEvents() *Events {
	return &Events{
		listeners: make(map[EventType][]EventListener),
		buffer:    make([]Event, 0, 16),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// BodySlept buffers a SleepEvent
func (e *Events) BodySlept(h physics.BodyHandle) {
	e.emit(SleepEvent{Body: h})
}

// BodyWoke buffers a WakeEvent
func (e *Events) BodyWoke(h physics.BodyHandle) {
	e.emit(WakeEvent{Body: h})
}

// Pending returns how many events wait for the next flush
func (e *Events) Pending() int {
	return len(e.buffer)
}

func (e *Events) emit(event Event) {
	e.buffer = append(e.buffer, event)
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	for _, event := range e.buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
	e.buffer = e.buffer[:0]
}
