package glide

import (
	"github.com/akmonengine/glide/actor"
	"github.com/akmonengine/glide/sweep"
)

const (
	BUMP_ENTER EventType = iota
	BUMP_STAY
	BUMP_EXIT
	ON_LAND
	ON_LEAVE_GROUND
)

type bumpKey struct {
	character *Character
	brush     *actor.Brush
}

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// Bump events: a moving character touched a touchable brush
type BumpEnterEvent struct {
	Character *Character
	Brush     *actor.Brush
}

func (e BumpEnterEvent) Type() EventType { return BUMP_ENTER }

type BumpStayEvent struct {
	Character *Character
	Brush     *actor.Brush
}

func (e BumpStayEvent) Type() EventType { return BUMP_STAY }

type BumpExitEvent struct {
	Character *Character
	Brush     *actor.Brush
}

func (e BumpExitEvent) Type() EventType { return BUMP_EXIT }

// Ground events
type LandEvent struct {
	Character *Character
	Ground    sweep.CollisionInfo
}

func (e LandEvent) Type() EventType { return ON_LAND }

type LeaveGroundEvent struct {
	Character *Character
}

func (e LeaveGroundEvent) Type() EventType { return ON_LEAVE_GROUND }

// EventListener - callback for events
type EventListener func(event Event)

// Events manager
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// Bump tracking for Enter/Stay/Exit detection
	previousBumps map[bumpKey]bool
	currentBumps  map[bumpKey]bool

	groundStates map[*Character]GroundState
}

func NewEvents() Events {
	return Events{
		listeners:     make(map[EventType][]EventListener),
		buffer:        make([]Event, 0, 64),
		previousBumps: make(map[bumpKey]bool),
		currentBumps:  make(map[bumpKey]bool),
		groundStates:  make(map[*Character]GroundState),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordBumps marks every brush the character touched during this Step
func (e *Events) recordBumps(character *Character) {
	for _, brush := range character.touching {
		e.currentBumps[bumpKey{character: character, brush: brush}] = true
	}
}

// processBumpEvents compares current and previous bumps to detect Enter/Stay/Exit
func (e *Events) processBumpEvents() {
	for pair := range e.currentBumps {
		if e.previousBumps[pair] {
			e.buffer = append(e.buffer, BumpStayEvent{Character: pair.character, Brush: pair.brush})
		} else {
			e.buffer = append(e.buffer, BumpEnterEvent{Character: pair.character, Brush: pair.brush})
		}
	}

	for pair := range e.previousBumps {
		if !e.currentBumps[pair] {
			e.buffer = append(e.buffer, BumpExitEvent{Character: pair.character, Brush: pair.brush})
		}
	}

	// Swap for next frame and clear current
	e.previousBumps, e.currentBumps = e.currentBumps, e.previousBumps
	clear(e.currentBumps)
}

// processGroundEvents emits transitions of the ground state. The first state seen
// for a character is only recorded.
func (e *Events) processGroundEvents(characters []*Character) {
	for _, character := range characters {
		trackedState, exists := e.groundStates[character]
		e.groundStates[character] = character.State
		if !exists || trackedState == character.State {
			continue
		}

		if character.State == OnGround {
			e.buffer = append(e.buffer, LandEvent{Character: character, Ground: character.Ground})
		} else {
			e.buffer = append(e.buffer, LeaveGroundEvent{Character: character})
		}
	}
}

// forgetCharacter drops all tracking of a removed character, without Exit events
func (e *Events) forgetCharacter(character *Character) {
	delete(e.groundStates, character)
	for pair := range e.previousBumps {
		if pair.character == character {
			delete(e.previousBumps, pair)
		}
	}
}

// forgetBrush drops all tracking of a removed brush, without Exit events
func (e *Events) forgetBrush(brush *actor.Brush) {
	for pair := range e.previousBumps {
		if pair.brush == brush {
			delete(e.previousBumps, pair)
		}
	}
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	e.processBumpEvents()

	for _, event := range e.buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
	e.buffer = e.buffer[:0]
}
