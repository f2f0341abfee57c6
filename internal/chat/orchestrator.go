package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"alterview/internal/completion"
	"alterview/internal/domain"
	"alterview/internal/observability"
)

// PersonaSource produces the interviewer system prompt for a profile.
type PersonaSource interface {
	PersonaPrompt(ctx context.Context, profileID string, now time.Time) (string, error)
}

// Authorizer decides whether a caller may act in a room.
type Authorizer interface {
	CanAct(ctx context.Context, callerID string, room Room) (bool, error)
}

// Orchestrator runs a full chat turn: persist the inbound message,
// seed the system prompt on the first turn, build the history, call
// the completion provider and persist the reply.
type Orchestrator struct {
	store    Store
	persona  PersonaSource
	provider completion.Provider
	auth     Authorizer
	metrics  *observability.Metrics
	hub      *Hub
	timeout  time.Duration
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*roomLock
}

// roomLock is one room's turn mutex plus the number of turns holding or
// waiting on it, so the table entry can be dropped when it reaches zero.
type roomLock struct {
	mu   sync.Mutex
	refs int
}

func NewOrchestrator(store Store, persona PersonaSource, provider completion.Provider, auth Authorizer, metrics *observability.Metrics, hub *Hub, timeout time.Duration) *Orchestrator {
	return &Orchestrator{
		store:    store,
		persona:  persona,
		provider: provider,
		auth:     auth,
		metrics:  metrics,
		hub:      hub,
		timeout:  timeout,
		now:      time.Now,
		locks:    make(map[string]*roomLock),
	}
}

// lockRoom serializes turns per room so first-turn seeding and message
// ordering stay deterministic under concurrent senders.
func (o *Orchestrator) lockRoom(roomID string) *roomLock {
	o.mu.Lock()
	l, ok := o.locks[roomID]
	if !ok {
		l = &roomLock{}
		o.locks[roomID] = l
	}
	l.refs++
	o.mu.Unlock()

	l.mu.Lock()
	return l
}

func (o *Orchestrator) unlockRoom(roomID string, l *roomLock) {
	l.mu.Unlock()

	o.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(o.locks, roomID)
	}
	o.mu.Unlock()
}

// Chat handles one inbound user message and returns the profile's
// reply. The inbound message stays persisted even when the provider
// call fails.
func (o *Orchestrator) Chat(ctx context.Context, callerID, roomID, text string) (Message, error) {
	started := o.now()

	room, err := o.authorize(ctx, callerID, roomID)
	if err != nil {
		o.metrics.CountTurn("rejected")
		return Message{}, err
	}

	lock := o.lockRoom(roomID)
	defer o.unlockRoom(roomID, lock)

	inbound, err := NewUserMessage(roomID, callerID, text)
	if err != nil {
		o.metrics.CountTurn("rejected")
		return Message{}, err
	}
	inbound, err = o.store.AppendMessage(ctx, inbound)
	if err != nil {
		o.metrics.CountTurn("error")
		return Message{}, fmt.Errorf("append user message: %w", err)
	}
	o.broadcast(inbound)

	msgs, err := o.store.ListMessages(ctx, roomID)
	if err != nil {
		o.metrics.CountTurn("error")
		return Message{}, fmt.Errorf("list messages: %w", err)
	}

	if len(msgs) == 1 {
		seed, seeded, err := o.seedPrompt(ctx, room)
		if err != nil {
			o.metrics.CountTurn("error")
			return Message{}, err
		}
		if seeded {
			o.metrics.CountSeed()
		}
		msgs = append(msgs, seed)
	}

	history := BuildHistory(msgs)

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	reply, err := o.provider.Complete(callCtx, history)
	cancel()
	if err != nil {
		o.metrics.CountProviderError(providerErrorCode(err))
		o.metrics.CountTurn("upstream_error")
		return Message{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	outbound, err := NewProfileMessage(roomID, room.ProfileID, reply)
	if err != nil {
		o.metrics.CountTurn("error")
		return Message{}, err
	}
	outbound, err = o.store.AppendMessage(ctx, outbound)
	if err != nil {
		o.metrics.CountTurn("error")
		return Message{}, fmt.Errorf("append profile message: %w", err)
	}
	o.broadcast(outbound)

	o.metrics.CountTurn("ok")
	o.metrics.ObserveTurnLatency(o.now().Sub(started))
	return outbound, nil
}

// History returns the room's messages for an authorized caller, oldest
// first.
func (o *Orchestrator) History(ctx context.Context, callerID, roomID string) ([]Message, error) {
	if _, err := o.authorize(ctx, callerID, roomID); err != nil {
		return nil, err
	}
	return o.store.ListMessages(ctx, roomID)
}

func (o *Orchestrator) authorize(ctx context.Context, callerID, roomID string) (Room, error) {
	room, err := o.store.GetRoom(ctx, roomID)
	if err != nil {
		return Room{}, err
	}
	ok, err := o.auth.CanAct(ctx, callerID, room)
	if err != nil {
		return Room{}, err
	}
	if !ok {
		// Callers outside the room learn nothing about its existence.
		return Room{}, domain.ErrNotFound
	}
	return room, nil
}

func (o *Orchestrator) seedPrompt(ctx context.Context, room Room) (Message, bool, error) {
	prompt, err := o.persona.PersonaPrompt(ctx, room.ProfileID, o.now())
	if err != nil {
		return Message{}, false, fmt.Errorf("synthesize persona prompt: %w", err)
	}
	seed, seeded, err := o.store.SeedSystemMessage(ctx, room.ID, prompt)
	if err != nil {
		return Message{}, false, fmt.Errorf("seed system message: %w", err)
	}
	return seed, seeded, nil
}

func (o *Orchestrator) broadcast(msg Message) {
	if o.hub == nil {
		return
	}
	o.hub.Broadcast(msg)
}

func providerErrorCode(err error) string {
	switch {
	case errors.Is(err, completion.ErrTimeout):
		return "timeout"
	case errors.Is(err, completion.ErrEmptyResponse):
		return "empty"
	default:
		return "provider"
	}
}
