package chat

import "sync"

const subscriberBuffer = 16

// Hub fans persisted messages out to room subscribers. Slow consumers
// drop messages rather than block a chat turn.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[chan Message]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[chan Message]struct{})}
}

// Subscribe returns a channel of messages for the room and a cancel
// function that must be called when the subscriber goes away.
func (h *Hub) Subscribe(roomID string) (<-chan Message, func()) {
	ch := make(chan Message, subscriberBuffer)

	h.mu.Lock()
	subs, ok := h.rooms[roomID]
	if !ok {
		subs = make(map[chan Message]struct{})
		h.rooms[roomID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if subs, ok := h.rooms[roomID]; ok {
			if _, live := subs[ch]; live {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(h.rooms, roomID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *Hub) Broadcast(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.rooms[msg.RoomID] {
		select {
		case ch <- msg:
		default:
		}
	}
}
