package realtime

import (
	"encoding/json"
	"log"
	"sync"
)

// Event names emitted to project channels.
const (
	EventTaskCreated  = "task-created"
	EventTaskUpdated  = "task-updated"
	EventTaskDeleted  = "task-deleted"
	EventCommentAdded = "comment-added"
)

// Message is the wire envelope for an event broadcast to a project channel.
type Message struct {
	Event     string `json:"event"`
	ProjectID uint64 `json:"project_id"`
	Data      any    `json:"data"`
}

// Hub tracks which sockets are subscribed to which project channels and fans
// events out to them. Delivery is fire-and-forget, at-most-once: a client
// whose send buffer is full is disconnected, and there is no replay for
// clients that were offline during an event.
type Hub struct {
	mu sync.RWMutex
	// rooms maps project id -> subscribed clients; joined is the reverse index.
	rooms  map[uint64]map[*Client]struct{}
	joined map[*Client]map[uint64]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[uint64]map[*Client]struct{}),
		joined: make(map[*Client]map[uint64]struct{}),
	}
}

// Broadcast sends an event to every socket subscribed to the project channel.
func (h *Hub) Broadcast(projectID uint64, event string, data any) {
	payload, err := json.Marshal(Message{
		Event:     event,
		ProjectID: projectID,
		Data:      data,
	})
	if err != nil {
		log.Printf("realtime: failed to encode %s event: %v", event, err)
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[projectID]))
	for client := range h.rooms[projectID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.send <- payload:
		default:
			// Slow consumer: drop it rather than block the broadcast.
			client.close()
		}
	}
}

// RoomSize returns the number of sockets subscribed to a project channel.
func (h *Hub) RoomSize(projectID uint64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[projectID])
}

func (h *Hub) join(projectID uint64, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[projectID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[projectID] = room
	}
	room[client] = struct{}{}

	rooms, ok := h.joined[client]
	if !ok {
		rooms = make(map[uint64]struct{})
		h.joined[client] = rooms
	}
	rooms[projectID] = struct{}{}
}

func (h *Hub) leave(projectID uint64, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(projectID, client)
	if rooms, ok := h.joined[client]; ok {
		delete(rooms, projectID)
		if len(rooms) == 0 {
			delete(h.joined, client)
		}
	}
}

func (h *Hub) drop(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for projectID := range h.joined[client] {
		h.removeLocked(projectID, client)
	}
	delete(h.joined, client)
}

func (h *Hub) removeLocked(projectID uint64, client *Client) {
	room, ok := h.rooms[projectID]
	if !ok {
		return
	}
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, projectID)
	}
}
