package services

import (
	"sync"

	"github.com/google/uuid"
)

const (
	EventIssueCreated   = "issue.created"
	EventIssueUpdated   = "issue.updated"
	EventIssueDeleted   = "issue.deleted"
	EventBoardReordered = "board.reordered"
	EventSprintStatus   = "sprint.status"
)

// BoardEvent tells open boards that a project changed and should be refetched.
type BoardEvent struct {
	Type      string      `json:"type"`
	ProjectID uuid.UUID   `json:"project_id"`
	SprintID  *uuid.UUID  `json:"sprint_id,omitempty"`
	IssueIDs  []uuid.UUID `json:"issue_ids,omitempty"`
	UserID    string      `json:"user_id"`
}

type sseClient struct {
	organizationID string
	ch             chan BoardEvent
}

// SSEHub manages SSE client connections and event broadcasting.
// Clients only receive events of their own organization.
type SSEHub struct {
	clients map[string]*sseClient
	mu      sync.RWMutex
}

func NewSSEHub() *SSEHub {
	return &SSEHub{
		clients: make(map[string]*sseClient),
	}
}

// Subscribe registers a new client and returns a channel for receiving events
func (h *SSEHub) Subscribe(clientID, organizationID string) <-chan BoardEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Create buffered channel to prevent blocking
	ch := make(chan BoardEvent, 100)
	h.clients[clientID] = &sseClient{organizationID: organizationID, ch: ch}
	return ch
}

// Unsubscribe removes a client from the hub
func (h *SSEHub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[clientID]; ok {
		close(c.ch)
		delete(h.clients, clientID)
	}
}

// Publish sends an event to the clients of organizationID
func (h *SSEHub) Publish(organizationID string, event BoardEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		if c.organizationID != organizationID {
			continue
		}
		// Non-blocking send - drop event if client buffer is full
		select {
		case c.ch <- event:
		default:
		}
	}
}

// ClientCount returns the number of connected clients
func (h *SSEHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var globalSSEHub *SSEHub
var sseHubOnce sync.Once

// GetSSEHub returns the global SSE hub singleton
func GetSSEHub() *SSEHub {
	sseHubOnce.Do(func() {
		globalSSEHub = NewSSEHub()
	})
	return globalSSEHub
}

func publishBoardEvent(session Session, eventType string, projectID uuid.UUID, sprintID *uuid.UUID, issueIDs ...uuid.UUID) {
	GetSSEHub().Publish(session.OrganizationID, BoardEvent{
		Type:      eventType,
		ProjectID: projectID,
		SprintID:  sprintID,
		IssueIDs:  issueIDs,
		UserID:    session.UserID,
	})
}
