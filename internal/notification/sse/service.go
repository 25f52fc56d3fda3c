// Package sse pushes pipeline activity to connected browsers as Server-Sent Events.
package sse

import (
	"encoding/json"
	"net/http"
	"sync"

	"pipeline_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventType represents different types of SSE events
type EventType string

const (
	EventLeadAssigned        EventType = "lead_assigned"
	EventLeadFollowUpDue     EventType = "lead_follow_up_due"
	EventDealStageChanged    EventType = "deal_stage_changed"
	EventContractCreated     EventType = "contract_created"
	EventProductSalesCreated EventType = "product_sales_created"
	EventContractApproval    EventType = "contract_approval_recorded"
)

// Event represents an SSE event payload
type Event struct {
	Type    EventType   `json:"type"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// client represents a connected SSE client
type client struct {
	userID uuid.UUID
	orgID  uuid.UUID
	events chan Event
}

// Service manages SSE connections and event broadcasting
type Service struct {
	mu      sync.RWMutex
	clients map[uuid.UUID][]*client // userID -> clients
	orgs    map[uuid.UUID][]*client // orgID -> clients
	closed  bool
	log     *logger.Logger
}

// New creates a new SSE service
func New(log *logger.Logger) *Service {
	return &Service{
		clients: make(map[uuid.UUID][]*client),
		orgs:    make(map[uuid.UUID][]*client),
		log:     log,
	}
}

func (s *Service) addClient(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}

	s.clients[c.userID] = append(s.clients[c.userID], c)
	if c.orgID != uuid.Nil {
		s.orgs[c.orgID] = append(s.orgs[c.orgID], c)
	}
	return true
}

func (s *Service) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.clients[c.userID] = without(s.clients[c.userID], c)
	if len(s.clients[c.userID]) == 0 {
		delete(s.clients, c.userID)
	}
	if c.orgID != uuid.Nil {
		s.orgs[c.orgID] = without(s.orgs[c.orgID], c)
		if len(s.orgs[c.orgID]) == 0 {
			delete(s.orgs, c.orgID)
		}
	}
	close(c.events)
}

func without(list []*client, c *client) []*client {
	for i, cl := range list {
		if cl == c {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

// Publish sends an event to every connection of a user.
func (s *Service) Publish(userID uuid.UUID, event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.deliver(s.clients[userID], event)
}

// PublishToOrganization broadcasts an event to every connection in the organization.
func (s *Service) PublishToOrganization(orgID uuid.UUID, event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.deliver(s.orgs[orgID], event)
}

// deliver must run under the read lock so a channel is never closed mid-send.
func (s *Service) deliver(clients []*client, event Event) {
	for _, c := range clients {
		select {
		case c.events <- event:
		default:
			s.log.Warn("sse buffer full, event dropped", "userId", c.userID, "type", event.Type)
		}
	}
}

// ConnectionCount reports the open connections of an organization.
func (s *Service) ConnectionCount(orgID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orgs[orgID])
}

// Handler returns a Gin handler for SSE connections
func (s *Service) Handler(getUserID func(*gin.Context) (uuid.UUID, bool), getOrgID func(*gin.Context) (uuid.UUID, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := getUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		orgID, _ := getOrgID(c)

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		cl := &client{
			userID: userID,
			orgID:  orgID,
			events: make(chan Event, 32),
		}
		if !s.addClient(cl) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "shutting down"})
			return
		}
		defer s.removeClient(cl)

		c.SSEvent("connected", gin.H{"userId": userID, "orgId": orgID})
		c.Writer.Flush()

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				return
			case event, ok := <-cl.events:
				if !ok {
					return
				}
				data, _ := json.Marshal(event)
				c.SSEvent(string(event.Type), string(data))
				c.Writer.Flush()
			}
		}
	}
}

// Close disconnects every client.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true

	for _, clients := range s.clients {
		for _, c := range clients {
			close(c.events)
		}
	}
	s.clients = make(map[uuid.UUID][]*client)
	s.orgs = make(map[uuid.UUID][]*client)
}
