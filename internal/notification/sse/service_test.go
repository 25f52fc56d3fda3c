package sse

import (
	"testing"

	"pipeline_backend/platform/logger"

	"github.com/google/uuid"
)

func connect(s *Service, userID, orgID uuid.UUID) *client {
	c := &client{userID: userID, orgID: orgID, events: make(chan Event, 2)}
	s.addClient(c)
	return c
}

func TestPublishToOrganizationReachesEveryConnection(t *testing.T) {
	s := New(logger.New("development"))
	org := uuid.New()
	a := connect(s, uuid.New(), org)
	b := connect(s, uuid.New(), org)
	other := connect(s, uuid.New(), uuid.New())

	s.PublishToOrganization(org, Event{Type: EventDealStageChanged})

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Fatalf("expected both org connections to receive the event")
	}
	if len(other.events) != 0 {
		t.Fatalf("event leaked to another organization")
	}
}

func TestRemoveClientCleansOrganizationIndex(t *testing.T) {
	s := New(logger.New("development"))
	org := uuid.New()
	c := connect(s, uuid.New(), org)

	s.removeClient(c)

	if got := s.ConnectionCount(org); got != 0 {
		t.Fatalf("expected no connections, got %d", got)
	}
	if _, open := <-c.events; open {
		t.Fatalf("expected client channel to be closed")
	}
}

func TestFullBufferDropsInsteadOfBlocking(t *testing.T) {
	s := New(logger.New("development"))
	user := uuid.New()
	c := connect(s, user, uuid.New())

	for i := 0; i < 5; i++ {
		s.Publish(user, Event{Type: EventLeadAssigned})
	}
	if len(c.events) != cap(c.events) {
		t.Fatalf("expected buffer to be full, got %d", len(c.events))
	}
}

func TestCloseIsIdempotentAndRejectsNewClients(t *testing.T) {
	s := New(logger.New("development"))
	c := connect(s, uuid.New(), uuid.New())

	s.Close()
	s.Close()
	s.removeClient(c)

	if s.addClient(&client{userID: uuid.New(), events: make(chan Event, 1)}) {
		t.Fatalf("expected closed service to reject clients")
	}
}
