package webhook

import (
	"context"
	"sort"
	"sync"
	"time"

	"pipeline_backend/internal/shared/memstore"

	"github.com/google/uuid"
)

// MemoryStore keeps API keys in process memory.
type MemoryStore struct {
	keys *memstore.Store[APIKey]

	mu       sync.Mutex
	external map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		keys: memstore.New(func(k APIKey) APIKey {
			k.AllowedDomains = append([]string(nil), k.AllowedDomains...)
			return k
		}),
		external: make(map[string]struct{}),
	}
}

func (s *MemoryStore) Create(_ context.Context, orgID uuid.UUID, name, keyHash, keyPrefix string, allowedDomains []string) (APIKey, error) {
	now := time.Now().UTC()
	key := APIKey{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           name,
		KeyHash:        keyHash,
		KeyPrefix:      keyPrefix,
		AllowedDomains: allowedDomains,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.keys.Put(key.ID, key)
	return key, nil
}

func (s *MemoryStore) GetByHash(_ context.Context, keyHash string) (APIKey, error) {
	found := s.keys.Filter(func(k APIKey) bool { return k.IsActive && k.KeyHash == keyHash })
	if len(found) == 0 {
		return APIKey{}, ErrAPIKeyNotFound
	}
	return found[0], nil
}

func (s *MemoryStore) ListByOrganization(_ context.Context, orgID uuid.UUID) ([]APIKey, error) {
	keys := s.keys.Filter(func(k APIKey) bool { return k.OrganizationID == orgID })
	sort.SliceStable(keys, func(i, j int) bool { return keys[i].CreatedAt.After(keys[j].CreatedAt) })
	return keys, nil
}

func (s *MemoryStore) Revoke(_ context.Context, keyID, orgID uuid.UUID) error {
	key, ok := s.keys.Get(keyID)
	if !ok || key.OrganizationID != orgID {
		return ErrAPIKeyNotFound
	}
	key.IsActive = false
	key.UpdatedAt = time.Now().UTC()
	s.keys.Replace(keyID, key)
	return nil
}

func (s *MemoryStore) ClaimExternalLead(_ context.Context, orgID uuid.UUID, source, externalID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := orgID.String() + "|" + source + "|" + externalID
	if _, seen := s.external[k]; seen {
		return false, nil
	}
	s.external[k] = struct{}{}
	return true, nil
}

var _ Store = (*MemoryStore)(nil)
