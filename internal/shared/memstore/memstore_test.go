package memstore

import (
	"testing"

	"github.com/google/uuid"
)

type record struct {
	Name string
	Tags []string
}

func cloneRecord(r record) record {
	r.Tags = append([]string(nil), r.Tags...)
	return r
}

func TestStoreClonesValues(t *testing.T) {
	s := New(cloneRecord)
	id := uuid.New()
	s.Put(id, record{Name: "a", Tags: []string{"x"}})

	got, ok := s.Get(id)
	if !ok {
		t.Fatal("expected record")
	}
	got.Tags[0] = "mutated"

	again, _ := s.Get(id)
	if again.Tags[0] != "x" {
		t.Fatalf("store leaked a shared slice: %v", again.Tags)
	}
}

func TestStoreFilterKeepsInsertionOrder(t *testing.T) {
	s := New[record](nil)
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for i, id := range ids {
		s.Put(id, record{Name: string(rune('a' + i))})
	}
	s.Delete(ids[1])

	got := s.Filter(nil)
	if len(got) != 2 || got[0].Name != "a" || got[1].Name != "c" {
		t.Fatalf("unexpected order %+v", got)
	}
	if s.Replace(ids[1], record{}) {
		t.Fatal("replace of deleted id should fail")
	}
}
