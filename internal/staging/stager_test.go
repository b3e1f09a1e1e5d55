package staging

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/vietddude/moviesync/internal/core/domain"
	"github.com/vietddude/moviesync/internal/infra/storage/memory"
)

func TestStager_RoundTripConsumesOnce(t *testing.T) {
	for _, class := range domain.RequestClasses {
		t.Run(string(class), func(t *testing.T) {
			s := NewStager(memory.NewMemoryStorage())
			ctx := context.Background()
			x := json.RawMessage(`[{"imdbID":"tt0372784","Title":"Batman Begins"}]`)

			if err := s.Stage(ctx, class, x); err != nil {
				t.Fatalf("Stage failed: %v", err)
			}

			got, found, err := s.Consume(ctx, class)
			if err != nil || !found {
				t.Fatalf("Consume: found=%v err=%v", found, err)
			}
			if string(got) != string(x) {
				t.Errorf("Consume = %s, want %s", got, x)
			}

			got, found, err = s.Consume(ctx, class)
			if err != nil {
				t.Fatalf("second Consume failed: %v", err)
			}
			if found || got != nil {
				t.Errorf("second Consume should be empty, got %s", got)
			}
		})
	}
}

func TestStager_LastResultWins(t *testing.T) {
	s := NewStager(memory.NewMemoryStorage())
	ctx := context.Background()

	_ = s.Stage(ctx, domain.ClassSearch, json.RawMessage(`["first"]`))
	_ = s.Stage(ctx, domain.ClassSearch, json.RawMessage(`["second"]`))

	got, _, _ := s.Consume(ctx, domain.ClassSearch)
	if string(got) != `["second"]` {
		t.Errorf("expected last staged value, got %s", got)
	}
}

func TestStager_SlotsAreIndependent(t *testing.T) {
	store := memory.NewMemoryStorage()
	s := NewStager(store)
	ctx := context.Background()

	_ = s.Stage(ctx, domain.ClassDetails, json.RawMessage(`{"Title":"Batman Begins"}`))

	if _, found, _ := s.Consume(ctx, domain.ClassSearch); found {
		t.Error("search slot should be empty")
	}
	if _, found, _ := s.Peek(ctx, domain.ClassDetails); !found {
		t.Error("Peek should see the details slot")
	}
	if _, found, _ := s.Peek(ctx, domain.ClassDetails); !found {
		t.Error("Peek must not clear the slot")
	}
	if _, err := store.Get(ctx, domain.SlotNextLaunchDetails); err != nil {
		t.Errorf("details should be stored under %s: %v", domain.SlotNextLaunchDetails, err)
	}
}

func TestStager_RejectsInvalidInput(t *testing.T) {
	s := NewStager(memory.NewMemoryStorage())
	ctx := context.Background()

	if err := s.Stage(ctx, "ratings", json.RawMessage(`[]`)); err == nil {
		t.Error("expected error for unknown class")
	}
	if err := s.Stage(ctx, domain.ClassSearch, json.RawMessage(`{not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
