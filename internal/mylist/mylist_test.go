package mylist

import (
	"context"
	"errors"
	"testing"

	"github.com/vietddude/moviesync/internal/core/domain"
	"github.com/vietddude/moviesync/internal/infra/storage/memory"
)

type mockDetails struct {
	movies  map[string]domain.Movie
	offline bool
	err     error
	calls   int
}

func (m *mockDetails) Details(ctx context.Context, id string) (*domain.Movie, bool, error) {
	m.calls++
	if m.err != nil {
		return nil, false, m.err
	}
	if m.offline {
		return nil, true, nil
	}
	movie, ok := m.movies[id]
	if !ok {
		return &domain.Movie{}, false, nil
	}
	return &movie, false, nil
}

func newList() (*List, *mockDetails, *memory.MemoryStorage) {
	store := memory.NewMemoryStorage()
	details := &mockDetails{movies: map[string]domain.Movie{
		"tt0372784": {ImdbID: "tt0372784", Title: "Batman Begins", Year: "2005"},
		"tt0468569": {ImdbID: "tt0468569", Title: "The Dark Knight", Year: "2008"},
	}}
	return New(store, details, nil), details, store
}

func TestAddAndList(t *testing.T) {
	l, _, store := newList()
	ctx := context.Background()

	for _, id := range []string{"tt0468569", "tt0372784"} {
		if _, err := l.Add(ctx, id); err != nil {
			t.Fatalf("Add(%s): %v", id, err)
		}
	}

	// Unrelated store keys must not show up in the list.
	_ = store.Set(ctx, domain.SlotNextLaunchSearch, []byte(`[]`))

	movies, err := l.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(movies) != 2 || movies[0].ImdbID != "tt0372784" || movies[1].ImdbID != "tt0468569" {
		t.Errorf("movies = %+v", movies)
	}
}

func TestToggle(t *testing.T) {
	l, details, _ := newList()
	ctx := context.Background()

	on, err := l.Toggle(ctx, "tt0372784")
	if err != nil || !on {
		t.Fatalf("first Toggle = %v, %v; want added", on, err)
	}
	on, err = l.Toggle(ctx, "tt0372784")
	if err != nil || on {
		t.Fatalf("second Toggle = %v, %v; want removed", on, err)
	}
	if details.calls != 1 {
		t.Errorf("details fetched %d times, want 1", details.calls)
	}
	if has, _ := l.Has(ctx, "tt0372784"); has {
		t.Error("movie still on list after toggle off")
	}
}

func TestAdd_RefusesOfflinePlaceholder(t *testing.T) {
	l, details, _ := newList()
	details.offline = true

	if _, err := l.Add(context.Background(), "tt0372784"); !errors.Is(err, ErrDetailsUnavailable) {
		t.Fatalf("err = %v, want ErrDetailsUnavailable", err)
	}
	if has, _ := l.Has(context.Background(), "tt0372784"); has {
		t.Error("offline placeholder stored as a movie")
	}
}

func TestAdd_Errors(t *testing.T) {
	l, details, _ := newList()
	ctx := context.Background()

	if _, err := l.Add(ctx, " "); !errors.Is(err, ErrInvalidID) {
		t.Errorf("err = %v, want ErrInvalidID", err)
	}
	if _, err := l.Add(ctx, "tt9999999"); !errors.Is(err, ErrDetailsUnavailable) {
		t.Errorf("unknown movie err = %v", err)
	}

	details.err = errors.New("mediator unreachable")
	if _, err := l.Add(ctx, "tt0372784"); !errors.Is(err, ErrDetailsUnavailable) {
		t.Errorf("err = %v, want ErrDetailsUnavailable", err)
	}

	readOnly := New(memory.NewMemoryStorage(), nil, nil)
	if _, err := readOnly.Add(ctx, "tt0372784"); !errors.Is(err, ErrDetailsUnavailable) {
		t.Errorf("read-only err = %v", err)
	}
}

func TestRemove_MissingIsNotError(t *testing.T) {
	l, _, _ := newList()
	if err := l.Remove(context.Background(), "tt0000001"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
}
