// Package mylist keeps the user's personal movie list in the durable store,
// one record per movie under "movie:<imdbID>".
package mylist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/vietddude/moviesync/internal/core/domain"
	"github.com/vietddude/moviesync/internal/infra/storage"
)

const keyPrefix = "movie:"

var (
	// ErrInvalidID is returned for an empty imdb id.
	ErrInvalidID = errors.New("invalid imdb id")

	// ErrDetailsUnavailable is returned when a movie cannot be added because
	// its details could not be fetched live.
	ErrDetailsUnavailable = errors.New("movie details unavailable")
)

// DetailsSource fetches full movie records.
type DetailsSource interface {
	// Details returns the record for id. offline is true when the answer
	// is the offline placeholder rather than a movie.
	Details(ctx context.Context, id string) (movie *domain.Movie, offline bool, err error)
}

// List is the personal movie list.
type List struct {
	store   storage.KeyValueStore
	details DetailsSource
	log     *slog.Logger
}

// New creates a list over store. details may be nil for read-only use.
func New(store storage.KeyValueStore, details DetailsSource, log *slog.Logger) *List {
	if log == nil {
		log = slog.Default()
	}
	return &List{store: store, details: details, log: log}
}

func key(id string) string {
	return keyPrefix + id
}

func normalize(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrInvalidID
	}
	return id, nil
}

// Get returns the stored movie for id.
func (l *List) Get(ctx context.Context, id string) (*domain.Movie, bool, error) {
	id, err := normalize(id)
	if err != nil {
		return nil, false, err
	}
	var movie domain.Movie
	found, err := storage.GetJSON(ctx, l.store, key(id), &movie)
	if err != nil || !found {
		return nil, false, err
	}
	return &movie, true, nil
}

// Has reports whether id is on the list.
func (l *List) Has(ctx context.Context, id string) (bool, error) {
	_, found, err := l.Get(ctx, id)
	return found, err
}

// Add fetches the details of id and stores them. Adding a movie already on
// the list refreshes its record.
func (l *List) Add(ctx context.Context, id string) (*domain.Movie, error) {
	id, err := normalize(id)
	if err != nil {
		return nil, err
	}
	if l.details == nil {
		return nil, fmt.Errorf("%w: no details source", ErrDetailsUnavailable)
	}

	movie, offline, err := l.details.Details(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetailsUnavailable, err)
	}
	if offline || movie == nil || movie.ImdbID == "" {
		return nil, ErrDetailsUnavailable
	}

	if err := storage.SetJSON(ctx, l.store, key(id), movie); err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", id, err)
	}
	l.log.Debug("Movie added to list", "id", id, "title", movie.Title)
	return movie, nil
}

// Remove deletes id from the list.
func (l *List) Remove(ctx context.Context, id string) error {
	id, err := normalize(id)
	if err != nil {
		return err
	}
	if err := l.store.Delete(ctx, key(id)); err != nil {
		return fmt.Errorf("failed to remove %s: %w", id, err)
	}
	return nil
}

// Toggle adds id when absent and removes it when present. It reports
// whether the movie is on the list afterwards.
func (l *List) Toggle(ctx context.Context, id string) (bool, error) {
	stored, err := l.Has(ctx, id)
	if err != nil {
		return false, err
	}
	if stored {
		return false, l.Remove(ctx, id)
	}
	if _, err := l.Add(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// List returns every stored movie ordered by imdb id.
func (l *List) List(ctx context.Context) ([]domain.Movie, error) {
	keys, err := l.store.Keys(ctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	movies := make([]domain.Movie, 0, len(keys))
	for _, k := range keys {
		var movie domain.Movie
		found, err := storage.GetJSON(ctx, l.store, k, &movie)
		if err != nil {
			l.log.Warn("Skipping unreadable list entry", "key", k, "error", err)
			continue
		}
		if found {
			movies = append(movies, movie)
		}
	}
	sort.Slice(movies, func(i, j int) bool { return movies[i].ImdbID < movies[j].ImdbID })
	return movies, nil
}
