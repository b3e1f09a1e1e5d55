// Package app is the foreground of moviesync: it searches through the
// mediator, shows the personal list, and picks up results staged by
// background retries.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vietddude/moviesync/internal/core/domain"
	"github.com/vietddude/moviesync/internal/mylist"
)

// MinQueryLength is the shortest query that is sent to the mediator.
// Shorter input shows the personal list instead.
const MinQueryLength = 3

// ViewSource says where the movies of a View came from.
type ViewSource string

const (
	SourceStaged  ViewSource = "staged"
	SourceSearch  ViewSource = "search"
	SourceMyList  ViewSource = "my-list"
	SourceDetails ViewSource = "details"
)

// StagedConsumer reads and clears staged background results.
type StagedConsumer interface {
	Consume(ctx context.Context, class domain.RequestClass) (json.RawMessage, bool, error)
}

// View is what the foreground shows.
type View struct {
	Source  ViewSource
	Query   string
	Movies  []domain.Movie
	Details *domain.Movie
	Offline bool
	Message string
	// OnList holds the imdb ids of listed movies that are on the personal list.
	OnList map[string]bool
}

// App ties the foreground together.
type App struct {
	source MovieSource
	staged StagedConsumer
	list   *mylist.List
	log    *slog.Logger
}

// New creates the foreground app.
func New(source MovieSource, staged StagedConsumer, list *mylist.List, log *slog.Logger) *App {
	if log == nil {
		log = slog.Default()
	}
	return &App{source: source, staged: staged, list: list, log: log}
}

// List returns the personal list.
func (a *App) List() *mylist.List {
	return a.list
}

// Launch builds the first view: staged search results when a background retry
// produced some, otherwise the personal list. Staged details are attached to
// the view. Both slots are consumed before anything else can fail, and a read
// error on one slot never discards what the other held.
func (a *App) Launch(ctx context.Context) (*View, error) {
	view, searchErr := a.stagedSearch(ctx)
	if searchErr != nil {
		a.log.Warn("Staged search results unavailable", "error", searchErr)
	}
	details, err := a.stagedDetails(ctx)
	if err != nil {
		a.log.Warn("Staged details unavailable", "error", err)
	}

	if view == nil {
		if view, err = a.MyList(ctx); err != nil {
			if details == nil {
				return nil, err
			}
			a.log.Warn("Showing staged details without my list", "error", err)
			view = &View{Source: SourceMyList}
		}
	}
	view.Details = details
	return view, nil
}

func (a *App) stagedSearch(ctx context.Context) (*View, error) {
	data, found, err := a.staged.Consume(ctx, domain.ClassSearch)
	if err != nil {
		return nil, fmt.Errorf("read staged search results: %w", err)
	}
	if !found {
		return nil, nil
	}

	var movies []domain.Movie
	if err := json.Unmarshal(data, &movies); err != nil {
		a.log.Warn("Discarding unreadable staged search results", "error", err)
		return nil, nil
	}
	view := &View{Source: SourceStaged, Movies: movies}
	a.markListed(ctx, view)
	return view, nil
}

func (a *App) stagedDetails(ctx context.Context) (*domain.Movie, error) {
	data, found, err := a.staged.Consume(ctx, domain.ClassDetails)
	if err != nil {
		return nil, fmt.Errorf("read staged details: %w", err)
	}
	if !found {
		return nil, nil
	}

	var movie domain.Movie
	if err := json.Unmarshal(data, &movie); err != nil || movie.ImdbID == "" {
		a.log.Warn("Discarding unreadable staged details", "error", err)
		return nil, nil
	}
	return &movie, nil
}

// MyList shows the personal list.
func (a *App) MyList(ctx context.Context) (*View, error) {
	movies, err := a.list.List(ctx)
	if err != nil {
		return nil, err
	}
	onList := make(map[string]bool, len(movies))
	for _, m := range movies {
		onList[m.ImdbID] = true
	}
	return &View{Source: SourceMyList, Movies: movies, OnList: onList}, nil
}

// Search runs query through the mediator. Queries shorter than
// MinQueryLength show the personal list.
func (a *App) Search(ctx context.Context, query string) (*View, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLength {
		return a.MyList(ctx)
	}

	res, err := a.source.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	view := &View{
		Source:  SourceSearch,
		Query:   query,
		Movies:  res.Movies,
		Offline: res.Offline,
		Message: res.Message,
	}
	a.markListed(ctx, view)
	return view, nil
}

// Details fetches the full record of id.
func (a *App) Details(ctx context.Context, id string) (*View, error) {
	movie, offline, err := a.source.Details(ctx, id)
	if err != nil {
		return nil, err
	}
	view := &View{Source: SourceDetails, Details: movie, Offline: offline}
	if offline {
		view.Message = "You are offline. The details will be fetched when you are back online."
	}
	return view, nil
}

// Toggle adds id to the personal list or removes it. It reports whether the
// movie is on the list afterwards.
func (a *App) Toggle(ctx context.Context, id string) (bool, error) {
	return a.list.Toggle(ctx, id)
}

func (a *App) markListed(ctx context.Context, view *View) {
	view.OnList = make(map[string]bool)
	for _, m := range view.Movies {
		if has, err := a.list.Has(ctx, m.ImdbID); err == nil && has {
			view.OnList[m.ImdbID] = true
		}
	}
}
