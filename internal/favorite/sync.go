package favorite

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"backend-discoverudupi/internal/notify"
)

// Store is the remote favorites collection of the signed-in user.
type Store interface {
	ListFavorites(ctx context.Context) ([]Favorite, error)
	AddFavorite(ctx context.Context, locationID int) error
	RemoveFavorite(ctx context.Context, locationID int) error
}

// Synchronizer keeps the client's favorite set in step with the Store.
// The local set only changes after the remote write succeeds.
type Synchronizer struct {
	store    Store
	notifier notify.Notifier

	mu     sync.Mutex
	userID string
	ids    map[int]struct{}
	gen    uint64
}

func NewSynchronizer(store Store, n notify.Notifier) *Synchronizer {
	return &Synchronizer{store: store, notifier: n, ids: map[int]struct{}{}}
}

// SetUser switches the owner of the set. An empty userID clears it; any
// other value loads that user's favorites.
func (s *Synchronizer) SetUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	s.userID = userID
	s.ids = map[int]struct{}{}
	s.gen++
	s.mu.Unlock()
	if userID == "" {
		return nil
	}
	return s.Load(ctx)
}

// Load fetches the full set. A Load started before a newer Load, Toggle or
// SetUser is discarded with ErrSuperseded.
func (s *Synchronizer) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.userID == "" {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	favs, err := s.store.ListFavorites(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return ErrSuperseded
	}
	if err != nil {
		notify.Error(s.notifier, "Failed to load favorites")
		return fmt.Errorf("load favorites: %w", err)
	}
	ids := make(map[int]struct{}, len(favs))
	for _, f := range favs {
		ids[f.LocationID] = struct{}{}
	}
	s.ids = ids
	return nil
}

// Toggle flips locationID and reports whether it is now a favorite.
func (s *Synchronizer) Toggle(ctx context.Context, locationID int) (bool, error) {
	s.mu.Lock()
	userID := s.userID
	_, was := s.ids[locationID]
	s.mu.Unlock()

	if userID == "" {
		notify.Info(s.notifier, "Please sign in to save favorites")
		return false, ErrNotAuthenticated
	}

	var err error
	if was {
		err = s.store.RemoveFavorite(ctx, locationID)
	} else {
		err = s.store.AddFavorite(ctx, locationID)
	}
	if err != nil {
		notify.Error(s.notifier, "Failed to update favorites")
		return was, fmt.Errorf("toggle favorite %d: %w", locationID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID != userID {
		return was, ErrSuperseded
	}
	s.gen++
	if was {
		delete(s.ids, locationID)
		notify.Success(s.notifier, "Removed from favorites")
	} else {
		s.ids[locationID] = struct{}{}
		notify.Success(s.notifier, "Added to favorites")
	}
	return !was, nil
}

func (s *Synchronizer) IsFavorite(locationID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[locationID]
	return ok
}

// IDs returns the favorite location ids in ascending order.
func (s *Synchronizer) IDs() []int {
	s.mu.Lock()
	out := make([]int, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	s.mu.Unlock()
	sort.Ints(out)
	return out
}
