package review

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"backend-discoverudupi/internal/notify"

	"github.com/google/uuid"
)

// Backend is the remote side of a Board.
type Backend interface {
	ListReviews(ctx context.Context, locationID int) ([]Review, error)
	SubmitReview(ctx context.Context, s Submission) (Review, error)
}

type Author struct {
	UserID string
	Name   string
	Avatar string
}

// Identity reports who is signed in; ok is false when nobody is.
type Identity interface {
	Author() (a Author, ok bool)
}

type IdentityFunc func() (Author, bool)

func (f IdentityFunc) Author() (Author, bool) { return f() }

type EntryState int

const (
	Pending EntryState = iota
	Confirmed
)

func (s EntryState) String() string {
	if s == Pending {
		return "pending"
	}
	return "confirmed"
}

// Entry is a review as the board shows it. A Pending entry is known only by
// LocalID; a Confirmed entry carries the server id in Review.ID.
type Entry struct {
	Review
	State   EntryState
	LocalID string
}

func (e Entry) Key() string {
	if e.State == Pending {
		return e.LocalID
	}
	return e.ID
}

type Vote int

const (
	VoteNone Vote = 0
	VoteUp   Vote = 1
	VoteDown Vote = -1
)

// Board holds the reviews of one location on the client.
type Board struct {
	locationID int
	backend    Backend
	identity   Identity
	notifier   notify.Notifier
	newID      func() string
	now        func() time.Time

	mu      sync.Mutex
	entries []Entry
	votes   map[string]Vote
	gen     uint64
}

func NewBoard(locationID int, backend Backend, identity Identity, n notify.Notifier) *Board {
	return &Board{
		locationID: locationID,
		backend:    backend,
		identity:   identity,
		notifier:   n,
		newID:      uuid.NewString,
		now:        time.Now,
		votes:      map[string]Vote{},
	}
}

// Load replaces the confirmed entries with the server's list. Entries still
// pending stay at the front. Only the most recently started Load is applied;
// older ones return ErrSuperseded.
func (b *Board) Load(ctx context.Context) error {
	b.mu.Lock()
	b.gen++
	gen := b.gen
	b.mu.Unlock()

	rs, err := b.backend.ListReviews(ctx, b.locationID)

	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen {
		return ErrSuperseded
	}
	if err != nil {
		notify.Error(b.notifier, "Failed to load reviews")
		return fmt.Errorf("load reviews: %w", err)
	}
	next := make([]Entry, 0, len(rs)+len(b.entries))
	for _, e := range b.entries {
		if e.State == Pending {
			next = append(next, e)
		}
	}
	for _, r := range rs {
		next = append(next, Entry{Review: r, State: Confirmed})
	}
	b.entries = next
	return nil
}

// Entries returns the board contents with local helpful votes applied.
func (b *Board) Entries() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Entry, len(b.entries))
	for i, e := range b.entries {
		e.HelpfulCount += int(b.votes[e.Key()])
		out[i] = e
	}
	return out
}

func (b *Board) Reviews() []Review {
	entries := b.Entries()
	out := make([]Review, len(entries))
	for i, e := range entries {
		out[i] = e.Review
	}
	return out
}

func (b *Board) Stats() Stats {
	return Summarize(b.Reviews())
}

func (b *Board) View(order SortOrder, rating int) []Review {
	return Arrange(b.Reviews(), order, rating)
}

// Submit validates s, shows it immediately as a pending entry and then
// replaces it with the server's record. Invalid input and signed-out users
// are rejected before the backend is called.
func (b *Board) Submit(ctx context.Context, s Submission) (Entry, error) {
	author, ok := b.identity.Author()
	if !ok {
		notify.Error(b.notifier, toastText(ErrNotAuthenticated))
		return Entry{}, ErrNotAuthenticated
	}
	if err := s.Validate(); err != nil {
		notify.Error(b.notifier, toastText(err))
		return Entry{}, err
	}
	s.LocationID = b.locationID

	pending := Entry{
		State:   Pending,
		LocalID: b.newID(),
		Review: Review{
			LocationID: b.locationID,
			UserID:     author.UserID,
			UserName:   author.Name,
			UserAvatar: author.Avatar,
			Rating:     s.Rating,
			Title:      s.Title,
			Comment:    s.Comment,
			Images:     s.Images,
			CreatedAt:  b.now(),
			VisitDate:  s.VisitDate,
		},
	}
	b.mu.Lock()
	b.entries = append([]Entry{pending}, b.entries...)
	b.mu.Unlock()

	saved, err := b.backend.SubmitReview(ctx, s)

	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOf(pending.LocalID)
	if err != nil {
		if i >= 0 {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
		}
		delete(b.votes, pending.LocalID)
		notify.Error(b.notifier, "Failed to submit review")
		return Entry{}, fmt.Errorf("submit review: %w", err)
	}

	if saved.UserName == "" {
		saved.UserName = pending.UserName
	}
	if saved.UserAvatar == "" {
		saved.UserAvatar = pending.UserAvatar
	}
	confirmed := Entry{Review: saved, State: Confirmed}
	if v, ok := b.votes[pending.LocalID]; ok {
		delete(b.votes, pending.LocalID)
		b.votes[saved.ID] = v
	}
	switch j := b.indexOf(saved.ID); {
	case j >= 0:
		// A Load finished while the submit was in flight and already lists
		// the saved review.
		b.entries[j] = confirmed
		if i >= 0 {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
		}
	case i >= 0:
		b.entries[i] = confirmed
	default:
		b.entries = append([]Entry{confirmed}, b.entries...)
	}
	notify.Success(b.notifier, "Review submitted successfully!")
	return confirmed, nil
}

// Vote records a helpful vote on this client only. Repeating a vote undoes
// it. It returns the helpful count as now displayed.
func (b *Board) Vote(key string, v Vote) (int, error) {
	if v != VoteUp && v != VoteDown {
		return 0, errors.New("vote must be up or down")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOf(key)
	if i < 0 {
		return 0, ErrUnknownReview
	}
	if b.votes[key] == v {
		delete(b.votes, key)
	} else {
		b.votes[key] = v
	}
	return b.entries[i].HelpfulCount + int(b.votes[key]), nil
}

func (b *Board) indexOf(key string) int {
	for i, e := range b.entries {
		if e.Key() == key {
			return i
		}
	}
	return -1
}

func toastText(err error) string {
	s := err.Error()
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
