package review

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"backend-discoverudupi/internal/notify"
)

type fakeBackend struct {
	mu        sync.Mutex
	reviews   []Review
	listErr   error
	submitErr error
	submits   int
	release   chan struct{}
	listHook  func(call int) ([]Review, error)
	listCalls int
}

func (f *fakeBackend) ListReviews(ctx context.Context, locationID int) ([]Review, error) {
	f.mu.Lock()
	f.listCalls++
	call := f.listCalls
	hook := f.listHook
	f.mu.Unlock()
	if hook != nil {
		return hook(call)
	}
	return f.reviews, f.listErr
}

func (f *fakeBackend) SubmitReview(ctx context.Context, s Submission) (Review, error) {
	f.mu.Lock()
	f.submits++
	f.mu.Unlock()
	if f.release != nil {
		<-f.release
	}
	if f.submitErr != nil {
		return Review{}, f.submitErr
	}
	return Review{ID: "srv-1", LocationID: s.LocationID, UserID: "user-1", Rating: s.Rating, Comment: s.Comment, CreatedAt: time.Now()}, nil
}

func signedIn() Identity {
	return IdentityFunc(func() (Author, bool) { return Author{UserID: "user-1", Name: "Asha"}, true })
}

func signedOut() Identity {
	return IdentityFunc(func() (Author, bool) { return Author{}, false })
}

func TestBoardSubmitRejectsWithoutBackendCall(t *testing.T) {
	backend := &fakeBackend{}
	rec := &notify.Recorder{}

	b := NewBoard(1, backend, signedOut(), rec)
	if _, err := b.Submit(context.Background(), Submission{Rating: 5, Comment: "great"}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected not authenticated, got %v", err)
	}

	b = NewBoard(1, backend, signedIn(), rec)
	if _, err := b.Submit(context.Background(), Submission{Comment: "great"}); !errors.Is(err, ErrRatingRequired) {
		t.Fatalf("expected rating required, got %v", err)
	}
	if _, err := b.Submit(context.Background(), Submission{Rating: 4}); !errors.Is(err, ErrCommentRequired) {
		t.Fatalf("expected comment required, got %v", err)
	}
	if backend.submits != 0 {
		t.Fatalf("backend should not be called, got %d calls", backend.submits)
	}
	if len(rec.Messages()) != 3 || rec.Last().Level != notify.LevelError {
		t.Fatalf("expected three error notifications, got %+v", rec.Messages())
	}
	if rec.Messages()[0].Text != "Please sign in to write a review" {
		t.Fatalf("unexpected prompt %q", rec.Messages()[0].Text)
	}
}

func TestBoardSubmitPendingThenConfirmed(t *testing.T) {
	backend := &fakeBackend{
		reviews: []Review{{ID: "old", Rating: 3}},
		release: make(chan struct{}),
	}
	rec := &notify.Recorder{}
	b := NewBoard(1, backend, signedIn(), rec)
	b.newID = func() string { return "local-1" }
	if err := b.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	done := make(chan Entry)
	go func() {
		e, err := b.Submit(context.Background(), Submission{Rating: 5, Comment: "lovely"})
		if err != nil {
			t.Errorf("submit: %v", err)
		}
		done <- e
	}()

	deadline := time.Now().Add(time.Second)
	for {
		entries := b.Entries()
		if len(entries) == 2 {
			if entries[0].State != Pending || entries[0].Key() != "local-1" || entries[0].UserName != "Asha" {
				t.Fatalf("expected pending entry first, got %+v", entries[0])
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("pending entry never appeared")
		}
		time.Sleep(5 * time.Millisecond)
	}

	close(backend.release)
	e := <-done
	if e.State != Confirmed || e.ID != "srv-1" {
		t.Fatalf("unexpected confirmed entry %+v", e)
	}
	entries := b.Entries()
	if len(entries) != 2 || entries[0].Key() != "srv-1" || entries[0].UserName != "Asha" {
		t.Fatalf("pending entry not reconciled: %+v", entries)
	}
	if rec.Last().Level != notify.LevelSuccess {
		t.Fatalf("expected success notification")
	}
}

func TestBoardSubmitAfterConcurrentLoadKeepsOneEntry(t *testing.T) {
	backend := &fakeBackend{release: make(chan struct{})}
	backend.listHook = func(call int) ([]Review, error) {
		if call == 1 {
			return nil, nil
		}
		// The second load sees the review the in-flight submit created.
		return []Review{{ID: "srv-1", LocationID: 1, UserID: "user-1", Rating: 5, Comment: "lovely"}}, nil
	}
	rec := &notify.Recorder{}
	b := NewBoard(1, backend, signedIn(), rec)
	b.newID = func() string { return "local-1" }
	if err := b.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	done := make(chan error)
	go func() {
		_, err := b.Submit(context.Background(), Submission{Rating: 5, Comment: "lovely"})
		done <- err
	}()

	deadline := time.Now().Add(time.Second)
	for len(b.Entries()) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("pending entry never appeared")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := b.Load(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if entries := b.Entries(); len(entries) != 2 {
		t.Fatalf("expected pending plus loaded entry, got %+v", entries)
	}

	close(backend.release)
	if err := <-done; err != nil {
		t.Fatalf("submit: %v", err)
	}
	entries := b.Entries()
	if len(entries) != 1 || entries[0].Key() != "srv-1" || entries[0].State != Confirmed {
		t.Fatalf("expected a single confirmed entry, got %+v", entries)
	}
	if entries[0].UserName != "Asha" {
		t.Fatalf("expected author name carried over, got %q", entries[0].UserName)
	}
	if got := b.Stats().Total; got != 1 {
		t.Fatalf("expected one review in stats, got %d", got)
	}
}

func TestBoardSubmitFailureRemovesPending(t *testing.T) {
	backend := &fakeBackend{submitErr: errors.New("db down")}
	rec := &notify.Recorder{}
	b := NewBoard(1, backend, signedIn(), rec)

	if _, err := b.Submit(context.Background(), Submission{Rating: 2, Comment: "meh"}); err == nil {
		t.Fatalf("expected error")
	}
	if len(b.Entries()) != 0 {
		t.Fatalf("pending entry should be removed")
	}
	if rec.Last().Text != "Failed to submit review" {
		t.Fatalf("unexpected notification %+v", rec.Last())
	}
}

func TestBoardVoteIsLocal(t *testing.T) {
	backend := &fakeBackend{reviews: []Review{{ID: "r1", HelpfulCount: 5}}}
	b := NewBoard(1, backend, signedIn(), notify.Nop)
	if err := b.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	steps := []struct {
		vote Vote
		want int
	}{
		{VoteUp, 6},
		{VoteDown, 4},
		{VoteDown, 5},
		{VoteDown, 4},
		{VoteUp, 6},
		{VoteUp, 5},
	}
	for i, s := range steps {
		got, err := b.Vote("r1", s.vote)
		if err != nil || got != s.want {
			t.Fatalf("step %d: got %d, %v want %d", i, got, err, s.want)
		}
	}
	if _, err := b.Vote("missing", VoteUp); !errors.Is(err, ErrUnknownReview) {
		t.Fatalf("expected unknown review, got %v", err)
	}
	if _, err := b.Vote("r1", VoteNone); err == nil {
		t.Fatalf("expected error for empty vote")
	}
	if backend.reviews[0].HelpfulCount != 5 {
		t.Fatalf("vote must not touch backend data")
	}
}

func TestBoardLoadOnlyLatestApplies(t *testing.T) {
	first := make(chan struct{})
	backend := &fakeBackend{}
	backend.listHook = func(call int) ([]Review, error) {
		if call == 1 {
			<-first
			return []Review{{ID: "stale"}}, nil
		}
		return []Review{{ID: "fresh"}}, nil
	}
	b := NewBoard(1, backend, signedIn(), notify.Nop)

	errc := make(chan error)
	go func() { errc <- b.Load(context.Background()) }()

	for {
		backend.mu.Lock()
		n := backend.listCalls
		backend.mu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if err := b.Load(context.Background()); err != nil {
		t.Fatalf("second load: %v", err)
	}
	close(first)
	if err := <-errc; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected superseded, got %v", err)
	}
	entries := b.Entries()
	if len(entries) != 1 || entries[0].ID != "fresh" {
		t.Fatalf("stale load overwrote state: %+v", entries)
	}
}

func TestBoardStatsAndView(t *testing.T) {
	backend := &fakeBackend{reviews: []Review{{ID: "a", Rating: 4}, {ID: "b", Rating: 2}}}
	b := NewBoard(1, backend, signedIn(), notify.Nop)
	if err := b.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if st := b.Stats(); st.Average != 3 || st.Total != 2 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if v := b.View(SortRating, 2); len(v) != 1 || v[0].ID != "b" {
		t.Fatalf("unexpected view %+v", v)
	}
}
