// Package authstate keeps the client's view of who is signed in: the
// session, the auth user and their profile. Every change produces a new
// Snapshot that is pushed to subscribers.
package authstate

import (
	"context"
	"errors"
	"strings"
	"sync"

	"backend-discoverudupi/internal/auth"
	"backend-discoverudupi/internal/notify"
	"backend-discoverudupi/internal/profile"

	"go.uber.org/zap"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrClosed           = errors.New("auth state closed")
)

// Backend is the remote auth and profile API. Calls made after SetSession
// are authenticated with that session.
type Backend interface {
	SetSession(s *auth.Session)
	SignIn(ctx context.Context, email, password string) (auth.Session, error)
	SignUp(ctx context.Context, req auth.SignUpRequest) (auth.SignUpResponse, error)
	SignOut(ctx context.Context) error
	OAuthURL(ctx context.Context, provider, next string) (string, error)
	CurrentUser(ctx context.Context) (auth.User, error)
	GetProfile(ctx context.Context, userID string) (profile.Profile, error)
	CreateProfile(ctx context.Context, p profile.NewProfile) (profile.Profile, error)
	UpdateProfile(ctx context.Context, u profile.Update) (profile.Profile, error)
}

type Snapshot struct {
	User            *auth.User
	Profile         *profile.Profile
	Session         *auth.Session
	Loading         bool
	Initialized     bool
	IsAuthenticated bool
}

// Event is an auth state change. A nil Session keeps the current one, except
// for SIGNED_OUT which always clears it.
type Event struct {
	Type    auth.EventType
	Session *auth.Session
}

type Facade struct {
	backend  Backend
	notifier notify.Notifier
	log      *zap.Logger

	mu          sync.Mutex
	open        bool
	closed      bool
	session     *auth.Session
	user        *auth.User
	profile     *profile.Profile
	loading     bool
	initialized bool
	gen         uint64
	subs        map[int]func(Snapshot)
	nextSub     int
}

func New(backend Backend, n notify.Notifier, log *zap.Logger) *Facade {
	if log == nil {
		log = zap.NewNop()
	}
	return &Facade{
		backend:  backend,
		notifier: n,
		log:      log,
		loading:  true,
		subs:     map[int]func(Snapshot){},
	}
}

// Open starts the façade with a previously stored session (nil when there
// is none) and loads the profile behind it.
func (f *Facade) Open(ctx context.Context, session *auth.Session) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	f.open = true
	f.mu.Unlock()

	if session == nil {
		f.mu.Lock()
		f.loading = false
		f.initialized = true
		snap := f.snapshotLocked()
		f.mu.Unlock()
		f.broadcast(snap)
		return nil
	}
	f.apply(ctx, Event{Type: auth.EventSignedIn, Session: session}, false)
	return nil
}

// Close detaches the façade. Events and in-flight results arriving later are
// dropped and subscribers are released.
func (f *Facade) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.gen++
	f.subs = map[int]func(Snapshot){}
}

// Subscribe registers fn for every future snapshot and returns a function
// that unregisters it.
func (f *Facade) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *Facade) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// HandleEvent recomputes the state for ev. It is ignored before Open and
// after Close.
func (f *Facade) HandleEvent(ctx context.Context, ev Event) {
	f.mu.Lock()
	ready := f.open && !f.closed
	f.mu.Unlock()
	if !ready {
		return
	}
	f.apply(ctx, ev, true)
}

// Watch feeds events pushed by the backend for the signed-in user into
// HandleEvent until the channel closes or ctx is done.
func (f *Facade) Watch(ctx context.Context, events <-chan auth.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			f.mu.Lock()
			mine := f.user != nil && f.user.ID == ev.UserID
			f.mu.Unlock()
			if mine {
				f.HandleEvent(ctx, Event{Type: ev.Type})
			}
		}
	}
}

func (f *Facade) apply(ctx context.Context, ev Event, toast bool) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.gen++
	gen := f.gen
	session := f.session
	user := f.user
	switch {
	case ev.Type == auth.EventSignedOut:
		session, user = nil, nil
	case ev.Session != nil:
		session = ev.Session
		u := ev.Session.User
		user = &u
	}
	f.backend.SetSession(session)
	f.mu.Unlock()

	var prof *profile.Profile
	if user != nil {
		if ev.Type == auth.EventUserUpdated && ev.Session == nil {
			if u, err := f.backend.CurrentUser(ctx); err != nil {
				f.log.Warn("refresh user failed", zap.String("user_id", user.ID), zap.Error(err))
			} else {
				user = &u
			}
		}
		prof = f.fetchProfile(ctx, *user)
	}

	f.mu.Lock()
	if f.closed || gen != f.gen {
		f.mu.Unlock()
		return
	}
	f.backend.SetSession(session)
	f.session = session
	f.user = user
	f.profile = prof
	f.loading = false
	f.initialized = true
	snap := f.snapshotLocked()
	f.mu.Unlock()

	if toast {
		switch {
		case user != nil && ev.Type == auth.EventSignedIn:
			notify.Success(f.notifier, "Welcome back!")
		case user == nil && ev.Type == auth.EventSignedOut:
			notify.Success(f.notifier, "Signed out successfully")
		}
	}
	f.broadcast(snap)
}

// fetchProfile returns the user's profile, creating it from the auth user's
// metadata when none exists yet. Failures leave the profile empty.
func (f *Facade) fetchProfile(ctx context.Context, user auth.User) *profile.Profile {
	p, err := f.backend.GetProfile(ctx, user.ID)
	if err == nil {
		return &p
	}
	if !errors.Is(err, profile.ErrNotFound) {
		f.log.Error("fetch profile failed", zap.String("user_id", user.ID), zap.Error(err))
		return nil
	}
	p, err = f.backend.CreateProfile(ctx, profile.NewProfile{FullName: user.FullName, AvatarURL: user.AvatarURL})
	if err != nil {
		f.log.Error("create profile failed", zap.String("user_id", user.ID), zap.Error(err))
		return nil
	}
	return &p
}

func (f *Facade) SignIn(ctx context.Context, email, password string) (auth.Session, error) {
	f.setLoading(true)
	session, err := f.backend.SignIn(ctx, email, password)
	if err != nil {
		f.setLoading(false)
		notify.Error(f.notifier, errorText(err))
		return auth.Session{}, err
	}
	f.apply(ctx, Event{Type: auth.EventSignedIn, Session: &session}, true)
	return session, nil
}

// SignUp registers a new account. When the backend requires email
// confirmation no session is returned and the user is told to check their
// inbox.
func (f *Facade) SignUp(ctx context.Context, email, password, fullName string) (auth.SignUpResponse, error) {
	f.setLoading(true)
	resp, err := f.backend.SignUp(ctx, auth.SignUpRequest{Email: email, Password: password, FullName: fullName})
	if err != nil {
		f.setLoading(false)
		notify.Error(f.notifier, errorText(err))
		return auth.SignUpResponse{}, err
	}
	if resp.Session == nil {
		f.setLoading(false)
		notify.Success(f.notifier, "Check your email to confirm your account!")
		return resp, nil
	}
	f.apply(ctx, Event{Type: auth.EventSignedIn, Session: resp.Session}, true)
	return resp, nil
}

func (f *Facade) SignOut(ctx context.Context) error {
	if err := f.backend.SignOut(ctx); err != nil {
		notify.Error(f.notifier, errorText(err))
		return err
	}
	f.apply(ctx, Event{Type: auth.EventSignedOut}, true)
	return nil
}

// OAuthURL returns the provider page the user must visit to sign in. next is
// where the site sends them afterwards.
func (f *Facade) OAuthURL(ctx context.Context, provider, next string) (string, error) {
	u, err := f.backend.OAuthURL(ctx, provider, next)
	if err != nil {
		notify.Error(f.notifier, "Failed to sign in with "+providerTitle(provider))
		return "", err
	}
	return u, nil
}

func (f *Facade) UpdateProfile(ctx context.Context, u profile.Update) error {
	f.mu.Lock()
	signedIn := f.user != nil
	f.mu.Unlock()
	if !signedIn {
		return ErrNotAuthenticated
	}

	updated, err := f.backend.UpdateProfile(ctx, u)
	if err != nil {
		notify.Error(f.notifier, "Failed to update profile")
		return err
	}

	f.mu.Lock()
	if f.closed || f.user == nil {
		f.mu.Unlock()
		return nil
	}
	f.profile = &updated
	snap := f.snapshotLocked()
	f.mu.Unlock()

	notify.Success(f.notifier, "Profile updated successfully")
	f.broadcast(snap)
	return nil
}

func (f *Facade) setLoading(v bool) {
	f.mu.Lock()
	if f.closed || f.loading == v {
		f.mu.Unlock()
		return
	}
	f.loading = v
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.broadcast(snap)
}

func (f *Facade) snapshotLocked() Snapshot {
	s := Snapshot{Loading: f.loading, Initialized: f.initialized, IsAuthenticated: f.user != nil}
	if f.user != nil {
		u := *f.user
		s.User = &u
	}
	if f.profile != nil {
		p := *f.profile
		s.Profile = &p
	}
	if f.session != nil {
		sess := *f.session
		s.Session = &sess
	}
	return s
}

func (f *Facade) broadcast(s Snapshot) {
	f.mu.Lock()
	fns := make([]func(Snapshot), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

func errorText(err error) string {
	msg := err.Error()
	if msg == "" {
		return "An unexpected error occurred"
	}
	return msg
}

func providerTitle(p string) string {
	if p == "" {
		return p
	}
	return strings.ToUpper(p[:1]) + p[1:]
}
