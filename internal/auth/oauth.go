package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Identity is what an OAuth provider tells us about the user.
type Identity struct {
	Subject string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	Identify(ctx context.Context, code string) (Identity, error)
}

// OAuthProvider is an authorization-code provider with a JSON userinfo endpoint.
type OAuthProvider struct {
	name        string
	config      *oauth2.Config
	userInfoURL string
}

func NewOAuthProvider(name string, config *oauth2.Config, userInfoURL string) *OAuthProvider {
	return &OAuthProvider{name: name, config: config, userInfoURL: userInfoURL}
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string) *OAuthProvider {
	return NewOAuthProvider(ProviderGoogle, &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		Endpoint:     google.Endpoint,
	}, googleUserInfoURL)
}

func (p *OAuthProvider) Name() string { return p.name }

func (p *OAuthProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (p *OAuthProvider) Identify(ctx context.Context, code string) (Identity, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("exchange code: %w", err)
	}
	resp, err := p.config.Client(ctx, tok).Get(p.userInfoURL)
	if err != nil {
		return Identity{}, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("fetch user info: status %d", resp.StatusCode)
	}
	var id Identity
	if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
		return Identity{}, fmt.Errorf("decode user info: %w", err)
	}
	if id.Email == "" {
		return Identity{}, errors.New("provider returned no email")
	}
	return id, nil
}

// AuthorizeURL starts an OAuth sign-in. next is carried through the signed
// state and used by the callback as the post-login destination.
func (s *Service) AuthorizeURL(provider, next string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", ErrUnsupportedProvider
	}
	state, err := signTokenFn(s, Claims{
		Purpose:  purposeState,
		Provider: provider,
		Next:     next,
	}, stateTokenTTL)
	if err != nil {
		return "", err
	}
	return p.AuthCodeURL(state), nil
}

// ParseState returns the provider and destination encoded by AuthorizeURL.
func (s *Service) ParseState(state string) (provider, next string, err error) {
	claims, err := s.parseToken(state, purposeState)
	if err != nil {
		return "", "", err
	}
	return claims.Provider, claims.Next, nil
}

// ExchangeCode trades an authorization code for a session, creating the user
// on first sign-in.
func (s *Service) ExchangeCode(ctx context.Context, provider, code string) (*Session, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, ErrUnsupportedProvider
	}
	id, err := p.Identify(ctx, code)
	if err != nil {
		return nil, err
	}

	user, err := scanUser(s.db.QueryRow(ctx, `
		INSERT INTO users (id, email, full_name, avatar_url, provider, email_confirmed_at)
		VALUES ($1,$2,NULLIF($3,''),NULLIF($4,''),$5, now())
		ON CONFLICT (email) DO UPDATE
		SET full_name = COALESCE(users.full_name, EXCLUDED.full_name),
		    avatar_url = COALESCE(users.avatar_url, EXCLUDED.avatar_url),
		    email_confirmed_at = COALESCE(users.email_confirmed_at, now()),
		    updated_at = now()
		RETURNING `+userColumns+`
	`, uuid.NewString(), strings.ToLower(id.Email), id.Name, id.Picture, provider))
	if err != nil {
		return nil, err
	}

	session, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.log.Info("oauth sign-in", zap.String("user_id", user.ID), zap.String("provider", provider))
	s.publish(ctx, user.ID, EventSignedIn)
	return &session, nil
}
