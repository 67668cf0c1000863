package client

import (
	"context"
	"net/http"
	"net/url"

	"backend-discoverudupi/internal/auth"
	"backend-discoverudupi/internal/profile"
)

func (c *Client) SignIn(ctx context.Context, email, password string) (auth.Session, error) {
	var s auth.Session
	err := c.do(ctx, http.MethodPost, "/auth/login", auth.LoginRequest{Email: email, Password: password}, &s)
	return s, err
}

func (c *Client) SignUp(ctx context.Context, req auth.SignUpRequest) (auth.SignUpResponse, error) {
	var resp auth.SignUpResponse
	err := c.do(ctx, http.MethodPost, "/auth/signup", req, &resp)
	return resp, err
}

// SignOut revokes the session on the server. A client without a session is
// already signed out.
func (c *Client) SignOut(ctx context.Context) error {
	if c.accessToken() == "" {
		return nil
	}
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (c *Client) Refresh(ctx context.Context) (auth.Session, error) {
	cur := c.Session()
	if cur == nil {
		return auth.Session{}, auth.ErrTokenInvalid
	}
	var s auth.Session
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", auth.RefreshRequest{RefreshToken: cur.RefreshToken}, &s); err != nil {
		return auth.Session{}, err
	}
	c.SetSession(&s)
	return s, nil
}

func (c *Client) OAuthURL(ctx context.Context, provider, next string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	q := url.Values{}
	if next != "" {
		q.Set("next", next)
	}
	err := c.do(ctx, http.MethodGet, withQuery("/auth/oauth/"+url.PathEscape(provider), q), nil, &out)
	return out.URL, err
}

func (c *Client) CurrentUser(ctx context.Context) (auth.User, error) {
	var u auth.User
	err := c.do(ctx, http.MethodGet, "/auth/user", nil, &u)
	return u, err
}

// GetProfile returns profile.ErrNotFound when the user has none yet.
func (c *Client) GetProfile(ctx context.Context, userID string) (profile.Profile, error) {
	var p profile.Profile
	err := c.do(ctx, http.MethodGet, "/profiles/"+url.PathEscape(userID), nil, &p)
	if StatusOf(err) == http.StatusNotFound {
		return profile.Profile{}, profile.ErrNotFound
	}
	return p, err
}

func (c *Client) CreateProfile(ctx context.Context, np profile.NewProfile) (profile.Profile, error) {
	var p profile.Profile
	err := c.do(ctx, http.MethodPost, "/profiles", np, &p)
	if StatusOf(err) == http.StatusConflict {
		return profile.Profile{}, profile.ErrAlreadyExists
	}
	return p, err
}

func (c *Client) UpdateProfile(ctx context.Context, u profile.Update) (profile.Profile, error) {
	var p profile.Profile
	err := c.do(ctx, http.MethodPatch, "/profiles/me", u, &p)
	return p, err
}
