package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"backend-discoverudupi/internal/db"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
	confirmTokenTTL = 24 * time.Hour
	stateTokenTTL   = 10 * time.Minute
	minPasswordLen  = 6
)

const (
	purposeAccess  = "access"
	purposeRefresh = "refresh"
	purposeConfirm = "confirm"
	purposeState   = "oauth_state"
)

type Service struct {
	secret              []byte
	db                  db.Querier
	log                 *zap.Logger
	mailer              Mailer
	events              Publisher
	requireConfirmation bool
	confirmURL          string
	providers           map[string]Provider
}

type Claims struct {
	UserID   string `json:"user_id"`
	Purpose  string `json:"purpose,omitempty"`
	Provider string `json:"provider,omitempty"`
	Next     string `json:"next,omitempty"`
	jwt.RegisteredClaims
}

type Option func(*Service)

func WithLogger(log *zap.Logger) Option {
	return func(s *Service) { s.log = log }
}

func WithEvents(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithEmailConfirmation makes sign-up withhold the session until the link
// mailed to the user (confirmURL?token=...) is opened.
func WithEmailConfirmation(m Mailer, confirmURL string) Option {
	return func(s *Service) {
		s.mailer = m
		s.confirmURL = confirmURL
		s.requireConfirmation = true
	}
}

func WithProvider(p Provider) Option {
	return func(s *Service) { s.providers[p.Name()] = p }
}

func NewService(secret string, db db.Querier, opts ...Option) *Service {
	s := &Service{
		secret:    []byte(secret),
		db:        db,
		log:       zap.NewNop(),
		providers: map[string]Provider{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	signTokenFn       = (*Service).signToken
	hashPasswordFn    = bcrypt.GenerateFromPassword
	parseWithClaimsFn = jwt.ParseWithClaims
)

const userColumns = `id, email, COALESCE(password_hash,''), COALESCE(full_name,''), COALESCE(avatar_url,''),
		       provider, email_confirmed_at IS NOT NULL, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.AvatarURL,
		&u.Provider, &u.EmailConfirmed, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (SignUpResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return SignUpResponse{}, ErrMissingFields
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return SignUpResponse{}, fmt.Errorf("invalid email: %w", err)
	}
	if len(req.Password) < minPasswordLen {
		return SignUpResponse{}, ErrWeakPassword
	}
	hash, err := hashPasswordFn([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return SignUpResponse{}, err
	}

	user, err := scanUser(s.db.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash, full_name, provider, email_confirmed_at)
		VALUES ($1,$2,$3,NULLIF($4,''),$5, CASE WHEN $6 THEN now() END)
		RETURNING `+userColumns+`
	`, uuid.NewString(), email, string(hash), req.FullName, ProviderEmail, !s.requireConfirmation))
	if db.IsUniqueViolation(err) {
		return SignUpResponse{}, ErrEmailTaken
	}
	if err != nil {
		return SignUpResponse{}, err
	}

	if s.requireConfirmation {
		if err := s.sendConfirmation(user); err != nil {
			return SignUpResponse{}, err
		}
		return SignUpResponse{User: user, ConfirmationRequired: true}, nil
	}

	session, err := s.issueSession(ctx, user)
	if err != nil {
		return SignUpResponse{}, err
	}
	s.publish(ctx, user.ID, EventSignedIn)
	return SignUpResponse{User: user, Session: &session}, nil
}

func (s *Service) sendConfirmation(user User) error {
	token, err := signTokenFn(s, Claims{UserID: user.ID, Purpose: purposeConfirm}, confirmTokenTTL)
	if err != nil {
		return err
	}
	link := s.confirmURL + "?token=" + url.QueryEscape(token)
	if err := s.mailer.SendConfirmation(user.Email, user.FullName, link); err != nil {
		s.log.Error("confirmation mail failed", zap.String("user_id", user.ID), zap.Error(err))
		return fmt.Errorf("send confirmation: %w", err)
	}
	return nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (Session, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return Session{}, ErrMissingFields
	}
	user, err := scanUser(s.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE email = $1
	`, email))
	if db.IsNoRows(err) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if user.PasswordHash == "" {
		return Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	if s.requireConfirmation && !user.EmailConfirmed {
		return Session{}, ErrEmailNotConfirmed
	}

	session, err := s.issueSession(ctx, user)
	if err != nil {
		return Session{}, err
	}
	s.publish(ctx, user.ID, EventSignedIn)
	return session, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued. Revocation and the validity check are one statement, so a
// token can be exchanged at most once.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	claims, err := s.parseToken(refreshToken, purposeRefresh)
	if err != nil {
		return Session{}, err
	}
	var userID string
	err = s.db.QueryRow(ctx, `
		UPDATE refresh_tokens SET revoked_at = now()
		WHERE token = $1 AND revoked_at IS NULL AND expires_at > now()
		RETURNING user_id
	`, refreshToken).Scan(&userID)
	if db.IsNoRows(err) || (err == nil && userID != claims.UserID) {
		return Session{}, ErrTokenInvalid
	}
	if err != nil {
		return Session{}, err
	}
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	session, err := s.issueSession(ctx, user)
	if err != nil {
		return Session{}, err
	}
	s.publish(ctx, userID, EventTokenRefreshed)
	return session, nil
}

// Logout revokes every refresh token of userID.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if _, err := s.db.Exec(ctx, `
		UPDATE refresh_tokens SET revoked_at = now()
		WHERE user_id = $1 AND revoked_at IS NULL
	`, userID); err != nil {
		return err
	}
	s.publish(ctx, userID, EventSignedOut)
	return nil
}

func (s *Service) GetUser(ctx context.Context, userID string) (User, error) {
	user, err := scanUser(s.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE id = $1
	`, userID))
	if db.IsNoRows(err) {
		return User{}, ErrUserNotFound
	}
	return user, err
}

// ConfirmEmail marks the address behind a mailed token as confirmed and
// signs the user in.
func (s *Service) ConfirmEmail(ctx context.Context, token string) (Session, error) {
	claims, err := s.parseToken(token, purposeConfirm)
	if err != nil {
		return Session{}, err
	}
	user, err := scanUser(s.db.QueryRow(ctx, `
		UPDATE users SET email_confirmed_at = COALESCE(email_confirmed_at, now()), updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns+`
	`, claims.UserID))
	if db.IsNoRows(err) {
		return Session{}, ErrUserNotFound
	}
	if err != nil {
		return Session{}, err
	}
	session, err := s.issueSession(ctx, user)
	if err != nil {
		return Session{}, err
	}
	s.publish(ctx, user.ID, EventUserUpdated)
	return session, nil
}

func (s *Service) issueSession(ctx context.Context, user User) (Session, error) {
	session, err := s.GenerateTokens(ctx, user.ID)
	if err != nil {
		return Session{}, err
	}
	session.User = user
	return session, nil
}

// GenerateTokens issues an access/refresh pair and stores the refresh token.
func (s *Service) GenerateTokens(ctx context.Context, userID string) (Session, error) {
	access, err := signTokenFn(s, Claims{UserID: userID, Purpose: purposeAccess}, accessTokenTTL)
	if err != nil {
		return Session{}, err
	}
	refresh, err := signTokenFn(s, Claims{UserID: userID, Purpose: purposeRefresh, RegisteredClaims: jwt.RegisteredClaims{ID: uuid.NewString()}}, refreshTokenTTL)
	if err != nil {
		return Session{}, err
	}
	if err := s.saveRefreshToken(ctx, refresh, userID, refreshTokenTTL); err != nil {
		return Session{}, err
	}
	return Session{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(accessTokenTTL.Seconds()),
		ExpiresAt:    time.Now().Add(accessTokenTTL).Unix(),
	}, nil
}

func (s *Service) ValidateRefreshToken(ctx context.Context, token string) (string, error) {
	claims, err := s.parseToken(token, purposeRefresh)
	if err != nil {
		return "", err
	}
	userID, expiresAt, err := s.lookupRefreshToken(ctx, token)
	if err != nil || userID != claims.UserID || time.Now().After(expiresAt) {
		return "", errors.New("refresh token invalid")
	}
	return claims.UserID, nil
}

func (s *Service) ValidateAccessToken(token string) (string, error) {
	claims, err := s.parseToken(token, purposeAccess)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func (s *Service) signToken(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	claims.IssuedAt = jwt.NewNumericDate(now)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) parseToken(token, purpose string) (*Claims, error) {
	parsed, err := parseWithClaimsFn(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Purpose != purpose {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (s *Service) saveRefreshToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at)
		VALUES ($1,$2,$3,$4)
	`, uuid.NewString(), userID, token, time.Now().Add(ttl))
	return err
}

func (s *Service) lookupRefreshToken(ctx context.Context, token string) (string, time.Time, error) {
	row := s.db.QueryRow(ctx, `
		SELECT user_id, expires_at
		FROM refresh_tokens
		WHERE token = $1 AND revoked_at IS NULL
	`, token)
	var userID string
	var expiresAt time.Time
	if err := row.Scan(&userID, &expiresAt); err != nil {
		return "", time.Time{}, err
	}
	return userID, expiresAt, nil
}

func (s *Service) publish(ctx context.Context, userID string, t EventType) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, userID, Event{Type: t, UserID: userID, At: time.Now()}); err != nil {
		s.log.Warn("auth event publish failed", zap.String("user_id", userID), zap.String("event", string(t)), zap.Error(err))
	}
}
