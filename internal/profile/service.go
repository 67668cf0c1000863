package profile

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"backend-discoverudupi/internal/db"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const cacheTTL = 10 * time.Minute

// Service reads and writes profile rows. Reads go through a redis cache when
// one is configured; concurrent reads of the same id share one query.
type Service struct {
	db    db.Querier
	redis *redis.Client
	log   *zap.Logger
	group singleflight.Group
}

func NewService(db db.Querier, redisClient *redis.Client, log *zap.Logger) *Service {
	return &Service{db: db, redis: redisClient, log: log}
}

const profileColumns = `id, COALESCE(username,''), COALESCE(full_name,''), COALESCE(avatar_url,''),
		       COALESCE(bio,''), is_verified, is_local_guide, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.Username, &p.FullName, &p.AvatarURL, &p.Bio,
		&p.IsVerified, &p.IsLocalGuide, &p.CreatedAt, &p.UpdatedAt)
	if db.IsNoRows(err) {
		return Profile{}, ErrNotFound
	}
	return p, err
}

func (s *Service) Get(ctx context.Context, id string) (Profile, error) {
	if p, ok := s.cached(ctx, id); ok {
		return p, nil
	}
	v, err, _ := s.group.Do(id, func() (any, error) {
		p, err := scanProfile(s.db.QueryRow(ctx, `
			SELECT `+profileColumns+`
			FROM profiles
			WHERE id=$1
		`, id))
		if err != nil {
			return Profile{}, err
		}
		s.store(ctx, p)
		return p, nil
	})
	if err != nil {
		return Profile{}, err
	}
	return v.(Profile), nil
}

func (s *Service) Create(ctx context.Context, id string, in NewProfile) (Profile, error) {
	p, err := scanProfile(s.db.QueryRow(ctx, `
		INSERT INTO profiles (id, username, full_name, avatar_url)
		VALUES ($1, NULLIF($2,''), NULLIF($3,''), NULLIF($4,''))
		RETURNING `+profileColumns+`
	`, id, in.Username, in.FullName, in.AvatarURL))
	if db.IsUniqueViolation(err) {
		return Profile{}, ErrAlreadyExists
	}
	if err != nil {
		return Profile{}, err
	}
	s.store(ctx, p)
	return p, nil
}

func (s *Service) Update(ctx context.Context, id string, u Update) (Profile, error) {
	if u.Empty() {
		return s.Get(ctx, id)
	}
	p, err := scanProfile(s.db.QueryRow(ctx, `
		UPDATE profiles
		SET username=COALESCE($2, username),
		    full_name=COALESCE($3, full_name),
		    bio=COALESCE($4, bio),
		    avatar_url=COALESCE($5, avatar_url),
		    updated_at=now()
		WHERE id=$1
		RETURNING `+profileColumns+`
	`, id, u.Username, u.FullName, u.Bio, u.AvatarURL))
	if err != nil {
		return Profile{}, err
	}
	s.store(ctx, p)
	return p, nil
}

func cacheKey(id string) string {
	return "profile:" + id
}

func (s *Service) cached(ctx context.Context, id string) (Profile, bool) {
	if s.redis == nil {
		return Profile{}, false
	}
	raw, err := s.redis.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("profile cache read failed", zap.String("user_id", id), zap.Error(err))
		}
		return Profile{}, false
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		s.log.Warn("profile cache entry corrupt", zap.String("user_id", id), zap.Error(err))
		return Profile{}, false
	}
	return p, true
}

func (s *Service) store(ctx context.Context, p Profile) {
	if s.redis == nil {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, cacheKey(p.ID), raw, cacheTTL).Err(); err != nil {
		s.log.Warn("profile cache write failed", zap.String("user_id", p.ID), zap.Error(err))
	}
}
