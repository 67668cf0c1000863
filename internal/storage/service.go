// Package storage uploads user images (review photos, avatars) and records
// each upload in storage_objects.
package storage

import (
	"context"
	"fmt"
	"io"

	"backend-discoverudupi/internal/db"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	db       db.Querier
	uploader Uploader
	log      *zap.Logger
}

func NewService(db db.Querier, up Uploader, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, uploader: up, log: log}
}

// Upload stores file for userID under kind and returns the public object.
func (s *Service) Upload(ctx context.Context, userID, kind string, file io.Reader) (Object, error) {
	if kind != KindReviewImage && kind != KindAvatar {
		return Object{}, ErrUnknownKind
	}
	id := uuid.NewString()
	url, err := s.uploader.UploadImage(ctx, file, uploadFolder+"/"+kind, id)
	if err != nil {
		s.log.Error("image upload failed", zap.String("user_id", userID), zap.Error(err))
		return Object{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if err := s.SaveObject(ctx, id, userID, url, kind); err != nil {
		return Object{}, err
	}
	return Object{ID: id, URL: url, Kind: kind}, nil
}

func (s *Service) SaveObject(ctx context.Context, id, userID, url, kind string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO storage_objects (id, user_id, url, kind)
		VALUES ($1,$2,$3,$4)
	`, id, userID, url, kind)
	return err
}
