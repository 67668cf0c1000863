package storage

import (
	"context"
	"errors"
	"io"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// Uploader puts a file somewhere public and returns its URL.
type Uploader interface {
	UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (string, error)
}

const imageEager = "q_auto,f_auto,w_800,c_fill"

type CloudinaryUploader struct {
	api *uploader.API
}

func NewCloudinaryUploader(cloudName, apiKey, apiSecret string) (*CloudinaryUploader, error) {
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	api, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	return &CloudinaryUploader{api: api}, nil
}

func (u *CloudinaryUploader) UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (string, error) {
	result, err := u.api.Upload(ctx, file, uploader.UploadParams{
		Folder:   folder,
		PublicID: publicID,
		Eager:    imageEager,
	})
	if err != nil {
		return "", err
	}
	if result.Error.Message != "" {
		return "", errors.New(result.Error.Message)
	}
	return result.SecureURL, nil
}
