package storage

import "errors"

const (
	KindReviewImage = "review_image"
	KindAvatar      = "avatar"

	// MaxUploadBytes bounds a single image upload.
	MaxUploadBytes = 5 << 20
	uploadFolder   = "discover-udupi"
)

var (
	ErrMissingFile  = errors.New("file is required")
	ErrNotAnImage   = errors.New("only image uploads are allowed")
	ErrTooLarge     = errors.New("file exceeds 5 MB")
	ErrUnknownKind  = errors.New("unknown upload kind")
	ErrNotSignedIn  = errors.New("please sign in to upload images")
	ErrUploadFailed = errors.New("image upload failed")
)

// Object is a stored file as returned to clients.
type Object struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Kind string `json:"kind"`
}
