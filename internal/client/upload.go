package client

import (
	"bytes"
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"backend-discoverudupi/internal/storage"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// UploadImage sends an image to the storage endpoint and returns the stored
// object; its URL can go into a review submission.
func (c *Client) UploadImage(ctx context.Context, filename, kind string, r io.Reader) (storage.Object, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if kind != "" {
		if err := w.WriteField("kind", kind); err != nil {
			return storage.Object{}, err
		}
	}
	ct := mime.TypeByExtension(filepath.Ext(filename))
	if ct == "" {
		ct = "application/octet-stream"
	}
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+quoteEscaper.Replace(filepath.Base(filename))+`"`)
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return storage.Object{}, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return storage.Object{}, err
	}
	if err := w.Close(); err != nil {
		return storage.Object{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/storage/upload", &buf)
	if err != nil {
		return storage.Object{}, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	var obj storage.Object
	err = c.send(req, &obj)
	return obj, err
}
