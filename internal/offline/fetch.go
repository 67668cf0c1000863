package offline

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Fetcher retrieves an asset from the origin. It fails only when the origin
// cannot be reached; error statuses are returned as entries.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (Entry, error)
}

// HTTPFetcher fetches from an origin server.
type HTTPFetcher struct {
	origin string
	client *http.Client
}

func NewHTTPFetcher(origin string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{origin: strings.TrimRight(origin, "/"), client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, p string) (Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.origin+p, nil)
	if err != nil {
		return Entry{}, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Entry{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Status: resp.StatusCode, ContentType: resp.Header.Get("Content-Type"), Body: body}, nil
}

// DirFetcher serves files from a local directory. "/" maps to index.html.
type DirFetcher struct {
	root string
}

func NewDirFetcher(root string) *DirFetcher {
	return &DirFetcher{root: root}
}

func (f *DirFetcher) Fetch(_ context.Context, p string) (Entry, error) {
	clean := path.Clean("/" + p)
	if strings.HasSuffix(clean, "/") {
		clean += "index.html"
	}
	file := filepath.Join(f.root, filepath.FromSlash(clean))
	body, err := os.ReadFile(file)
	if os.IsNotExist(err) {
		return Entry{Status: http.StatusNotFound, ContentType: "text/plain; charset=utf-8", Body: []byte("not found")}, nil
	}
	if err != nil {
		return Entry{}, fmt.Errorf("read %s: %w", clean, err)
	}
	ct := mime.TypeByExtension(filepath.Ext(file))
	if ct == "" {
		ct = http.DetectContentType(body)
	}
	return Entry{Status: http.StatusOK, ContentType: ct, Body: body}, nil
}
