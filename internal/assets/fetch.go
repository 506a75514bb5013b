// Package assets loads collection indexes, manifests, meshes and environment
// maps from disk or over HTTP.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when an asset does not exist at its URL.
	ErrNotFound = errors.New("asset not found")
	// ErrUnsupportedFormat is returned for files no decoder handles.
	ErrUnsupportedFormat = errors.New("unsupported asset format")
)

// Fetcher reads raw asset bytes. Plain paths and file:// URLs are read from
// Root, http(s) URLs through Client.
type Fetcher struct {
	Root   string
	Client *http.Client
}

func NewFetcher(root string, timeout time.Duration) *Fetcher {
	return &Fetcher{Root: root, Client: &http.Client{Timeout: timeout}}
}

// Fetch returns the bytes at rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("empty url: %w", ErrNotFound)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", rawURL, err)
	}
	switch u.Scheme {
	case "http", "https":
		return f.fetchHTTP(ctx, rawURL)
	case "", "file":
		return f.readFile(ctx, u.Path)
	default:
		return nil, fmt.Errorf("scheme %q: %w", u.Scheme, ErrUnsupportedFormat)
	}
}

func (f *Fetcher) readFile(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Site-absolute paths ("/assets/...") resolve under Root first.
	full := filepath.FromSlash(p)
	candidates := []string{full}
	if f.Root != "" {
		candidates = []string{filepath.Join(f.Root, full)}
		if filepath.IsAbs(full) {
			candidates = append(candidates, full)
		}
	}
	var data []byte
	var err error
	for _, c := range candidates {
		if data, err = os.ReadFile(c); !errors.Is(err, fs.ErrNotExist) {
			break
		}
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return data, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", rawURL, ErrNotFound)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("get %s: status %d", rawURL, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	return data, nil
}

// Resolve returns ref relative to the asset at base, the way a browser
// resolves links inside a fetched document.
func Resolve(base, ref string) string {
	if ref == "" {
		return base
	}
	r, err := url.Parse(ref)
	if err == nil && (r.IsAbs() || strings.HasPrefix(ref, "/")) {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	if b.Scheme == "http" || b.Scheme == "https" {
		return b.ResolveReference(r).String()
	}
	return path.Join(path.Dir(b.Path), ref)
}

// extension returns the lower-case extension of rawURL without query or fragment.
func extension(rawURL string) string {
	p := rawURL
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return strings.ToLower(path.Ext(p))
}
