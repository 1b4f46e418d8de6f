// Package hub resolves the resource files of the augmenters (word lists, dictionaries, embedding
// tables and tokenizer models) to local paths, optionally downloading missing files from a
// remote base URL.
//
// Downloads are atomic and coordinated across processes with a lock file, so several servers can
// share the same resource directory.
//
// Example:
//
//	store := hub.New("./data").WithBaseURL("https://example.com/vnaug/")
//	path, err := store.Path(ctx, "vietnamese-stopwords.txt")
package hub

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Default permissions of created directories.
const DefaultDirCreationPerm = 0755

// ErrNotFound is returned when a resource is not available locally and can't be downloaded.
var ErrNotFound = errors.New("resource not found")

// Store resolves resource names to files.
type Store struct {
	// Dir is the local directory holding the resources.
	Dir string

	baseURL       string
	authToken     string
	forceDownload bool
	client        *http.Client
}

// New creates a Store over the local directory dir.
func New(dir string) *Store {
	return &Store{Dir: dir, client: http.DefaultClient}
}

// WithBaseURL sets the URL missing resources are downloaded from: a resource name is resolved
// relative to it. It returns itself.
func (s *Store) WithBaseURL(baseURL string) *Store {
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	s.baseURL = baseURL
	return s
}

// WithAuth sets a bearer token sent with downloads. It returns itself.
func (s *Store) WithAuth(token string) *Store {
	s.authToken = token
	return s
}

// WithForceDownload makes Path download resources even if they exist locally. It returns itself.
func (s *Store) WithForceDownload(force bool) *Store {
	s.forceDownload = force
	return s
}

// WithHTTPClient sets the HTTP client used for downloads. It returns itself.
func (s *Store) WithHTTPClient(client *http.Client) *Store {
	s.client = client
	return s
}

// Path returns the local path of the resource name, downloading it first if it is missing and a
// base URL is configured. Absolute names are used as-is.
func (s *Store) Path(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", errors.Wrap(ErrNotFound, "empty resource name")
	}
	if filepath.IsAbs(name) {
		if !exists(name) {
			return "", errors.Wrapf(ErrNotFound, "%q", name)
		}
		return name, nil
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("resource name %q escapes the store directory", name)
	}
	localPath := filepath.Join(s.Dir, clean)
	if s.baseURL == "" {
		if !exists(localPath) {
			return "", errors.Wrapf(ErrNotFound, "%q not in %q and no download URL configured", name, s.Dir)
		}
		return localPath, nil
	}
	remote, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	if err := s.lockedDownload(ctx, remote, localPath, s.forceDownload); err != nil {
		return "", err
	}
	return localPath, nil
}

// Optional returns the local path of the resource name, or "" if name is empty or the resource is not
// available. Other errors are returned.
func (s *Store) Optional(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	p, err := s.Path(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return p, err
}

func (s *Store) resolve(name string) (string, error) {
	base, err := url.Parse(s.baseURL)
	if err != nil {
		return "", errors.Wrapf(err, "invalid base URL %q", s.baseURL)
	}
	ref, err := url.Parse(filepath.ToSlash(name))
	if err != nil {
		return "", errors.Wrapf(err, "invalid resource name %q", name)
	}
	return base.ResolveReference(ref).String(), nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
