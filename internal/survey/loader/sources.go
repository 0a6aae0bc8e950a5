package loader

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	commonhttp "survey-forms/internal/common/http"
)

//go:embed bundled/*.json
var bundledFS embed.FS

// Source is one backing store of form definitions.
type Source interface {
	Name() string
	Load(ctx context.Context, fileName string) (interface{}, error)
}

// ErrNotConfigured is returned by a source that has no backing store.
var ErrNotConfigured = errors.New("not configured")

// ErrNotFound is returned when a source has no document for the file name.
var ErrNotFound = errors.New("not found")

func decodeJSON(data []byte) (interface{}, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return doc, nil
}

// ObjectGetter reads whole objects from a bucket.
type ObjectGetter interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// BlobSource reads <prefix><fileName> from the remote blob store.
type BlobSource struct {
	store  ObjectGetter
	prefix string
}

// NewBlobSource returns a source that is skipped when store is nil.
func NewBlobSource(store ObjectGetter, prefix string) *BlobSource {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &BlobSource{store: store, prefix: prefix}
}

func (s *BlobSource) Name() string { return "blob" }

func (s *BlobSource) Load(ctx context.Context, fileName string) (interface{}, error) {
	if s.store == nil {
		return nil, ErrNotConfigured
	}
	data, err := s.store.GetObject(ctx, s.prefix+fileName)
	if err != nil {
		return nil, err
	}
	return decodeJSON(data)
}

// APISource calls the form builder read endpoint.
type APISource struct {
	http    *commonhttp.Client
	baseURL string
}

func NewAPISource(client *commonhttp.Client, baseURL string) *APISource {
	return &APISource{http: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *APISource) Name() string { return "api" }

// ReadJSONResponse is the body of /api/form-builder/read-json.
type ReadJSONResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func (s *APISource) Load(ctx context.Context, fileName string) (interface{}, error) {
	if s.baseURL == "" {
		return nil, ErrNotConfigured
	}
	endpoint := s.baseURL + "/api/form-builder/read-json?fileName=" + url.QueryEscape(fileName)

	var resp ReadJSONResponse
	if err := s.http.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		if resp.Message != "" {
			return nil, fmt.Errorf("no data: %s", resp.Message)
		}
		return nil, errors.New("no data in response")
	}
	return resp.Data, nil
}

// PublicSource reads /data/<fileName> from the public site, or from a local
// directory when no base URL is set.
type PublicSource struct {
	http    *commonhttp.Client
	baseURL string
	dir     string
}

func NewPublicSource(client *commonhttp.Client, baseURL, dir string) *PublicSource {
	return &PublicSource{http: client, baseURL: strings.TrimRight(baseURL, "/"), dir: dir}
}

func (s *PublicSource) Name() string { return "public" }

func (s *PublicSource) Load(ctx context.Context, fileName string) (interface{}, error) {
	if s.baseURL != "" {
		data, err := s.http.Get(ctx, s.baseURL+"/data/"+url.PathEscape(fileName))
		if err != nil {
			return nil, err
		}
		return decodeJSON(data)
	}
	if s.dir == "" {
		return nil, ErrNotConfigured
	}
	data, err := ReadPublicFile(s.dir, fileName)
	if err != nil {
		return nil, err
	}
	return decodeJSON(data)
}

// ReadPublicFile reads fileName from dir. Directory components of fileName
// are ignored so callers cannot escape dir.
func ReadPublicFile(dir, fileName string) ([]byte, error) {
	base := filepath.Base(filepath.Clean("/" + fileName))
	if base == "/" || base == "." {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(filepath.Join(dir, base))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, base)
	}
	return data, err
}

// BundledSource serves the definitions compiled into the binary, matched by
// base name.
type BundledSource struct {
	fsys fs.FS
}

// NewBundledSource uses the embedded bundled/*.json files when fsys is nil.
func NewBundledSource(fsys fs.FS) *BundledSource {
	if fsys == nil {
		fsys = bundledFS
	}
	return &BundledSource{fsys: fsys}
}

func (s *BundledSource) Name() string { return "bundled" }

func (s *BundledSource) Load(ctx context.Context, fileName string) (interface{}, error) {
	data, err := ReadBundled(s.fsys, fileName)
	if err != nil {
		return nil, err
	}
	return decodeJSON(data)
}

// ReadBundled returns the bundled file whose base name equals the base name
// of fileName. An exact match beats a case-insensitive one.
func ReadBundled(fsys fs.FS, fileName string) ([]byte, error) {
	want := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	matches, err := fs.Glob(fsys, "bundled/*.json")
	if err != nil {
		return nil, err
	}

	var fold string
	for _, m := range matches {
		base := path.Base(m)
		if base == want {
			return fs.ReadFile(fsys, m)
		}
		if fold == "" && strings.EqualFold(base, want) {
			fold = m
		}
	}
	if fold != "" {
		return fs.ReadFile(fsys, fold)
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, want)
}

// BundledNames lists the base names of the bundled definitions.
func BundledNames(fsys fs.FS) []string {
	if fsys == nil {
		fsys = bundledFS
	}
	matches, _ := fs.Glob(fsys, "bundled/*.json")
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, path.Base(m))
	}
	return names
}
