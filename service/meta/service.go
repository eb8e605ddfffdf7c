// Package meta loads YAML resources (configuration, fixtures) from any afs
// URL, expanding ${env.KEY} expressions before decoding.
package meta

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"gopkg.in/yaml.v3"
)

// Service reads resources relative to baseURL.
type Service struct {
	fs      afs.Service
	baseURL string
	options []storage.Option
}

// URL resolves location against the base URL; absolute URLs are kept.
func (s *Service) URL(location string) string {
	if s.baseURL == "" || !url.IsRelative(location) {
		return url.Normalize(location, file.Scheme)
	}
	return url.Join(s.baseURL, location)
}

// Download returns the resource content with environment expressions expanded.
func (s *Service) Download(ctx context.Context, location string) ([]byte, error) {
	URL := s.URL(location)
	data, err := s.fs.DownloadWithURL(ctx, URL, s.options...)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", URL, err)
	}
	if !strings.Contains(string(data), envPrefix) {
		return data, nil
	}
	return []byte(ExpandEnv(string(data))), nil
}

// Load decodes the YAML resource at location into target.
func (s *Service) Load(ctx context.Context, location string, target interface{}) error {
	data, err := s.Download(ctx, location)
	if err != nil {
		return err
	}
	if err = yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to decode %s: %w", s.URL(location), err)
	}
	return nil
}

// New creates a meta service; options are passed to every download
// (for example an embed.FS for embed:// URLs).
func New(fs afs.Service, baseURL string, options ...storage.Option) *Service {
	if fs == nil {
		fs = afs.New()
	}
	return &Service{fs: fs, baseURL: baseURL, options: options}
}
