package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/guaranty/service/dao"
	"github.com/viant/guaranty/service/dao/criteria"
	"go.uber.org/zap"
)

// Store implements a filesystem-based JSON entity storage on any afs URL.
type Store[T any] struct {
	basePath    string
	fs          afs.Service
	keySelector func(*T) string
	fields      func(*T) criteria.Fields
	logger      *zap.Logger
	mu          sync.RWMutex
}

// Option customises a Store.
type Option[T any] func(*Store[T])

// WithFields sets the attribute accessor used by List filters.
func WithFields[T any](fields func(*T) criteria.Fields) Option[T] {
	return func(s *Store[T]) {
		s.fields = fields
	}
}

// WithLogger sets the logger used to report unreadable files on List.
func WithLogger[T any](logger *zap.Logger) Option[T] {
	return func(s *Store[T]) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFS overrides the afs service.
func WithFS[T any](fs afs.Service) Option[T] {
	return func(s *Store[T]) {
		s.fs = fs
	}
}

// Save persists an entity as <basePath>/<id>.json
func (s *Store[T]) Save(ctx context.Context, entity *T) error {
	if entity == nil {
		return dao.ErrNilEntity
	}
	id := s.keySelector(entity)
	if id == "" {
		return dao.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", id, err)
	}
	filePath := s.entityPath(id)
	if err = s.fs.Upload(ctx, filePath, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save %s: %w", filePath, err)
	}
	return nil
}

// Load retrieves an entity from the filesystem
func (s *Store[T]) Load(ctx context.Context, id string) (*T, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	filePath := s.entityPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to check if %s exists: %w", filePath, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", dao.ErrNotFound, id)
	}
	data, err := s.fs.DownloadWithURL(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	var entity T
	if err := json.Unmarshal(data, &entity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", filePath, err)
	}
	return &entity, nil
}

// Delete removes an entity file
func (s *Store[T]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := s.entityPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return fmt.Errorf("failed to check if %s exists: %w", filePath, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", dao.ErrNotFound, id)
	}
	if err := s.fs.Delete(ctx, filePath); err != nil {
		return fmt.Errorf("failed to delete %s: %w", filePath, err)
	}
	return nil
}

// List returns all entities matching parameters
func (s *Store[T]) List(ctx context.Context, parameters ...*dao.Parameter) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, s.basePath, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.basePath, err)
	}

	var result []*T
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			s.logger.Warn("failed to read entity file", zap.String("url", object.URL()), zap.Error(err))
			continue
		}
		var entity T
		if err := json.Unmarshal(data, &entity); err != nil {
			s.logger.Warn("failed to unmarshal entity file", zap.String("url", object.URL()), zap.Error(err))
			continue
		}
		if s.fields != nil && !criteria.Match(s.fields(&entity), parameters) {
			continue
		}
		result = append(result, &entity)
	}
	return result, nil
}

func (s *Store[T]) entityPath(id string) string {
	return url.Join(s.basePath, id+".json")
}

// New creates a filesystem store rooted at basePath; the directory is
// created when missing.
func New[T any](basePath string, keySelector func(*T) string, options ...Option[T]) (*Store[T], error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	ret := &Store[T]{
		fs:          afs.New(),
		keySelector: keySelector,
		logger:      zap.NewNop(),
	}
	for _, opt := range options {
		opt(ret)
	}

	ctx := context.Background()
	basePath = url.Normalize(basePath, file.Scheme)
	exists, _ := ret.fs.Exists(ctx, basePath)
	if !exists {
		if err := ret.fs.Create(ctx, basePath, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", err)
		}
	}
	ret.basePath = basePath
	return ret, nil
}
