// Package storage is the document storage collaborator. Document bytes live
// on any afs URL; the lifecycle only keeps the returned document id and
// category. Download links are short-lived JWTs signed with viant/scy.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	afsurl "github.com/viant/afs/url"
	"github.com/viant/scy/auth/jwt/signer"
	"github.com/viant/guaranty/fault"
	"github.com/viant/guaranty/internal/clock"
	"github.com/viant/guaranty/internal/idgen"
)

const metaFile = "meta.json"

// File is an uploaded document payload.
type File struct {
	Name string
	Data []byte
}

// Document describes a stored file.
type Document struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Category    string    `json:"category"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	Size        int       `json:"size"`
	URL         string    `json:"url"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// Storage is the capability the lifecycle consumes.
type Storage interface {
	PutDocument(ctx context.Context, ownerID, category string, file *File) (string, error)
	SignedDownloadURL(ctx context.Context, documentID string, ttl time.Duration) (string, error)
}

// Signer creates a signed token carrying claims, valid for ttl.
type Signer interface {
	Create(ttl time.Duration, content interface{}, options ...signer.TokenOption) (string, error)
}

// Service stores documents under baseURL/<documentID>/.
type Service struct {
	fs        afs.Service
	baseURL   string
	publicURL string
	signer    Signer
}

// PutDocument stores file for ownerID and returns the new document id.
func (s *Service) PutDocument(ctx context.Context, ownerID, category string, f *File) (string, error) {
	if f == nil || len(f.Data) == 0 {
		return "", fault.ErrInvalidInput.With("document content is empty")
	}
	if strings.TrimSpace(category) == "" {
		return "", fault.ErrInvalidInput.With("document category is required")
	}
	name := path.Base(strings.ReplaceAll(f.Name, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		name = "document"
	}
	id := idgen.New()
	doc := &Document{
		ID:          id,
		OwnerID:     ownerID,
		Category:    category,
		Name:        name,
		ContentType: ContentType(name),
		Size:        len(f.Data),
		URL:         afsurl.Join(s.baseURL, id, name),
		UploadedAt:  clock.Now(),
	}
	if err := s.fs.Upload(ctx, doc.URL, file.DefaultFileOsMode, bytes.NewReader(f.Data)); err != nil {
		return "", fmt.Errorf("failed to upload document %s: %w", name, err)
	}
	meta, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document meta: %w", err)
	}
	if err = s.fs.Upload(ctx, afsurl.Join(s.baseURL, id, metaFile), file.DefaultFileOsMode, bytes.NewReader(meta)); err != nil {
		return "", fmt.Errorf("failed to upload document meta: %w", err)
	}
	return id, nil
}

// Document returns the stored document metadata.
func (s *Service) Document(ctx context.Context, documentID string) (*Document, error) {
	if documentID == "" || strings.ContainsAny(documentID, "/\\") {
		return nil, fault.ErrNotFound.With("document %q", documentID)
	}
	metaURL := afsurl.Join(s.baseURL, documentID, metaFile)
	exists, err := s.fs.Exists(ctx, metaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to check document %s: %w", documentID, err)
	}
	if !exists {
		return nil, fault.ErrNotFound.With("document %s", documentID)
	}
	data, err := s.fs.DownloadWithURL(ctx, metaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to read document meta: %w", err)
	}
	doc := &Document{}
	if err = json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document meta: %w", err)
	}
	return doc, nil
}

// Download returns document content.
func (s *Service) Download(ctx context.Context, documentID string) ([]byte, error) {
	doc, err := s.Document(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return s.fs.DownloadWithURL(ctx, doc.URL)
}

// SignedDownloadURL returns publicURL/<documentID>/<name>?token=<jwt>.
func (s *Service) SignedDownloadURL(ctx context.Context, documentID string, ttl time.Duration) (string, error) {
	if s.signer == nil {
		return "", fmt.Errorf("document signer is not configured")
	}
	doc, err := s.Document(ctx, documentID)
	if err != nil {
		return "", err
	}
	token, err := s.signer.Create(ttl, map[string]interface{}{
		"documentId": doc.ID,
		"ownerId":    doc.OwnerID,
		"category":   doc.Category,
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign document URL: %w", err)
	}
	return fmt.Sprintf("%s/%s/%s?token=%s", strings.TrimRight(s.publicURL, "/"), doc.ID, url.PathEscape(doc.Name), url.QueryEscape(token)), nil
}

// New creates a storage service rooted at baseURL.
func New(baseURL string, options ...Option) *Service {
	ret := &Service{
		fs:      afs.New(),
		baseURL: afsurl.Normalize(baseURL, file.Scheme),
	}
	ret.publicURL = ret.baseURL
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

var _ Storage = (*Service)(nil)
