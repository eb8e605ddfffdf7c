package storage

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/scy"
	"github.com/viant/scy/auth/jwt/signer"
)

// Option customises the storage service.
type Option func(*Service)

// WithSigner sets the download URL signer.
func WithSigner(s Signer) Option {
	return func(svc *Service) {
		svc.signer = s
	}
}

// WithPublicURL sets the externally reachable prefix of download links.
func WithPublicURL(publicURL string) Option {
	return func(svc *Service) {
		if publicURL != "" {
			svc.publicURL = publicURL
		}
	}
}

// WithFS overrides the afs service.
func WithFS(fs afs.Service) Option {
	return func(svc *Service) {
		svc.fs = fs
	}
}

// NewHMACSigner initialises a scy JWT signer from an HMAC key resource.
func NewHMACSigner(ctx context.Context, keyURL, keySecret string) (Signer, error) {
	ret := signer.New(&signer.Config{HMAC: &scy.Resource{URL: keyURL, Key: keySecret}})
	if err := ret.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize JWT signer: %w", err)
	}
	return ret, nil
}

var _ Signer = (*signer.Service)(nil)
