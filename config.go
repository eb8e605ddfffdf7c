package guaranty

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/viant/guaranty/access"
	"github.com/viant/guaranty/model/actor"
	"github.com/viant/guaranty/service/audit/postgres"
	"github.com/viant/guaranty/service/grant"
	"github.com/viant/guaranty/service/lifecycle"
	"github.com/viant/guaranty/service/messaging"
	"github.com/viant/guaranty/service/meta"
)

// Vendors of the pluggable stores.
const (
	VendorMemory   = "memory"
	VendorFS       = "fs"
	VendorRedis    = "redis"
	VendorPostgres = "postgres"
)

// Config is the serialisable service configuration. It is loaded from YAML
// with ${env.KEY} expansion; GUARANTY_* environment variables override the
// loaded values. The zero value of every section falls back to its default.
type Config struct {
	Grant      GrantConfig      `json:"grant" yaml:"grant"`
	Lifecycle  LifecycleConfig  `json:"lifecycle" yaml:"lifecycle"`
	Store      StoreConfig      `json:"store" yaml:"store"`
	GrantStore GrantStoreConfig `json:"grantStore" yaml:"grantStore"`
	Audit      AuditConfig      `json:"audit" yaml:"audit"`
	Events     EventsConfig     `json:"events" yaml:"events"`
	Storage    StorageConfig    `json:"storage" yaml:"storage"`
	Actor      ActorConfig      `json:"actor" yaml:"actor"`
	Tracing    TracingConfig    `json:"tracing" yaml:"tracing"`
	Metrics    MetricsConfig    `json:"metrics" yaml:"metrics"`
	Access     *access.Config   `json:"access,omitempty" yaml:"access,omitempty"`
}

// GrantConfig controls access links.
type GrantConfig struct {
	TTL time.Duration `json:"ttl" yaml:"ttl" env:"GUARANTY_GRANT_TTL"`
	// Retention is how long a grant record outlives its expiry in stores with TTL.
	Retention time.Duration `json:"retention" yaml:"retention" env:"GUARANTY_GRANT_RETENTION"`
}

// LifecycleConfig controls the orchestrator.
type LifecycleConfig struct {
	LockTimeout    time.Duration `json:"lockTimeout" yaml:"lockTimeout" env:"GUARANTY_LOCK_TIMEOUT"`
	ContractMonths int           `json:"contractMonths" yaml:"contractMonths" env:"GUARANTY_CONTRACT_MONTHS"`
}

// StoreConfig selects policy and actor persistence.
type StoreConfig struct {
	Vendor  string `json:"vendor" yaml:"vendor" env:"GUARANTY_STORE_VENDOR"`
	BaseURL string `json:"baseURL,omitempty" yaml:"baseURL,omitempty" env:"GUARANTY_STORE_BASE_URL"`
}

// GrantStoreConfig selects grant persistence.
type GrantStoreConfig struct {
	Vendor   string `json:"vendor" yaml:"vendor" env:"GUARANTY_GRANT_STORE_VENDOR"`
	Addr     string `json:"addr,omitempty" yaml:"addr,omitempty" env:"GUARANTY_REDIS_ADDR"`
	Password string `json:"password,omitempty" yaml:"password,omitempty" env:"GUARANTY_REDIS_PASSWORD"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty" env:"GUARANTY_REDIS_DB"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty" env:"GUARANTY_REDIS_PREFIX"`
}

// AuditConfig selects the audit log.
type AuditConfig struct {
	Vendor  string `json:"vendor" yaml:"vendor" env:"GUARANTY_AUDIT_VENDOR"`
	DSN     string `json:"dsn,omitempty" yaml:"dsn,omitempty" env:"GUARANTY_POSTGRES_DSN"`
	Table   string `json:"table,omitempty" yaml:"table,omitempty" env:"GUARANTY_AUDIT_TABLE"`
	Migrate bool   `json:"migrate,omitempty" yaml:"migrate,omitempty" env:"GUARANTY_AUDIT_MIGRATE"`
}

// EventsConfig selects the messaging vendor for domain events and the
// notification outbox.
type EventsConfig struct {
	Vendor      string        `json:"vendor" yaml:"vendor" env:"GUARANTY_EVENTS_VENDOR"`
	BaseURL     string        `json:"baseURL,omitempty" yaml:"baseURL,omitempty" env:"GUARANTY_EVENTS_BASE_URL"`
	Brokers     []string      `json:"brokers,omitempty" yaml:"brokers,omitempty" env:"GUARANTY_KAFKA_BROKERS" envSeparator:","`
	TopicPrefix string        `json:"topicPrefix,omitempty" yaml:"topicPrefix,omitempty" env:"GUARANTY_KAFKA_TOPIC_PREFIX"`
	GroupID     string        `json:"groupId,omitempty" yaml:"groupId,omitempty" env:"GUARANTY_KAFKA_GROUP_ID"`
	MaxRetries  int           `json:"maxRetries,omitempty" yaml:"maxRetries,omitempty" env:"GUARANTY_EVENTS_MAX_RETRIES"`
	PollEvery   time.Duration `json:"pollEvery,omitempty" yaml:"pollEvery,omitempty" env:"GUARANTY_EVENTS_POLL_INTERVAL"`
}

// StorageConfig locates documents and signs their download links.
type StorageConfig struct {
	BaseURL    string        `json:"baseURL" yaml:"baseURL" env:"GUARANTY_STORAGE_BASE_URL"`
	PublicURL  string        `json:"publicURL,omitempty" yaml:"publicURL,omitempty" env:"GUARANTY_STORAGE_PUBLIC_URL"`
	HMACKeyURL string        `json:"hmacKeyURL,omitempty" yaml:"hmacKeyURL,omitempty" env:"GUARANTY_STORAGE_HMAC_KEY_URL"`
	HMACSecret string        `json:"hmacSecret,omitempty" yaml:"hmacSecret,omitempty" env:"GUARANTY_STORAGE_HMAC_SECRET"`
	URLTTL     time.Duration `json:"urlTTL,omitempty" yaml:"urlTTL,omitempty" env:"GUARANTY_STORAGE_URL_TTL"`
}

// ActorConfig carries completeness requirements.
type ActorConfig struct {
	// RequiredDocuments maps a role label to the document categories it must attach.
	RequiredDocuments map[string][]string `json:"requiredDocuments,omitempty" yaml:"requiredDocuments,omitempty"`
}

// TracingConfig enables the OpenTelemetry stdout exporter.
type TracingConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled" env:"GUARANTY_TRACING_ENABLED"`
	ServiceName    string `json:"serviceName,omitempty" yaml:"serviceName,omitempty" env:"GUARANTY_TRACING_SERVICE"`
	ServiceVersion string `json:"serviceVersion,omitempty" yaml:"serviceVersion,omitempty" env:"GUARANTY_TRACING_VERSION"`
	OutputFile     string `json:"outputFile,omitempty" yaml:"outputFile,omitempty" env:"GUARANTY_TRACING_OUTPUT"`
}

// MetricsConfig registers lifecycle collectors with the default prometheus registerer.
type MetricsConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" env:"GUARANTY_METRICS_ENABLED"`
}

// DefaultConfig returns an in-memory configuration suitable for tests and
// local runs.
func DefaultConfig() *Config {
	return &Config{
		Grant:      GrantConfig{TTL: grant.DefaultTTL, Retention: 7 * 24 * time.Hour},
		Lifecycle:  LifecycleConfig{LockTimeout: lifecycle.DefaultLockTimeout, ContractMonths: 12},
		Store:      StoreConfig{Vendor: VendorMemory},
		GrantStore: GrantStoreConfig{Vendor: VendorMemory},
		Audit:      AuditConfig{Vendor: VendorMemory, Table: postgres.DefaultTable},
		Events:     EventsConfig{Vendor: string(messaging.VendorMemory), MaxRetries: 3, PollEvery: 50 * time.Millisecond},
		Storage:    StorageConfig{BaseURL: "mem://localhost/guaranty/documents", URLTTL: 15 * time.Minute},
		Tracing:    TracingConfig{ServiceName: "guaranty", ServiceVersion: "dev"},
	}
}

// LoadConfig reads YAML at URL over DefaultConfig, then applies environment overrides.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	ret := DefaultConfig()
	if URL != "" {
		if err := meta.New(nil, "").Load(ctx, URL, ret); err != nil {
			return nil, err
		}
	}
	if err := ret.ApplyEnv(); err != nil {
		return nil, err
	}
	return ret, ret.Validate()
}

// ApplyEnv overrides fields with GUARANTY_* environment variables.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ActorRules converts the required document configuration.
func (c *Config) ActorRules() (*actor.Rules, error) {
	ret := &actor.Rules{RequiredDocuments: map[actor.Role][]string{}}
	for label, categories := range c.Actor.RequiredDocuments {
		role, err := actor.ParseRole(label)
		if err != nil {
			return nil, fmt.Errorf("actor.requiredDocuments: %w", err)
		}
		ret.RequiredDocuments[role] = append(ret.RequiredDocuments[role], categories...)
	}
	return ret, nil
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var errs []string
	if c.Grant.TTL <= 0 {
		errs = append(errs, "grant.ttl must be > 0")
	}
	if c.Lifecycle.LockTimeout <= 0 {
		errs = append(errs, "lifecycle.lockTimeout must be > 0")
	}
	if c.Lifecycle.ContractMonths <= 0 {
		errs = append(errs, "lifecycle.contractMonths must be > 0")
	}
	switch c.Store.Vendor {
	case VendorMemory:
	case VendorFS:
		if c.Store.BaseURL == "" {
			errs = append(errs, "store.baseURL is required for fs vendor")
		}
	default:
		errs = append(errs, fmt.Sprintf("unsupported store.vendor: %q", c.Store.Vendor))
	}
	switch c.GrantStore.Vendor {
	case VendorMemory:
	case VendorRedis:
		if c.GrantStore.Addr == "" {
			errs = append(errs, "grantStore.addr is required for redis vendor")
		}
	default:
		errs = append(errs, fmt.Sprintf("unsupported grantStore.vendor: %q", c.GrantStore.Vendor))
	}
	switch c.Audit.Vendor {
	case VendorMemory:
	case VendorPostgres:
		if c.Audit.DSN == "" {
			errs = append(errs, "audit.dsn is required for postgres vendor")
		}
	default:
		errs = append(errs, fmt.Sprintf("unsupported audit.vendor: %q", c.Audit.Vendor))
	}
	switch messaging.Vendor(c.Events.Vendor) {
	case messaging.VendorMemory:
	case messaging.VendorFS:
		if c.Events.BaseURL == "" {
			errs = append(errs, "events.baseURL is required for fs vendor")
		}
	case messaging.VendorKafka:
		if len(c.Events.Brokers) == 0 {
			errs = append(errs, "events.brokers is required for kafka vendor")
		}
	default:
		errs = append(errs, fmt.Sprintf("unsupported events.vendor: %q", c.Events.Vendor))
	}
	if c.Storage.BaseURL == "" {
		errs = append(errs, "storage.baseURL is required")
	}
	if _, err := c.ActorRules(); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}
