// Package idgen wraps identifier and access-token generation so that it can
// be stubbed in tests. It lives under `internal` because callers should treat
// identifiers and tokens as opaque strings.
package idgen
