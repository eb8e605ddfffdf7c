// Package dao defines the keyed store contract shared by the policy, actor
// and grant repositories.
package dao

import "context"

// Service stores entities of type T under keys of type K. Load and Delete
// return ErrNotFound for an unknown key; List returns entities matching
// every parameter.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error
	Load(ctx context.Context, id K) (*T, error)
	Delete(ctx context.Context, id K) error
	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}
