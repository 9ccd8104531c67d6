package model

import "context"

// TxManager scopes a set of store mutations to one unit of work. Stores
// called with the context passed to fn participate in the same
// transaction; the whole set commits or rolls back together.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
