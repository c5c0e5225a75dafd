package repo

import (
	"context"

	"gorm.io/gorm"
)

// TxRunner runs a function inside a database transaction. The db.Client
// satisfies it; service tests substitute a pass-through stub.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
