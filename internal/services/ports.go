// Package services composes the validation policy and the stores into the
// public operation set callers use. Ports are declared here, on the consumer
// side; internal/storage and internal/amqp satisfy them.
package services

import (
	"context"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// RecordStore is the persistence port the ledger service drives. Both record
// kinds share it; Kind tells which namespace a store instance is bound to.
type RecordStore interface {
	Kind() core.Kind
	Create(ctx context.Context, r *core.Record) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]core.Record, error)
	MonthlySummary(ctx context.Context, userID int64, year, month int) (map[string]decimal.Decimal, error)
	Update(ctx context.Context, r core.Record) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
}

// UserStore is the persistence port for user accounts.
type UserStore interface {
	Create(ctx context.Context, u *core.User) (int64, error)
	GetByUsername(ctx context.Context, username string) (*core.User, error)
	List(ctx context.Context) ([]core.User, error)
}

// EventPublisher notifies interested workers that a record changed. A nil
// publisher disables events; a failing one never fails the ledger call.
type EventPublisher interface {
	PublishRecordChange(ctx context.Context, kind core.Kind, action string, recordID, userID int64) error
}
