package usecase

import (
	"context"

	"github.com/gamewiki/issuestore/internal/domain"
	"github.com/gamewiki/issuestore/internal/utils"
)

// TicketGateway is the issue tracker seen as a blob store. Implementations
// never retry. A missing ticket or comment is a domain.NotFoundError, any
// other failure a domain.TransportError.
type TicketGateway interface {
	ListByLabels(ctx context.Context, labels []string) ([]domain.Ticket, error)
	CreateTicket(ctx context.Context, title, body string, labels []string) (domain.Ticket, error)
	UpdateTicket(ctx context.Context, number int, patch domain.TicketPatch) (domain.Ticket, error)
	AddLabel(ctx context.Context, number int, label string) error
	LockTicket(ctx context.Context, number int) error
	CreateComment(ctx context.Context, number int, body string) (domain.Comment, error)
	UpdateComment(ctx context.Context, commentID int64, body string) (domain.Comment, error)
	DeleteComment(ctx context.Context, commentID int64) error
	GetComment(ctx context.Context, commentID int64) (domain.Comment, error)
}

// CollectionRepository stores each user's records of one type as a single
// bounded list. Every mutation returns the full list as persisted.
type CollectionRepository interface {
	Get(ctx context.Context, recordType string, owner domain.Owner) ([]domain.Record, error)
	Add(ctx context.Context, recordType string, owner domain.Owner, record domain.Record) ([]domain.Record, error)
	Update(ctx context.Context, recordType string, owner domain.Owner, recordID string, patch domain.Record) ([]domain.Record, error)
	Delete(ctx context.Context, recordType string, owner domain.Owner, recordID string) ([]domain.Record, error)
	Save(ctx context.Context, recordType string, owner domain.Owner, records []domain.Record) error
}

// RegistryRepository stores one record per key for a record type.
// GetOne returns nil, nil when the key is absent or unreadable.
type RegistryRepository interface {
	GetOne(ctx context.Context, recordType, key string) (domain.Record, error)
	GetAll(ctx context.Context, recordType string) (utils.OrderedKVMap[domain.Record], error)
	Save(ctx context.Context, recordType, key string, record domain.Record) error
	Delete(ctx context.Context, recordType, key string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event domain.AchievementEvent) error
}

// Locker serializes writers sharing a key. The returned function releases
// the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}
