package repository

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/gamewiki/issuestore"
	"github.com/gamewiki/issuestore/internal/codec"
	"github.com/gamewiki/issuestore/internal/domain"
	"github.com/gamewiki/issuestore/internal/infra/metrics"
	"github.com/gamewiki/issuestore/internal/usecase"
	"github.com/gamewiki/issuestore/internal/utils"
)

// RegistryRepository keeps one ticket per record type. Its body indexes
// keys to comments and each comment holds one record.
type RegistryRepository struct {
	gateway usecase.TicketGateway
	locker  usecase.Locker
}

var _ usecase.RegistryRepository = (*RegistryRepository)(nil)

// NewRegistryRepository creates the store. With a locker, index rewrites of
// one record type are serialized; without one the last writer wins.
func NewRegistryRepository(gateway usecase.TicketGateway, locker usecase.Locker) *RegistryRepository {
	return &RegistryRepository{gateway: gateway, locker: locker}
}

func (r *RegistryRepository) lock(ctx context.Context, recordType string) (func(), error) {
	if r.locker == nil {
		return func() {}, nil
	}
	return r.locker.Lock(ctx, "registry:"+recordType)
}

func validateKey(key string) error {
	if !issuestore.IsValidKey(key) {
		return domain.ValidationError{Field: "key", Reason: "must match \\w+"}
	}
	return nil
}

func (r *RegistryRepository) findTicket(ctx context.Context, recordType string) (*domain.Ticket, error) {
	tickets, err := r.gateway.ListByLabels(ctx, []string{recordType})
	if err != nil {
		return nil, err
	}
	title := issuestore.RegistryTitle(recordType)
	return oldest(tickets, func(t domain.Ticket) bool { return t.Title == title }), nil
}

// fetch reads the record behind an index value. Any failure is logged and
// reported as nil.
func (r *RegistryRepository) fetch(ctx context.Context, recordType, key, value string) domain.Record {
	commentID, err := codec.CommentID(value)
	if err != nil {
		slog.WarnContext(
			ctx, "registry index value is not a comment id",
			slog.String("key", key),
			slog.String("value", value),
			slog.String("recordType", recordType),
			slog.String("module", "registry"),
		)
		return nil
	}

	comment, err := r.gateway.GetComment(ctx, commentID)
	if err != nil {
		slog.WarnContext(
			ctx, "failed to fetch registry comment",
			slog.String("error", err.Error()),
			slog.String("key", key),
			slog.Int64("comment", commentID),
			slog.String("recordType", recordType),
			slog.String("module", "registry"),
		)
		return nil
	}

	record, err := codec.DecodeRecord(comment.Body)
	if err != nil {
		metrics.DecodeFallbacks.WithLabelValues(recordType).Inc()
		slog.WarnContext(
			ctx, "failed to decode registry comment",
			slog.String("error", err.Error()),
			slog.String("key", key),
			slog.Int64("comment", commentID),
			slog.String("recordType", recordType),
			slog.String("module", "registry"),
		)
		return nil
	}
	return record
}

func (r *RegistryRepository) GetOne(ctx context.Context, recordType, key string) (record domain.Record, err error) {
	ctx, span := tracer.Start(ctx, "Repository.Registry.GetOne")
	defer span.End()
	span.SetAttributes(attribute.String("recordType", recordType), attribute.String("key", key))
	defer func() { metrics.StoreOperations.WithLabelValues("registry", recordType, "get", metrics.Result(err)).Inc() }()

	if err := validateKey(key); err != nil {
		return nil, err
	}

	ticket, err := r.findTicket(ctx, recordType)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if ticket == nil {
		return nil, nil
	}

	value, ok := codec.DecodeIndexMap(ticket.Body).Lookup(key)
	if !ok {
		return nil, nil
	}
	return r.fetch(ctx, recordType, key, value), nil
}

// GetAll returns every readable entry in index order. Entries whose comment
// is missing or corrupt are skipped.
func (r *RegistryRepository) GetAll(ctx context.Context, recordType string) (records utils.OrderedKVMap[domain.Record], err error) {
	ctx, span := tracer.Start(ctx, "Repository.Registry.GetAll")
	defer span.End()
	span.SetAttributes(attribute.String("recordType", recordType))
	defer func() { metrics.StoreOperations.WithLabelValues("registry", recordType, "list", metrics.Result(err)).Inc() }()

	records = utils.OrderedKVMap[domain.Record]{}

	ticket, err := r.findTicket(ctx, recordType)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if ticket == nil {
		return records, nil
	}

	index := codec.DecodeIndexMap(ticket.Body)
	for _, key := range index.Keys() {
		value, _ := index.Lookup(key)
		record := r.fetch(ctx, recordType, key, value)
		if record == nil {
			metrics.DanglingIndexEntries.WithLabelValues(recordType).Inc()
			continue
		}
		records.Set(key, record)
	}
	span.SetAttributes(attribute.Int("entries", len(records)))
	return records, nil
}

func (r *RegistryRepository) Save(ctx context.Context, recordType, key string, record domain.Record) (err error) {
	ctx, span := tracer.Start(ctx, "Repository.Registry.Save")
	defer span.End()
	span.SetAttributes(attribute.String("recordType", recordType), attribute.String("key", key))
	defer func() { metrics.StoreOperations.WithLabelValues("registry", recordType, "save", metrics.Result(err)).Inc() }()

	if err := validateKey(key); err != nil {
		return err
	}
	if record == nil {
		return domain.ValidationError{Field: "record", Reason: "must be an object"}
	}
	body, err := codec.EncodeRecord(record)
	if err != nil {
		return domain.ValidationError{Field: "record", Reason: err.Error()}
	}

	unlock, err := r.lock(ctx, recordType)
	if err != nil {
		return err
	}
	defer unlock()

	ticket, err := r.findTicket(ctx, recordType)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if ticket == nil {
		created, err := r.gateway.CreateTicket(ctx, issuestore.RegistryTitle(recordType), codec.DefaultIndexHeader, issuestore.RegistryLabels(recordType))
		if err != nil {
			span.RecordError(err)
			return err
		}
		ticket = &created
	}

	index := codec.DecodeIndexMap(ticket.Body)
	if value, ok := index.Lookup(key); ok {
		commentID, parseErr := codec.CommentID(value)
		if parseErr == nil {
			_, err := r.gateway.UpdateComment(ctx, commentID, body)
			if err == nil {
				return nil
			}
			if !errors.Is(err, domain.ErrNotFound) {
				span.RecordError(err)
				return err
			}
		}
		slog.WarnContext(
			ctx, "registry entry points at a missing comment; re-creating",
			slog.String("key", key),
			slog.String("value", value),
			slog.String("recordType", recordType),
			slog.String("module", "registry"),
		)
	}

	comment, err := r.gateway.CreateComment(ctx, ticket.Number, body)
	if err != nil {
		span.RecordError(err)
		return err
	}

	index.Set(key, codec.FormatCommentID(comment.ID))
	indexBody := codec.EncodeIndexMap(index)
	if _, err := r.gateway.UpdateTicket(ctx, ticket.Number, domain.TicketPatch{Body: &indexBody}); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (r *RegistryRepository) Delete(ctx context.Context, recordType, key string) (err error) {
	ctx, span := tracer.Start(ctx, "Repository.Registry.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("recordType", recordType), attribute.String("key", key))
	defer func() { metrics.StoreOperations.WithLabelValues("registry", recordType, "delete", metrics.Result(err)).Inc() }()

	if err := validateKey(key); err != nil {
		return err
	}

	unlock, err := r.lock(ctx, recordType)
	if err != nil {
		return err
	}
	defer unlock()

	ticket, err := r.findTicket(ctx, recordType)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if ticket == nil {
		return nil
	}

	index := codec.DecodeIndexMap(ticket.Body)
	value, ok := index.Lookup(key)
	if !ok {
		return nil
	}

	if commentID, parseErr := codec.CommentID(value); parseErr == nil {
		if err := r.gateway.DeleteComment(ctx, commentID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			span.RecordError(err)
			return err
		}
	}

	index.Remove(key)
	indexBody := codec.EncodeIndexMap(index)
	if _, err := r.gateway.UpdateTicket(ctx, ticket.Number, domain.TicketPatch{Body: &indexBody}); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}
