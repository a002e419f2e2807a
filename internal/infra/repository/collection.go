package repository

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/gamewiki/issuestore"
	"github.com/gamewiki/issuestore/internal/codec"
	"github.com/gamewiki/issuestore/internal/domain"
	"github.com/gamewiki/issuestore/internal/infra/metrics"
	"github.com/gamewiki/issuestore/internal/usecase"
)

var tracer = otel.Tracer("repository")

// CollectionRepository keeps one ticket per (record type, user) whose body
// is the JSON array of that user's records.
type CollectionRepository struct {
	gateway usecase.TicketGateway
	limits  map[string]int
	locker  usecase.Locker
	now     func() time.Time
}

var _ usecase.CollectionRepository = (*CollectionRepository)(nil)

// NewCollectionRepository creates the store. limits overrides the default
// capacity per record type; locker may be nil.
func NewCollectionRepository(gateway usecase.TicketGateway, limits map[string]int, locker usecase.Locker) *CollectionRepository {
	return &CollectionRepository{
		gateway: gateway,
		limits:  limits,
		locker:  locker,
		now:     time.Now,
	}
}

func (r *CollectionRepository) limit(recordType string) int {
	if max, ok := r.limits[recordType]; ok && max > 0 {
		return max
	}
	return issuestore.DefaultCollectionLimit
}

func (r *CollectionRepository) lock(ctx context.Context, recordType string, owner domain.Owner) (func(), error) {
	if r.locker == nil {
		return func() {}, nil
	}
	return r.locker.Lock(ctx, "collection:"+recordType+":"+owner.Key())
}

// findTicket prefers the user-id label and falls back to the legacy title.
// It returns nil when the user has no collection yet.
func (r *CollectionRepository) findTicket(ctx context.Context, recordType string, owner domain.Owner) (*domain.Ticket, error) {
	tickets, err := r.gateway.ListByLabels(ctx, []string{recordType, issuestore.UserIDLabel(owner.UserID)})
	if err != nil {
		return nil, err
	}
	if ticket := oldest(tickets, func(t domain.Ticket) bool {
		return issuestore.HasLabel(t.Labels, issuestore.UserIDLabel(owner.UserID))
	}); ticket != nil {
		return ticket, nil
	}

	if owner.Username == "" {
		return nil, nil
	}
	tickets, err = r.gateway.ListByLabels(ctx, []string{recordType})
	if err != nil {
		return nil, err
	}
	return oldest(tickets, func(t domain.Ticket) bool {
		return !issuestore.HasUserIDLabel(t.Labels) && issuestore.MatchesCollectionTitle(t.Title, recordType, owner.Username)
	}), nil
}

// oldest returns the lowest-numbered ticket accepted by match.
func oldest(tickets []domain.Ticket, match func(domain.Ticket) bool) *domain.Ticket {
	var found []domain.Ticket
	for _, t := range tickets {
		if match(t) {
			found = append(found, t)
		}
	}
	if len(found) == 0 {
		return nil
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Number < found[j].Number })
	return &found[0]
}

func (r *CollectionRepository) load(ctx context.Context, recordType string, owner domain.Owner) (*domain.Ticket, []domain.Record, error) {
	ticket, err := r.findTicket(ctx, recordType, owner)
	if err != nil {
		return nil, nil, err
	}
	if ticket == nil {
		return nil, []domain.Record{}, nil
	}

	records, err := codec.DecodeCollection(ticket.Body)
	if err != nil {
		metrics.DecodeFallbacks.WithLabelValues(recordType).Inc()
		slog.WarnContext(
			ctx, "collection body could not be decoded; treating as empty",
			slog.String("error", err.Error()),
			slog.Int("ticket", ticket.Number),
			slog.String("recordType", recordType),
			slog.String("module", "collection"),
		)
	}
	return ticket, records, nil
}

func (r *CollectionRepository) Get(ctx context.Context, recordType string, owner domain.Owner) (records []domain.Record, err error) {
	ctx, span := tracer.Start(ctx, "Repository.Collection.Get")
	defer span.End()
	span.SetAttributes(attribute.String("recordType", recordType), attribute.Int64("userId", owner.UserID))
	defer func() { metrics.StoreOperations.WithLabelValues("collection", recordType, "get", metrics.Result(err)).Inc() }()

	_, records, err = r.load(ctx, recordType, owner)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return records, nil
}

func (r *CollectionRepository) Add(ctx context.Context, recordType string, owner domain.Owner, record domain.Record) (records []domain.Record, err error) {
	ctx, span := tracer.Start(ctx, "Repository.Collection.Add")
	defer span.End()
	span.SetAttributes(attribute.String("recordType", recordType), attribute.Int64("userId", owner.UserID))
	defer func() { metrics.StoreOperations.WithLabelValues("collection", recordType, "add", metrics.Result(err)).Inc() }()

	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ValidationError{Field: "record", Reason: "must be an object"}
	}

	unlock, err := r.lock(ctx, recordType, owner)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ticket, records, err := r.load(ctx, recordType, owner)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	max := r.limit(recordType)
	if len(records) >= max {
		return nil, domain.CapacityExceededError{RecordType: recordType, Limit: max}
	}

	now := r.now().UTC()
	added := record.Clone()
	if id, ok := added[issuestore.FieldID].(string); ok && id != "" {
		if indexOf(records, id) >= 0 {
			return nil, domain.ValidationError{Field: issuestore.FieldID, Reason: "duplicate id " + id}
		}
	} else {
		added[issuestore.FieldID] = issuestore.NewRecordID(recordType, now)
	}
	stamp := issuestore.FormatTimestamp(now)
	added[issuestore.FieldCreatedAt] = stamp
	added[issuestore.FieldUpdatedAt] = stamp
	stampOwner(added, owner)

	records = append(records, added)
	if err := r.persist(ctx, recordType, owner, ticket, records); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return records, nil
}

func (r *CollectionRepository) Update(ctx context.Context, recordType string, owner domain.Owner, recordID string, patch domain.Record) (records []domain.Record, err error) {
	ctx, span := tracer.Start(ctx, "Repository.Collection.Update")
	defer span.End()
	span.SetAttributes(attribute.String("recordType", recordType), attribute.String("recordId", recordID))
	defer func() { metrics.StoreOperations.WithLabelValues("collection", recordType, "update", metrics.Result(err)).Inc() }()

	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	if recordID == "" {
		return nil, domain.ValidationError{Field: issuestore.FieldID, Reason: "required"}
	}
	if patch == nil {
		return nil, domain.ValidationError{Field: "patch", Reason: "must be an object"}
	}

	unlock, err := r.lock(ctx, recordType, owner)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ticket, records, err := r.load(ctx, recordType, owner)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	i := indexOf(records, recordID)
	if i < 0 {
		return nil, domain.NotFoundError{Resource: "record " + recordID}
	}

	existing := records[i]
	merged := existing.Clone()
	for k, v := range patch {
		switch k {
		case issuestore.FieldID, issuestore.FieldCreatedAt, issuestore.FieldUpdatedAt, issuestore.FieldUserID, issuestore.FieldUsername:
			continue
		}
		merged[k] = v
	}
	stampOwner(merged, owner)
	merged[issuestore.FieldUpdatedAt] = issuestore.FormatTimestamp(advance(r.now(), existing.Time(issuestore.FieldUpdatedAt)))
	records[i] = merged

	if err := r.persist(ctx, recordType, owner, ticket, records); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return records, nil
}

func (r *CollectionRepository) Delete(ctx context.Context, recordType string, owner domain.Owner, recordID string) (records []domain.Record, err error) {
	ctx, span := tracer.Start(ctx, "Repository.Collection.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("recordType", recordType), attribute.String("recordId", recordID))
	defer func() { metrics.StoreOperations.WithLabelValues("collection", recordType, "delete", metrics.Result(err)).Inc() }()

	if err := validateOwner(owner); err != nil {
		return nil, err
	}

	unlock, err := r.lock(ctx, recordType, owner)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ticket, records, err := r.load(ctx, recordType, owner)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	remaining := make([]domain.Record, 0, len(records))
	for _, record := range records {
		if record.ID() != recordID {
			remaining = append(remaining, record)
		}
	}
	if recordID == "" || len(remaining) == len(records) {
		return nil, domain.NotFoundError{Resource: "record " + recordID}
	}

	if err := r.persist(ctx, recordType, owner, ticket, remaining); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return remaining, nil
}

// Save replaces the user's whole collection.
func (r *CollectionRepository) Save(ctx context.Context, recordType string, owner domain.Owner, records []domain.Record) (err error) {
	ctx, span := tracer.Start(ctx, "Repository.Collection.Save")
	defer span.End()
	defer func() { metrics.StoreOperations.WithLabelValues("collection", recordType, "save", metrics.Result(err)).Inc() }()

	if err := validateOwner(owner); err != nil {
		return err
	}
	if records == nil {
		return domain.ValidationError{Field: "records", Reason: "must be an array"}
	}
	for i, record := range records {
		if record == nil {
			return domain.ValidationError{Field: "records", Reason: "element " + strconv.Itoa(i) + " is not an object"}
		}
	}
	if max := r.limit(recordType); len(records) > max {
		return domain.CapacityExceededError{RecordType: recordType, Limit: max}
	}

	unlock, err := r.lock(ctx, recordType, owner)
	if err != nil {
		return err
	}
	defer unlock()

	ticket, err := r.findTicket(ctx, recordType, owner)
	if err != nil {
		span.RecordError(err)
		return err
	}
	return r.persist(ctx, recordType, owner, ticket, records)
}

// persist writes records to ticket, creating and locking the ticket when
// the user has none. A legacy ticket gets its user-id label on the way.
func (r *CollectionRepository) persist(ctx context.Context, recordType string, owner domain.Owner, ticket *domain.Ticket, records []domain.Record) error {
	body, err := codec.EncodeCollection(records)
	if err != nil {
		return domain.ValidationError{Field: "records", Reason: err.Error()}
	}

	if ticket != nil {
		if _, err := r.gateway.UpdateTicket(ctx, ticket.Number, domain.TicketPatch{Body: &body}); err != nil {
			return err
		}
		if !issuestore.HasUserIDLabel(ticket.Labels) {
			if err := r.gateway.AddLabel(ctx, ticket.Number, issuestore.UserIDLabel(owner.UserID)); err != nil {
				slog.WarnContext(
					ctx, "failed to backfill user-id label",
					slog.String("error", err.Error()),
					slog.Int("ticket", ticket.Number),
					slog.String("module", "collection"),
				)
			} else {
				slog.InfoContext(
					ctx, "migrated legacy collection ticket",
					slog.Int("ticket", ticket.Number),
					slog.String("recordType", recordType),
					slog.String("module", "collection"),
				)
			}
		}
		return nil
	}

	created, err := r.gateway.CreateTicket(ctx, issuestore.CollectionTitle(recordType, owner.Username), body, issuestore.CollectionLabels(recordType, owner.UserID))
	if err != nil {
		return err
	}
	if err := r.gateway.LockTicket(ctx, created.Number); err != nil {
		slog.WarnContext(
			ctx, "failed to lock collection ticket",
			slog.String("error", err.Error()),
			slog.Int("ticket", created.Number),
			slog.String("module", "collection"),
		)
	}
	return nil
}

// stampOwner records who owns record. Older records written before owners
// were stamped pick them up on their next write.
func stampOwner(record domain.Record, owner domain.Owner) {
	record[issuestore.FieldUserID] = owner.UserID
	if owner.Username != "" {
		record[issuestore.FieldUsername] = owner.Username
	}
}

func validateOwner(owner domain.Owner) error {
	if owner.UserID <= 0 {
		return domain.ValidationError{Field: issuestore.FieldUserID, Reason: "must be a positive id"}
	}
	return nil
}

func indexOf(records []domain.Record, id string) int {
	for i, record := range records {
		if record.ID() == id {
			return i
		}
	}
	return -1
}

// advance returns now at millisecond precision, or prev+1ms if now does
// not come after prev.
func advance(now, prev time.Time) time.Time {
	now = now.UTC().Truncate(time.Millisecond)
	if !prev.IsZero() && !now.After(prev) {
		return prev.UTC().Add(time.Millisecond)
	}
	return now
}
