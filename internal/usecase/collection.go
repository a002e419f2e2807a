package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/gamewiki/issuestore/internal/domain"
)

type CollectionUsecase struct {
	repo      CollectionRepository
	publisher EventPublisher
	types     map[string]bool
	now       func() time.Time
}

// NewCollectionUsecase serves the given record types. publisher may be nil.
func NewCollectionUsecase(repo CollectionRepository, publisher EventPublisher, recordTypes []string) *CollectionUsecase {
	types := make(map[string]bool, len(recordTypes))
	for _, t := range recordTypes {
		types[t] = true
	}
	return &CollectionUsecase{
		repo:      repo,
		publisher: publisher,
		types:     types,
		now:       time.Now,
	}
}

func (uc *CollectionUsecase) checkType(recordType string) error {
	if !uc.types[recordType] {
		return domain.ValidationError{Field: "recordType", Reason: "unknown collection type " + recordType}
	}
	return nil
}

func (uc *CollectionUsecase) Get(ctx context.Context, recordType string, owner domain.Owner) ([]domain.Record, error) {
	if err := uc.checkType(recordType); err != nil {
		return nil, err
	}
	return uc.repo.Get(ctx, recordType, owner)
}

func (uc *CollectionUsecase) Add(ctx context.Context, recordType string, owner domain.Owner, record domain.Record) ([]domain.Record, error) {
	if err := uc.checkType(recordType); err != nil {
		return nil, err
	}
	records, err := uc.repo.Add(ctx, recordType, owner, record)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, recordType, owner, domain.ActionAdd, len(records))
	return records, nil
}

func (uc *CollectionUsecase) Update(ctx context.Context, recordType string, owner domain.Owner, recordID string, patch domain.Record) ([]domain.Record, error) {
	if err := uc.checkType(recordType); err != nil {
		return nil, err
	}
	records, err := uc.repo.Update(ctx, recordType, owner, recordID, patch)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, recordType, owner, domain.ActionUpdate, len(records))
	return records, nil
}

func (uc *CollectionUsecase) Delete(ctx context.Context, recordType string, owner domain.Owner, recordID string) ([]domain.Record, error) {
	if err := uc.checkType(recordType); err != nil {
		return nil, err
	}
	records, err := uc.repo.Delete(ctx, recordType, owner, recordID)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, recordType, owner, domain.ActionDelete, len(records))
	return records, nil
}

// publish is fire-and-forget: the write has already succeeded.
func (uc *CollectionUsecase) publish(ctx context.Context, recordType string, owner domain.Owner, action string, count int) {
	if uc.publisher == nil {
		return
	}
	event := domain.AchievementEvent{
		UserID:     owner.UserID,
		Username:   owner.Username,
		RecordType: recordType,
		Action:     action,
		Count:      count,
		At:         uc.now().UTC(),
	}
	if err := uc.publisher.Publish(ctx, event); err != nil {
		slog.WarnContext(
			ctx, "failed to publish achievement event",
			slog.String("error", err.Error()),
			slog.String("recordType", recordType),
			slog.String("module", "collection"),
		)
	}
}
