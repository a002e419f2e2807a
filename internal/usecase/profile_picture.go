package usecase

import (
	"context"
	"strconv"
	"time"

	"github.com/gamewiki/issuestore"
	"github.com/gamewiki/issuestore/internal/domain"
	"github.com/gamewiki/issuestore/internal/utils"
)

const FieldChangeCount = "changeCount"

type ProfilePictureUsecase struct {
	registry RegistryRepository
	now      func() time.Time
}

func NewProfilePictureUsecase(registry RegistryRepository) *ProfilePictureUsecase {
	return &ProfilePictureUsecase{registry: registry, now: time.Now}
}

func (uc *ProfilePictureUsecase) Get(ctx context.Context, userID int64) (domain.Record, error) {
	return uc.registry.GetOne(ctx, issuestore.RecordTypeProfilePictures, strconv.FormatInt(userID, 10))
}

func (uc *ProfilePictureUsecase) List(ctx context.Context) (utils.OrderedKVMap[domain.Record], error) {
	return uc.registry.GetAll(ctx, issuestore.RecordTypeProfilePictures)
}

// Save stores picture as owner's profile picture. When one already exists
// its changeCount is incremented and its createdAt carried forward.
func (uc *ProfilePictureUsecase) Save(ctx context.Context, owner domain.Owner, picture domain.Record) (domain.Record, error) {
	if owner.UserID == 0 {
		return nil, domain.ValidationError{Field: "userId", Reason: "required"}
	}
	key := owner.Key()

	ctx = domain.WithFreshReads(ctx)
	prior, err := uc.registry.GetOne(ctx, issuestore.RecordTypeProfilePictures, key)
	if err != nil {
		return nil, err
	}

	now := issuestore.FormatTimestamp(uc.now())
	record := picture.Clone()
	record[issuestore.FieldUserID] = owner.UserID
	record[issuestore.FieldUsername] = owner.Username
	record[issuestore.FieldUpdatedAt] = now
	if prior == nil {
		record[FieldChangeCount] = 0
		record[issuestore.FieldCreatedAt] = now
	} else {
		record[FieldChangeCount] = prior.Int(FieldChangeCount) + 1
		if createdAt := prior.String(issuestore.FieldCreatedAt); createdAt != "" {
			record[issuestore.FieldCreatedAt] = createdAt
		} else {
			record[issuestore.FieldCreatedAt] = now
		}
	}

	if err := uc.registry.Save(ctx, issuestore.RecordTypeProfilePictures, key, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (uc *ProfilePictureUsecase) Delete(ctx context.Context, userID int64) error {
	return uc.registry.Delete(ctx, issuestore.RecordTypeProfilePictures, strconv.FormatInt(userID, 10))
}
