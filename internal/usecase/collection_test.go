package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/gamewiki/issuestore"
	"github.com/gamewiki/issuestore/internal/domain"
)

var alice = domain.Owner{UserID: 42, Username: "alice"}

func TestCollectionUsecaseRejectsUnknownType(t *testing.T) {
	repo := &mockCollectionRepo{}
	uc := NewCollectionUsecase(repo, nil, []string{issuestore.RecordTypeSkillBuilds})

	_, err := uc.Add(context.Background(), "not-a-type", alice, domain.Record{"name": "x"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.calls) != 0 {
		t.Fatalf("repository must not be called, got %v", repo.calls)
	}
}

func TestCollectionUsecaseAddPublishesEvent(t *testing.T) {
	repo := &mockCollectionRepo{}
	publisher := &mockPublisher{}
	uc := NewCollectionUsecase(repo, publisher, []string{issuestore.RecordTypeSkillBuilds})

	records, err := uc.Add(context.Background(), issuestore.RecordTypeSkillBuilds, alice, domain.Record{"name": "Fire Build"})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record got %d", len(records))
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected 1 event got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if event.UserID != 42 || event.Action != domain.ActionAdd || event.Count != 1 || event.RecordType != issuestore.RecordTypeSkillBuilds {
		t.Fatalf("unexpected event %+v", event)
	}
}

func TestCollectionUsecasePublishFailureIsSwallowed(t *testing.T) {
	repo := &mockCollectionRepo{}
	publisher := &mockPublisher{err: errors.New("redis down")}
	uc := NewCollectionUsecase(repo, publisher, []string{issuestore.RecordTypeBattleLoadouts})

	if _, err := uc.Add(context.Background(), issuestore.RecordTypeBattleLoadouts, alice, domain.Record{}); err != nil {
		t.Fatalf("publish failure must not fail the write: %v", err)
	}
}

func TestCollectionUsecaseFailedWriteDoesNotPublish(t *testing.T) {
	repo := &mockCollectionRepo{err: domain.CapacityExceededError{RecordType: issuestore.RecordTypeSkillBuilds, Limit: 10}}
	publisher := &mockPublisher{}
	uc := NewCollectionUsecase(repo, publisher, []string{issuestore.RecordTypeSkillBuilds})

	_, err := uc.Add(context.Background(), issuestore.RecordTypeSkillBuilds, alice, domain.Record{})
	if !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if len(publisher.events) != 0 {
		t.Fatalf("expected no events, got %d", len(publisher.events))
	}
}

func TestCollectionUsecaseDelegates(t *testing.T) {
	repo := &mockCollectionRepo{}
	uc := NewCollectionUsecase(repo, nil, []string{issuestore.RecordTypeSpiritCollections})
	ctx := context.Background()

	if _, err := uc.Get(ctx, issuestore.RecordTypeSpiritCollections, alice); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if _, err := uc.Update(ctx, issuestore.RecordTypeSpiritCollections, alice, "id", domain.Record{}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if _, err := uc.Delete(ctx, issuestore.RecordTypeSpiritCollections, alice, "id"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	want := []string{"get", "update", "delete"}
	if len(repo.calls) != len(want) {
		t.Fatalf("expected calls %v got %v", want, repo.calls)
	}
	for i := range want {
		if repo.calls[i] != want[i] {
			t.Fatalf("expected calls %v got %v", want, repo.calls)
		}
	}
}
