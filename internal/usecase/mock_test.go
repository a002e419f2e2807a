package usecase

import (
	"context"

	"github.com/gamewiki/issuestore/internal/domain"
	"github.com/gamewiki/issuestore/internal/utils"
)

type mockCollectionRepo struct {
	records []domain.Record
	err     error
	calls   []string
}

func (m *mockCollectionRepo) Get(ctx context.Context, recordType string, owner domain.Owner) ([]domain.Record, error) {
	m.calls = append(m.calls, "get")
	return m.records, m.err
}

func (m *mockCollectionRepo) Add(ctx context.Context, recordType string, owner domain.Owner, record domain.Record) ([]domain.Record, error) {
	m.calls = append(m.calls, "add")
	if m.err != nil {
		return nil, m.err
	}
	m.records = append(m.records, record)
	return m.records, nil
}

func (m *mockCollectionRepo) Update(ctx context.Context, recordType string, owner domain.Owner, recordID string, patch domain.Record) ([]domain.Record, error) {
	m.calls = append(m.calls, "update")
	return m.records, m.err
}

func (m *mockCollectionRepo) Delete(ctx context.Context, recordType string, owner domain.Owner, recordID string) ([]domain.Record, error) {
	m.calls = append(m.calls, "delete")
	return m.records, m.err
}

func (m *mockCollectionRepo) Save(ctx context.Context, recordType string, owner domain.Owner, records []domain.Record) error {
	m.calls = append(m.calls, "save")
	return m.err
}

type mockPublisher struct {
	events []domain.AchievementEvent
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, event domain.AchievementEvent) error {
	m.events = append(m.events, event)
	return m.err
}

type mockRegistryRepo struct {
	entries utils.OrderedKVMap[domain.Record]
	saves   int
	gets    int
	fresh   int
	getErr  error
	saveErr error
}

func newMockRegistryRepo() *mockRegistryRepo {
	return &mockRegistryRepo{entries: utils.OrderedKVMap[domain.Record]{}}
}

func (m *mockRegistryRepo) GetOne(ctx context.Context, recordType, key string) (domain.Record, error) {
	m.gets++
	if domain.FreshReads(ctx) {
		m.fresh++
	}
	if m.getErr != nil {
		return nil, m.getErr
	}
	r, ok := m.entries.Get(recordType + "/" + key)
	if !ok {
		return nil, nil
	}
	return r, nil
}

func (m *mockRegistryRepo) GetAll(ctx context.Context, recordType string) (utils.OrderedKVMap[domain.Record], error) {
	return m.entries, m.getErr
}

func (m *mockRegistryRepo) Save(ctx context.Context, recordType, key string, record domain.Record) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.entries.Set(recordType+"/"+key, record)
	return nil
}

func (m *mockRegistryRepo) Delete(ctx context.Context, recordType, key string) error {
	m.entries.Delete(recordType + "/" + key)
	return nil
}

type mockLocker struct {
	locked   []string
	released int
}

func (m *mockLocker) Lock(ctx context.Context, key string) (func(), error) {
	m.locked = append(m.locked, key)
	return func() { m.released++ }, nil
}
