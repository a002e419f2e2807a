package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/gamewiki/issuestore"
	"github.com/gamewiki/issuestore/internal/domain"
	"github.com/gamewiki/issuestore/internal/usecase"
)

// fakeGateway is an in-memory issue tracker.
type fakeGateway struct {
	mu          sync.Mutex
	tickets     map[int]*domain.Ticket
	comments    map[int64]string
	nextTicket  int
	nextComment int64

	calls       []string
	commentGets []int64
	failures    map[string]error
}

var _ usecase.TicketGateway = (*fakeGateway)(nil)

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		tickets:     map[int]*domain.Ticket{},
		comments:    map[int64]string{},
		nextTicket:  1,
		nextComment: 100,
		failures:    map[string]error{},
	}
}

func (f *fakeGateway) record(op string) error {
	f.calls = append(f.calls, op)
	return f.failures[op]
}

func (f *fakeGateway) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (f *fakeGateway) addTicket(title, body string, labels ...string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.nextTicket
	f.nextTicket++
	f.tickets[n] = &domain.Ticket{Number: n, Title: title, Body: body, Labels: labels, State: "open"}
	return n
}

func (f *fakeGateway) addComment(id int64, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments[id] = body
}

func (f *fakeGateway) ticket(n int) domain.Ticket {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.tickets[n]
}

func (f *fakeGateway) ListByLabels(ctx context.Context, labels []string) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListByLabels"); err != nil {
		return nil, err
	}
	var out []domain.Ticket
	for _, t := range f.tickets {
		match := true
		for _, l := range labels {
			if !issuestore.HasLabel(t.Labels, l) {
				match = false
				break
			}
		}
		if match {
			c := *t
			c.Labels = append([]string(nil), t.Labels...)
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	return out, nil
}

func (f *fakeGateway) CreateTicket(ctx context.Context, title, body string, labels []string) (domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateTicket"); err != nil {
		return domain.Ticket{}, err
	}
	n := f.nextTicket
	f.nextTicket++
	t := &domain.Ticket{Number: n, Title: title, Body: body, Labels: append([]string(nil), labels...), State: "open"}
	f.tickets[n] = t
	return *t, nil
}

func (f *fakeGateway) UpdateTicket(ctx context.Context, number int, patch domain.TicketPatch) (domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateTicket"); err != nil {
		return domain.Ticket{}, err
	}
	t, ok := f.tickets[number]
	if !ok {
		return domain.Ticket{}, domain.NotFoundError{Resource: "ticket"}
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Body != nil {
		t.Body = *patch.Body
	}
	return *t, nil
}

func (f *fakeGateway) AddLabel(ctx context.Context, number int, label string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("AddLabel"); err != nil {
		return err
	}
	t, ok := f.tickets[number]
	if !ok {
		return domain.NotFoundError{Resource: "ticket"}
	}
	if !issuestore.HasLabel(t.Labels, label) {
		t.Labels = append(t.Labels, label)
	}
	return nil
}

func (f *fakeGateway) LockTicket(ctx context.Context, number int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("LockTicket"); err != nil {
		return err
	}
	t, ok := f.tickets[number]
	if !ok {
		return domain.NotFoundError{Resource: "ticket"}
	}
	t.Locked = true
	return nil
}

func (f *fakeGateway) CreateComment(ctx context.Context, number int, body string) (domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateComment"); err != nil {
		return domain.Comment{}, err
	}
	if _, ok := f.tickets[number]; !ok {
		return domain.Comment{}, domain.NotFoundError{Resource: "ticket"}
	}
	id := f.nextComment
	f.nextComment++
	f.comments[id] = body
	return domain.Comment{ID: id, Body: body}, nil
}

func (f *fakeGateway) UpdateComment(ctx context.Context, commentID int64, body string) (domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateComment"); err != nil {
		return domain.Comment{}, err
	}
	if _, ok := f.comments[commentID]; !ok {
		return domain.Comment{}, domain.NotFoundError{Resource: "comment"}
	}
	f.comments[commentID] = body
	return domain.Comment{ID: commentID, Body: body}, nil
}

func (f *fakeGateway) DeleteComment(ctx context.Context, commentID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteComment"); err != nil {
		return err
	}
	if _, ok := f.comments[commentID]; !ok {
		return domain.NotFoundError{Resource: "comment"}
	}
	delete(f.comments, commentID)
	return nil
}

func (f *fakeGateway) GetComment(ctx context.Context, commentID int64) (domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commentGets = append(f.commentGets, commentID)
	if err := f.record("GetComment"); err != nil {
		return domain.Comment{}, err
	}
	body, ok := f.comments[commentID]
	if !ok {
		return domain.Comment{}, domain.NotFoundError{Resource: "comment"}
	}
	return domain.Comment{ID: commentID, Body: body}, nil
}

type recordingLocker struct {
	mu       sync.Mutex
	keys     []string
	released int
}

func (l *recordingLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released++
	}, nil
}
