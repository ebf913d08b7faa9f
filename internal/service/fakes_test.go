package service

import (
	"context"
	"errors"
	"sync"

	"bizkit/internal/mailer"
	"bizkit/internal/model"
	"bizkit/internal/repository"
)

type fakeUsers struct {
	mu     sync.Mutex
	byMail map[string]*model.User
	nextID int
	err    error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byMail: map[string]*model.User{}}
}

func (f *fakeUsers) CreateUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.nextID++
	u.ID = f.nextID
	cp := *u
	f.byMail[u.Email] = &cp
	return nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byMail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByID(_ context.Context, id int) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byMail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

type fakeChatStore struct {
	mu   sync.Mutex
	msgs []model.ChatMessage
	err  error
}

func (f *fakeChatStore) Append(_ context.Context, m *model.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	m.ID = len(f.msgs) + 1
	f.msgs = append(f.msgs, *m)
	return nil
}

func (f *fakeChatStore) List(_ context.Context, limit int) ([]model.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.ChatMessage(nil), f.msgs...), nil
}

type fakeTransport struct {
	mu       sync.Mutex
	sent     []mailer.Message
	err      error
	verifyOK bool
}

func (f *fakeTransport) Send(_ context.Context, msg mailer.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "<msg-1@bizkit>", nil
}

func (f *fakeTransport) Verify(context.Context) error {
	if f.verifyOK {
		return nil
	}
	return errors.New("535 5.7.8 Username and Password not accepted")
}

type published struct {
	key   string
	event model.EmailDeliveryEvent
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, key string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, published{key: key, event: payload.(model.EmailDeliveryEvent)})
	return nil
}
