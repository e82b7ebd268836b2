package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return fmt.Sprintf("sess:%s", accessID)
}

func newTestManager(store *mockStore) *Manager {
	return &Manager{
		store: store,
		keyer: store,
		ttl:   time.Hour,
	}
}

func TestManagerGenerateAndRotate(t *testing.T) {
	store := newMockStore()
	manager := newTestManager(store)
	ctx := context.Background()

	accessID := NewAccessID()
	refresh, err := manager.Generate(ctx, accessID)
	if err != nil {
		t.Fatalf("generate session: %v", err)
	}
	if refresh == "" {
		t.Fatalf("expected non-empty refresh token")
	}

	has, err := manager.HasSession(ctx, accessID)
	if err != nil || !has {
		t.Fatalf("expected live session, got has=%v err=%v", has, err)
	}

	newAccessID, newRefresh, err := manager.Rotate(ctx, accessID, refresh)
	if err != nil {
		t.Fatalf("rotate session: %v", err)
	}
	if newAccessID == accessID {
		t.Fatalf("rotation must issue a new access id")
	}
	if newRefresh == refresh {
		t.Fatalf("rotation must issue a new refresh token")
	}

	has, err = manager.HasSession(ctx, accessID)
	if err != nil || has {
		t.Fatalf("old session should be revoked, got has=%v err=%v", has, err)
	}
	has, err = manager.HasSession(ctx, newAccessID)
	if err != nil || !has {
		t.Fatalf("new session should be active, got has=%v err=%v", has, err)
	}
}

func TestManagerRotateRejectsWrongToken(t *testing.T) {
	store := newMockStore()
	manager := newTestManager(store)
	ctx := context.Background()

	accessID := NewAccessID()
	if _, err := manager.Generate(ctx, accessID); err != nil {
		t.Fatalf("generate session: %v", err)
	}

	if _, _, err := manager.Rotate(ctx, accessID, "forged-token"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}

	has, err := manager.HasSession(ctx, accessID)
	if err != nil || !has {
		t.Fatalf("failed rotation must not revoke the session, got has=%v err=%v", has, err)
	}
}

func TestManagerRotateUnknownSession(t *testing.T) {
	manager := newTestManager(newMockStore())
	if _, _, err := manager.Rotate(context.Background(), NewAccessID(), "anything"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestManagerRevoke(t *testing.T) {
	store := newMockStore()
	manager := newTestManager(store)
	ctx := context.Background()

	accessID := NewAccessID()
	if _, err := manager.Generate(ctx, accessID); err != nil {
		t.Fatalf("generate session: %v", err)
	}
	if err := manager.Revoke(ctx, accessID); err != nil {
		t.Fatalf("revoke session: %v", err)
	}
	has, err := manager.HasSession(ctx, accessID)
	if err != nil || has {
		t.Fatalf("expected revoked session, got has=%v err=%v", has, err)
	}
}
