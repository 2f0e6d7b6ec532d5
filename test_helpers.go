package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// --- Mocks ---

// mockCache is a mock for the Cache interface.
type mockCache struct {
	getFunc   func(ctx context.Context, key string) (string, error)
	setFunc   func(ctx context.Context, key string, value any, expiration time.Duration) error
	flushFunc func(ctx context.Context) error
}

func (m *mockCache) Get(ctx context.Context, key string) (string, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, key)
	}
	return "", redis.Nil
}

func (m *mockCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if m.setFunc != nil {
		return m.setFunc(ctx, key, value, expiration)
	}
	return nil
}

func (m *mockCache) Flush(ctx context.Context) error {
	if m.flushFunc != nil {
		return m.flushFunc(ctx)
	}
	return nil
}

// mockStore is a safe mock for the storeQuerier interface. It fails the test
// if any unexpected method is called.
type mockStore struct {
	t *testing.T

	ListChecksFunc         func(ctx context.Context) ([]Check, error)
	CountChecksByStateFunc func(ctx context.Context) ([]StateCount, error)
	DeleteAllChecksFunc    func(ctx context.Context) error
}

func (m *mockStore) fail(method string) {
	m.t.Helper()
	m.t.Fatalf("unexpected call to mockStore method: %s", method)
}

func (m *mockStore) ListChecks(ctx context.Context) ([]Check, error) {
	if m.ListChecksFunc != nil {
		return m.ListChecksFunc(ctx)
	}
	m.fail("ListChecks")
	return nil, nil
}

func (m *mockStore) CountChecksByState(ctx context.Context) ([]StateCount, error) {
	if m.CountChecksByStateFunc != nil {
		return m.CountChecksByStateFunc(ctx)
	}
	m.fail("CountChecksByState")
	return nil, nil
}

func (m *mockStore) DeleteAllChecks(ctx context.Context) error {
	if m.DeleteAllChecksFunc != nil {
		return m.DeleteAllChecksFunc(ctx)
	}
	m.fail("DeleteAllChecks")
	return nil
}

// --- Fake emitter collaborators ---

type fakeQueryCounter int64

func (f fakeQueryCounter) QueryCount() int64 { return int64(f) }

type fakeCacheStats struct {
	reads  int64
	writes int64
}

func (f *fakeCacheStats) CacheReads() int64  { return f.reads }
func (f *fakeCacheStats) CacheWrites() int64 { return f.writes }

type fakeCompileCache struct {
	available bool
	cached    bool
}

func (f fakeCompileCache) Available() bool    { return f.available }
func (f fakeCompileCache) ModuleCached() bool { return f.cached }

// --- Test configuration ---

type testAPIConfig struct {
	apiConfig *apiConfig
	mockStore *mockStore
	mockCache *mockCache
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestAPIConfig builds an apiConfig with mock collaborators and a
// discarding logger, suitable for handler and scheduler tests.
func newTestAPIConfig(t *testing.T) *testAPIConfig {
	t.Helper()

	store := &mockStore{t: t}
	cache := &mockCache{}
	logger := testLogger()

	cfg := &apiConfig{
		store:           store,
		cache:           cache,
		emitter:         NewEmitter(false, logger),
		summaryInterval: 5 * time.Minute,
		port:            "8080",
		logger:          logger,
	}

	return &testAPIConfig{
		apiConfig: cfg,
		mockStore: store,
		mockCache: cache,
	}
}
