package budget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/shopdex/internal/db"
)

// --- Mocks ---

type expireCall struct {
	key string
	ttl time.Duration
	nx  bool
}

type mockKV struct {
	data      map[string][]byte
	incrs     map[string]int64
	expires   []expireCall
	getErr    error
	incrErr   error
	expireErr error
}

func newMockKV() *mockKV {
	return &mockKV{data: make(map[string][]byte), incrs: make(map[string]int64)}
}

func (m *mockKV) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKV) IncrBy(_ context.Context, key string, val int64) error {
	if m.incrErr != nil {
		return m.incrErr
	}
	m.incrs[key] += val
	return nil
}

func (m *mockKV) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	if m.expireErr != nil {
		return m.expireErr
	}
	m.expires = append(m.expires, expireCall{key: key, ttl: ttl, nx: nx})
	return nil
}

const (
	dailyKey   = "shopdex:budget:intent:daily:2026-10-15"
	monthlyKey = "shopdex:budget:intent:monthly:2026-10"
)

// --- Tests ---

func TestIncrBy_SetsPeriodTTL(t *testing.T) {
	kv := newMockKV()
	s := New(kv, 48*time.Hour, 62*24*time.Hour)

	if err := s.IncrBy(context.Background(), dailyKey, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.IncrBy(context.Background(), monthlyKey, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if kv.incrs[dailyKey] != 10 || kv.incrs[monthlyKey] != 10 {
		t.Errorf("incrs = %v", kv.incrs)
	}
	want := []expireCall{
		{key: dailyKey, ttl: 48 * time.Hour, nx: true},
		{key: monthlyKey, ttl: 62 * 24 * time.Hour, nx: true},
	}
	for i, w := range want {
		if kv.expires[i] != w {
			t.Errorf("expire[%d] = %+v, want %+v", i, kv.expires[i], w)
		}
	}
}

func TestIncrBy_Errors(t *testing.T) {
	boom := errors.New("boom")

	kv := newMockKV()
	kv.incrErr = boom
	if err := New(kv, time.Hour, time.Hour).IncrBy(context.Background(), dailyKey, 1); !errors.Is(err, boom) {
		t.Errorf("incr error = %v", err)
	}
	if len(kv.expires) != 0 {
		t.Error("expire must not run after a failed increment")
	}

	kv = newMockKV()
	kv.expireErr = boom
	if err := New(kv, time.Hour, time.Hour).IncrBy(context.Background(), dailyKey, 1); !errors.Is(err, boom) {
		t.Errorf("expire error = %v", err)
	}
}

func TestGet(t *testing.T) {
	kv := newMockKV()
	kv.data[dailyKey] = []byte("1234")
	s := New(kv, time.Hour, time.Hour)

	got, err := s.Get(context.Background(), dailyKey)
	if err != nil || got != 1234 {
		t.Errorf("Get = %d, %v; want 1234", got, err)
	}
}

func TestGet_MissingIsZero(t *testing.T) {
	s := New(newMockKV(), time.Hour, time.Hour)

	got, err := s.Get(context.Background(), monthlyKey)
	if err != nil || got != 0 {
		t.Errorf("Get = %d, %v; want 0, nil", got, err)
	}
}

func TestGet_Errors(t *testing.T) {
	kv := newMockKV()
	kv.data[dailyKey] = []byte("not-a-number")
	if _, err := New(kv, time.Hour, time.Hour).Get(context.Background(), dailyKey); err == nil {
		t.Error("expected parse error")
	}

	kv = newMockKV()
	kv.getErr = context.DeadlineExceeded
	if _, err := New(kv, time.Hour, time.Hour).Get(context.Background(), dailyKey); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected wrapped deadline error, got %v", err)
	}
}

func TestTTLFor(t *testing.T) {
	s := New(newMockKV(), time.Hour, 2*time.Hour)
	tests := []struct {
		key  string
		want time.Duration
	}{
		{dailyKey, time.Hour},
		{monthlyKey, 2 * time.Hour},
		// "daily" inside a consumer name is not the period segment
		{"shopdex:budget:dailydeals:monthly:2026-10", 2 * time.Hour},
	}
	for _, tt := range tests {
		if got := s.ttlFor(tt.key); got != tt.want {
			t.Errorf("ttlFor(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
