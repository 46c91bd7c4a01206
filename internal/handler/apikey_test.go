package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type fakeAuthCacheEvictor struct {
	evicted []string
	err     error
}

func (f *fakeAuthCacheEvictor) DeleteAuthContextByKeyID(_ context.Context, keyID string) error {
	f.evicted = append(f.evicted, keyID)
	return f.err
}

func TestAPIKeyHandler_EvictAuthCache(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("evicts by key id", func(t *testing.T) {
		t.Parallel()

		evictor := &fakeAuthCacheEvictor{}
		h := NewAPIKeyHandler(nil, evictor, logger)

		h.evictAuthCache(context.Background(), "01KEYREVOKED")

		if len(evictor.evicted) != 1 || evictor.evicted[0] != "01KEYREVOKED" {
			t.Errorf("evicted = %v, want [01KEYREVOKED]", evictor.evicted)
		}
	})

	t.Run("nil evictor is safe", func(t *testing.T) {
		t.Parallel()

		h := NewAPIKeyHandler(nil, nil, logger)
		h.evictAuthCache(context.Background(), "01KEY")
	})

	t.Run("eviction errors do not panic", func(t *testing.T) {
		t.Parallel()

		evictor := &fakeAuthCacheEvictor{err: errors.New("redis unavailable")}
		h := NewAPIKeyHandler(nil, evictor, logger)

		h.evictAuthCache(context.Background(), "01KEY")

		if len(evictor.evicted) != 1 {
			t.Error("eviction was not attempted")
		}
	})
}
