package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ms := NewMemoryStore(0)
	ctx := context.Background()

	if _, err := ms.Load(ctx, 1); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Load on empty store err = %v", err)
	}

	in := &Session{Stage: StageAwaitingAssignees, Assignees: []string{"alice"}}
	if err := ms.Save(ctx, 1, in); err != nil {
		t.Fatal(err)
	}
	in.Assignees[0] = "mallory"

	got, err := ms.Load(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got.Assignees[0] != "alice" {
		t.Errorf("stored session aliased caller slice: %v", got.Assignees)
	}

	got.Assignees = append(got.Assignees, "bob")
	again, _ := ms.Load(ctx, 1)
	if len(again.Assignees) != 1 {
		t.Errorf("loaded session aliased store: %v", again.Assignees)
	}

	if err := ms.Delete(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := ms.Load(ctx, 1); !errors.Is(err, ErrNoSession) {
		t.Errorf("Load after delete err = %v", err)
	}
}

func TestMemoryStoreTTL(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	ms := NewMemoryStore(time.Hour)
	ms.now = func() time.Time { return now }
	ctx := context.Background()

	_ = ms.Save(ctx, 7, &Session{Stage: StageAwaitingStart})
	now = now.Add(30 * time.Minute)
	if _, err := ms.Load(ctx, 7); err != nil {
		t.Fatalf("fresh session: %v", err)
	}
	now = now.Add(2 * time.Hour)
	if _, err := ms.Load(ctx, 7); !errors.Is(err, ErrNoSession) {
		t.Errorf("expired session err = %v", err)
	}
}

func TestMemoryStorePurgeExpired(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	ms := NewMemoryStore(0)
	ms.now = func() time.Time { return now }
	ctx := context.Background()

	_ = ms.Save(ctx, 1, &Session{Stage: StageAwaitingStart})
	now = now.Add(time.Hour)
	_ = ms.Save(ctx, 2, &Session{Stage: StageAwaitingStart})

	n, err := ms.PurgeExpired(ctx, now.Add(-time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("purged %d, want 1", n)
	}
	if _, err := ms.Load(ctx, 2); err != nil {
		t.Errorf("recent session purged: %v", err)
	}
}

func TestExpired(t *testing.T) {
	now := time.Now()
	if Expired(now.Add(-time.Hour), 0, now) {
		t.Error("zero ttl expired")
	}
	if !Expired(now.Add(-2*time.Hour), time.Hour, now) {
		t.Error("old session not expired")
	}
}
