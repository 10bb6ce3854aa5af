package quota

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/apifootball-client/pkg/storage"
	"github.com/rs/zerolog"
)

func newTestTracker(t *testing.T, limit int) (*Tracker, *storage.MemoryStore, *time.Time) {
	t.Helper()
	store := storage.NewMemoryStore()
	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)
	tr := NewTracker(store, limit, logger)

	now := time.Date(2024, time.March, 9, 10, 0, 0, 0, time.UTC)
	tr.SetClock(func() time.Time { return now })
	return tr, store, &now
}

func TestNewTracker_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewTracker should panic with nil store")
		}
	}()
	NewTracker(nil, 100, zerolog.Nop())
}

func TestNewTracker_DefaultLimit(t *testing.T) {
	tr := NewTracker(storage.NewMemoryStore(), 0, zerolog.Nop())
	if tr.Limit() != DefaultDailyLimit {
		t.Errorf("Limit() = %d, want %d", tr.Limit(), DefaultDailyLimit)
	}
}

func TestToday_Format(t *testing.T) {
	got := Today(time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC))
	if got != "Sat Mar 09 2024" {
		t.Errorf("Today() = %q, want %q", got, "Sat Mar 09 2024")
	}
}

func TestUsageOf(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		limit     int
		remaining int
		percent   int
		exhausted bool
		near      bool
	}{
		{"fresh day", 0, 100, 100, 0, false, false},
		{"partial", 37, 100, 63, 37, false, false},
		{"near limit", 80, 100, 20, 80, false, true},
		{"at limit", 100, 100, 0, 100, true, true},
		{"over limit clamps remaining", 120, 100, 0, 120, true, true},
		{"rounds percentage", 1, 3, 2, 33, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := UsageOf(Counter{Count: tt.count, Date: "d"}, tt.limit)
			if u.Remaining != tt.remaining {
				t.Errorf("Remaining = %d, want %d", u.Remaining, tt.remaining)
			}
			if u.Percentage != tt.percent {
				t.Errorf("Percentage = %d, want %d", u.Percentage, tt.percent)
			}
			if u.Exhausted() != tt.exhausted {
				t.Errorf("Exhausted() = %v, want %v", u.Exhausted(), tt.exhausted)
			}
			if u.NearLimit() != tt.near {
				t.Errorf("NearLimit() = %v, want %v", u.NearLimit(), tt.near)
			}
		})
	}
}

func TestTracker_IncrementAndUsage(t *testing.T) {
	tr, _, _ := newTestTracker(t, 100)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := tr.Increment(ctx); err != nil {
			t.Fatalf("Increment: %v", err)
		}
	}

	u := tr.Usage(ctx)
	if u.Used != 3 || u.Remaining != 97 || u.Percentage != 3 {
		t.Errorf("Usage = %+v, want used=3 remaining=97 percentage=3", u)
	}
	if u.Date != "Sat Mar 09 2024" {
		t.Errorf("Usage.Date = %q", u.Date)
	}
}

func TestTracker_DayRollover(t *testing.T) {
	tr, store, now := newTestTracker(t, 100)
	ctx := context.Background()

	_ = store.Set(ctx, StorageKey, []byte(`{"count":42,"date":"Fri Mar 08 2024"}`))

	if u := tr.Usage(ctx); u.Used != 0 {
		t.Errorf("Usage on new day = %d, want 0", u.Used)
	}

	c, err := tr.Increment(ctx)
	if err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if c.Count != 1 || c.Date != Today(*now) {
		t.Errorf("Increment on new day = %+v, want count 1 dated today", c)
	}
}

func TestTracker_MalformedCounter(t *testing.T) {
	tr, store, _ := newTestTracker(t, 100)
	ctx := context.Background()

	_ = store.Set(ctx, StorageKey, []byte(`not json`))

	if u := tr.Usage(ctx); u.Used != 0 {
		t.Errorf("Usage with malformed counter = %d, want 0", u.Used)
	}
	if err := tr.Check(ctx); err != nil {
		t.Errorf("Check with malformed counter = %v, want nil", err)
	}
}

func TestTracker_CheckBlocksAtLimit(t *testing.T) {
	tr, store, _ := newTestTracker(t, 100)
	ctx := context.Background()

	tests := []struct {
		name    string
		count   int
		wantErr bool
	}{
		{"below limit", 99, false},
		{"at limit", 100, true},
		{"beyond limit", 150, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := fmt.Sprintf(`{"count":%d,"date":"Sat Mar 09 2024"}`, tt.count)
			_ = store.Set(ctx, StorageKey, []byte(c))

			err := tr.Check(ctx)
			if tt.wantErr && !errors.Is(err, ErrQuotaExceeded) {
				t.Errorf("Check() = %v, want ErrQuotaExceeded", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Check() = %v, want nil", err)
			}
		})
	}
}

func TestTracker_Reset(t *testing.T) {
	tr, store, _ := newTestTracker(t, 100)
	ctx := context.Background()

	_, _ = tr.Increment(ctx)
	if err := tr.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := store.Get(ctx, StorageKey); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("counter still stored after Reset: %v", err)
	}
	if u := tr.Usage(ctx); u.Used != 0 {
		t.Errorf("Usage after Reset = %d, want 0", u.Used)
	}
}

func TestTracker_SyncWithRemote_MaxWins(t *testing.T) {
	tests := []struct {
		name   string
		local  int
		remote int
		want   int
	}{
		{"remote ahead", 10, 25, 25},
		{"remote behind", 30, 12, 30},
		{"equal", 7, 7, 7},
		{"remote zero", 5, 0, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, _, _ := newTestTracker(t, 100)
			ctx := context.Background()

			for i := 0; i < tt.local; i++ {
				_, _ = tr.Increment(ctx)
			}

			u, err := tr.SyncWithRemote(ctx, tt.remote)
			if err != nil {
				t.Fatalf("SyncWithRemote: %v", err)
			}
			if u.Used != tt.want {
				t.Errorf("SyncWithRemote returned used=%d, want %d", u.Used, tt.want)
			}
			if got := tr.Usage(ctx).Used; got != tt.want {
				t.Errorf("stored used=%d, want %d", got, tt.want)
			}
		})
	}
}

func TestTracker_ConcurrentIncrement(t *testing.T) {
	tr, _, _ := newTestTracker(t, 1000)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = tr.Increment(ctx)
		}()
	}
	wg.Wait()

	if got := tr.Usage(ctx).Used; got != 50 {
		t.Errorf("Used after 50 concurrent increments = %d, want 50", got)
	}
}

