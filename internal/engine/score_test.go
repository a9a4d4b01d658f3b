package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/engramlabs/engram/internal/config"
	"github.com/engramlabs/engram/internal/store"
)

func TestFreshPinnedRecordIsHot(t *testing.T) {
	eng, _ := testEngine(t)

	rec, err := eng.Remember("coding-style", json.RawMessage(`{"tabs":true}`), "user_preferences", nil)
	if err != nil {
		t.Fatalf("Remember: %v", err)
	}
	if rec.StorageTier != store.TierHot {
		t.Errorf("tier = %q, want hot (pinned type, fresh)", rec.StorageTier)
	}
}

func TestFreshGenericRecordIsWarm(t *testing.T) {
	eng, _ := testEngine(t)

	rec, err := eng.Remember("note", json.RawMessage(`{"a":1}`), "general", nil)
	if err != nil {
		t.Fatalf("Remember: %v", err)
	}
	if rec.StorageTier != store.TierWarm {
		t.Errorf("tier = %q, want warm (generic type, fresh)", rec.StorageTier)
	}
}

func TestStaleGenericRecordGoesCold(t *testing.T) {
	eng, db := testEngine(t)

	eng.Remember("stale", json.RawMessage(`{"a":1}`), "general", nil)

	// Backdate the last access by 30 days.
	past := time.Now().AddDate(0, 0, -30).UnixMilli()
	if _, err := db.Exec(`UPDATE memories SET accessed_at = ? WHERE key = 'stale'`, past); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	changed, err := eng.Rebalance()
	if err != nil {
		t.Fatalf("Rebalance: %v", err)
	}
	if changed != 1 {
		t.Errorf("changed = %d, want 1", changed)
	}

	rec, err := db.PeekRecord("stale")
	if err != nil {
		t.Fatalf("PeekRecord: %v", err)
	}
	if rec.StorageTier != store.TierCold {
		t.Errorf("tier = %q, want cold after 30 idle days", rec.StorageTier)
	}
}

func TestStalePinnedRecordStaysRetrievable(t *testing.T) {
	eng, db := testEngine(t)

	eng.Remember("prefs", json.RawMessage(`{"a":1}`), "user_preferences", nil)

	past := time.Now().AddDate(0, 0, -90).UnixMilli()
	if _, err := db.Exec(`UPDATE memories SET accessed_at = ? WHERE key = 'prefs'`, past); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	if _, err := eng.Rebalance(); err != nil {
		t.Fatalf("Rebalance: %v", err)
	}

	rec, err := db.PeekRecord("prefs")
	if err != nil {
		t.Fatalf("PeekRecord: %v", err)
	}
	if rec.StorageTier == store.TierCold {
		t.Error("pinned type must never sink to cold on recency alone")
	}
}

func TestRebalanceUpdatesStats(t *testing.T) {
	eng, db := testEngine(t)

	eng.Remember("a", json.RawMessage(`1`), "user_preferences", nil)
	eng.Remember("b", json.RawMessage(`1`), "general", nil)
	eng.Remember("c", json.RawMessage(`1`), "general", nil)

	past := time.Now().AddDate(0, 0, -60).UnixMilli()
	if _, err := db.Exec(`UPDATE memories SET accessed_at = ? WHERE key = 'c'`, past); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	if _, err := eng.Rebalance(); err != nil {
		t.Fatalf("Rebalance: %v", err)
	}

	stats, err := eng.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Hot != 1 || stats.Warm != 1 || stats.Cold != 1 {
		t.Errorf("hot/warm/cold = %d/%d/%d, want 1/1/1", stats.Hot, stats.Warm, stats.Cold)
	}
}

func TestRebalanceEmptyStore(t *testing.T) {
	eng, _ := testEngine(t)

	changed, err := eng.Rebalance()
	if err != nil {
		t.Fatalf("Rebalance: %v", err)
	}
	if changed != 0 {
		t.Errorf("changed = %d, want 0", changed)
	}
}

func TestTierForThresholds(t *testing.T) {
	eng := New(nil, config.Default())

	cases := []struct {
		score float64
		want  string
	}{
		{2.5, store.TierHot},
		{2.0, store.TierHot}, // boundary is inclusive
		{1.99, store.TierWarm},
		{0.5, store.TierWarm},
		{0.49, store.TierCold},
		{0, store.TierCold},
	}
	for _, c := range cases {
		if got := eng.tierFor(c.score); got != c.want {
			t.Errorf("tierFor(%f) = %q, want %q", c.score, got, c.want)
		}
	}
}

func TestScoreMonotonicInFrequency(t *testing.T) {
	eng := New(nil, config.Default())
	now := time.Now()

	low := eng.score(now, "general", 1, now.UnixMilli())
	high := eng.score(now, "general", 100, now.UnixMilli())
	if high <= low {
		t.Errorf("score should grow with access count: %f <= %f", high, low)
	}
}

func TestScoreDecaysWithAge(t *testing.T) {
	eng := New(nil, config.Default())
	// Millisecond precision, matching stored accessed_at: a fresh record
	// must score exactly like a clamped future one.
	now := time.UnixMilli(time.Now().UnixMilli())

	fresh := eng.score(now, "general", 1, now.UnixMilli())
	old := eng.score(now, "general", 1, now.AddDate(0, 0, -14).UnixMilli())
	if old >= fresh {
		t.Errorf("score should decay with age: %f >= %f", old, fresh)
	}

	// Clock skew: a future accessed_at clamps to zero age.
	future := eng.score(now, "general", 1, now.Add(time.Hour).UnixMilli())
	if future != fresh {
		t.Errorf("future accessed_at should clamp: %f != %f", future, fresh)
	}
}
