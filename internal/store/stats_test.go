package store

import (
	"testing"
)

func TestStatsStartEmpty(t *testing.T) {
	db := testDB(t)

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Total != 0 || stats.TotalAccessCount != 0 {
		t.Errorf("fresh stats = %+v, want zeros", stats)
	}
}

func TestStatsRefreshedOnUpsert(t *testing.T) {
	db := testDB(t)

	mustUpsert(t, db, "a", `1`, "general", TierHot)
	mustUpsert(t, db, "b", `1`, "general", TierWarm)
	mustUpsert(t, db, "b", `2`, "general", TierWarm)

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("total = %d, want 2", stats.Total)
	}
	if stats.Hot != 1 || stats.Warm != 1 || stats.Cold != 0 {
		t.Errorf("hot/warm/cold = %d/%d/%d, want 1/1/0", stats.Hot, stats.Warm, stats.Cold)
	}
	// a written once, b written twice.
	if stats.TotalAccessCount != 3 {
		t.Errorf("total_access_count = %d, want 3", stats.TotalAccessCount)
	}
	if stats.LastUpdate == 0 {
		t.Error("last_update not set")
	}
}

func TestStatsRecountAuthoritative(t *testing.T) {
	db := testDB(t)

	mustUpsert(t, db, "a", `1`, "general", TierHot)

	// Poison the cache; a refresh overwrites it from the record table.
	if _, err := db.Exec(`UPDATE memory_stats SET total = 999, hot = 999 WHERE id = 1`); err != nil {
		t.Fatalf("poison stats: %v", err)
	}

	if err := db.RefreshStats(); err != nil {
		t.Fatalf("RefreshStats: %v", err)
	}

	stats, _ := db.GetStats()
	if stats.Total != 1 || stats.Hot != 1 {
		t.Errorf("stats after refresh = %+v, want total=1 hot=1", stats)
	}
}
