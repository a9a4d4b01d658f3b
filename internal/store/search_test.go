package store

import (
	"testing"
)

func TestSearchTextMatches(t *testing.T) {
	db := testDB(t)

	mustUpsert(t, db, "coding-style", `{"note":"prefers tabs over spaces"}`, "user_preferences", TierHot)
	mustUpsert(t, db, "lunch", `{"note":"burrito friday"}`, "general", TierWarm)

	hits, err := db.SearchText("tabs", 10)
	if err != nil {
		t.Fatalf("SearchText: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].Key != "coding-style" {
		t.Errorf("key = %q, want coding-style", hits[0].Key)
	}
	if hits[0].Rank <= 0 {
		t.Errorf("rank = %f, want > 0", hits[0].Rank)
	}
}

func TestSearchMatchesKeyAndType(t *testing.T) {
	db := testDB(t)

	mustUpsert(t, db, "deploy-checklist", `{"steps":3}`, "general", TierWarm)

	// Key tokens are indexed.
	hits, err := db.SearchText("checklist", 10)
	if err != nil {
		t.Fatalf("SearchText: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("key match: got %d hits, want 1", len(hits))
	}

	// Type tokens are indexed too.
	mustUpsert(t, db, "prefs", `{"a":1}`, "user_preferences", TierHot)
	hits, err = db.SearchText("user_preferences", 10)
	if err != nil {
		t.Fatalf("SearchText: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("type match: got %d hits, want 1", len(hits))
	}
}

func TestSearchExcludesCold(t *testing.T) {
	db := testDB(t)

	mustUpsert(t, db, "archived", `{"topic":"glaciers"}`, "general", TierCold)
	mustUpsert(t, db, "current", `{"topic":"glaciers"}`, "general", TierWarm)

	hits, err := db.SearchText("glaciers", 10)
	if err != nil {
		t.Fatalf("SearchText: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1 (cold excluded)", len(hits))
	}
	if hits[0].Key != "current" {
		t.Errorf("key = %q, want current", hits[0].Key)
	}
}

func TestSearchIndexFollowsUpdates(t *testing.T) {
	db := testDB(t)

	mustUpsert(t, db, "k", `{"animal":"walrus"}`, "general", TierWarm)
	mustUpsert(t, db, "k", `{"animal":"penguin"}`, "general", TierWarm)

	hits, _ := db.SearchText("walrus", 10)
	if len(hits) != 0 {
		t.Errorf("stale term still indexed: got %d hits, want 0", len(hits))
	}
	hits, _ = db.SearchText("penguin", 10)
	if len(hits) != 1 {
		t.Errorf("new term not indexed: got %d hits, want 1", len(hits))
	}
}

func TestSearchNoMatch(t *testing.T) {
	db := testDB(t)

	mustUpsert(t, db, "k", `{"a":1}`, "general", TierWarm)

	hits, err := db.SearchText("nonexistent-term-xyz", 10)
	if err != nil {
		t.Fatalf("SearchText: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d hits, want 0", len(hits))
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	db := testDB(t)

	hits, err := db.SearchText("", 10)
	if err != nil {
		t.Fatalf("SearchText: %v", err)
	}
	if hits != nil {
		t.Errorf("got %v, want nil", hits)
	}

	hits, err = db.SearchText("   ", 10)
	if err != nil {
		t.Fatalf("SearchText whitespace: %v", err)
	}
	if hits != nil {
		t.Errorf("whitespace query: got %v, want nil", hits)
	}
}

func TestSearchNeutralizesOperators(t *testing.T) {
	db := testDB(t)

	mustUpsert(t, db, "k", `{"a":1}`, "general", TierWarm)

	// FTS5 syntax in user input must not break the statement.
	for _, q := range []string{`"unbalanced`, `a AND b OR`, `col:value`, `tabs*`, `(paren`, `-x`} {
		if _, err := db.SearchText(q, 10); err != nil {
			t.Errorf("query %q: unexpected error: %v", q, err)
		}
	}
}

func TestEscapeFTSQuery(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"hello", `"hello"`},
		{"hello world", `"hello" "world"`},
		{`say "hi"`, `"say" """hi"""`},
		{"", ""},
		{"   ", ""},
	}
	for _, c := range cases {
		if got := escapeFTSQuery(c.in); got != c.want {
			t.Errorf("escapeFTSQuery(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRebuildSearchIndex(t *testing.T) {
	db := testDB(t)

	mustUpsert(t, db, "k", `{"animal":"walrus"}`, "general", TierWarm)

	if err := db.RebuildSearchIndex(); err != nil {
		t.Fatalf("RebuildSearchIndex: %v", err)
	}

	hits, err := db.SearchText("walrus", 10)
	if err != nil {
		t.Fatalf("SearchText after rebuild: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("got %d hits after rebuild, want 1", len(hits))
	}
}
