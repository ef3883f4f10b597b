package repository

import (
	"strings"
	"testing"
)

func TestCHHistoryStoreRejectsBadIdentifiers(t *testing.T) {
	cases := []struct{ db, table string }{
		{"market", "daily_closes; DROP TABLE x"},
		{"", "daily_closes"},
		{"market", "1bad"},
	}
	for _, c := range cases {
		if _, err := newCHHistoryStore(nil, c.db, c.table); err == nil {
			t.Fatalf("expected error for %q.%q", c.db, c.table)
		}
	}
}

func TestCHHistoryStoreSchema(t *testing.T) {
	s, err := newCHHistoryStore(nil, "market", "daily_closes")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ddl := s.Schema()
	if len(ddl) != 1 || !strings.Contains(ddl[0], "market.daily_closes") || !strings.Contains(ddl[0], "ReplacingMergeTree") {
		t.Fatalf("unexpected schema %v", ddl)
	}
	if s.Name() != "clickhouse" {
		t.Fatalf("name %s", s.Name())
	}
}
