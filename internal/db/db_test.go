package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := Open(filepath.Join(t.TempDir(), "sct.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestCacheRowRoundTrip(t *testing.T) {
	conn := openTestDB(t)

	if _, ok, err := GetCachedMetrics(conn, "p1", "Mira", 1, 3, "fp", "cfg"); err != nil {
		t.Fatalf("get on empty table: %v", err)
	} else if ok {
		t.Fatal("empty table must miss")
	}

	if err := PutCachedMetrics(conn, "p1", "Mira", 1, 3, "fp", "cfg", []byte(`{"sample_size":10}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	data, ok, err := GetCachedMetrics(conn, "p1", "Mira", 1, 3, "fp", "cfg")
	if err != nil || !ok {
		t.Fatalf("get after put, ok=%v err=%v", ok, err)
	}
	if string(data) != `{"sample_size":10}` {
		t.Fatalf("unexpected payload %s", data)
	}
}

func TestCacheRowKeyIsFullTuple(t *testing.T) {
	conn := openTestDB(t)
	if err := PutCachedMetrics(conn, "p1", "Mira", 1, 3, "fp", "cfg", []byte("{}")); err != nil {
		t.Fatalf("put: %v", err)
	}

	variants := []struct {
		name                                       string
		project, character, fingerprint, cfg       string
		start, end                                 int
	}{
		{"other project", "p2", "Mira", "fp", "cfg", 1, 3},
		{"other character", "p1", "Tomas", "fp", "cfg", 1, 3},
		{"other range", "p1", "Mira", "fp", "cfg", 3, 5},
		{"other fingerprint", "p1", "Mira", "fp2", "cfg", 1, 3},
		{"other config", "p1", "Mira", "fp", "cfg2", 1, 3},
	}
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			if _, ok, err := GetCachedMetrics(conn, v.project, v.character, v.start, v.end, v.fingerprint, v.cfg); err != nil {
				t.Fatalf("get: %v", err)
			} else if ok {
				t.Fatal("lookup with a differing key field must miss")
			}
		})
	}
}

func TestCacheRowUpsertConverges(t *testing.T) {
	conn := openTestDB(t)
	for i := 0; i < 3; i++ {
		if err := PutCachedMetrics(conn, "p1", "Mira", 1, 3, "fp", "cfg", []byte(`{"v":3}`)); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
	}
	var count int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM speech_metrics_cache`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("repeated puts on one key must keep one row, got %d", count)
	}
	data, ok, err := GetCachedMetrics(conn, "p1", "Mira", 1, 3, "fp", "cfg")
	if err != nil || !ok || string(data) != `{"v":3}` {
		t.Fatalf("latest write should win, ok=%v err=%v data=%s", ok, err, data)
	}
}

func TestDeleteStaleCache(t *testing.T) {
	conn := openTestDB(t)
	seed := []struct {
		project, fingerprint string
		start                int
	}{
		{"p1", "fp-old", 1},
		{"p1", "fp-old", 3},
		{"p1", "fp-new", 1},
		{"p2", "fp-old", 1},
	}
	for _, s := range seed {
		if err := PutCachedMetrics(conn, s.project, "Mira", s.start, s.start+2, s.fingerprint, "cfg", []byte("{}")); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	n, err := DeleteStaleCache(conn, "p1", "fp-new")
	if err != nil {
		t.Fatalf("gc: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 stale rows removed, got %d", n)
	}
	if _, ok, _ := GetCachedMetrics(conn, "p1", "Mira", 1, 3, "fp-new", "cfg"); !ok {
		t.Fatal("current-fingerprint row must survive gc")
	}
	if _, ok, _ := GetCachedMetrics(conn, "p2", "Mira", 1, 3, "fp-old", "cfg"); !ok {
		t.Fatal("other project's rows must survive gc")
	}
	if _, err := DeleteStaleCache(conn, "p1", ""); err == nil {
		t.Fatal("gc with empty fingerprint must be refused")
	}
}

func TestReplaceAlertsAndQuery(t *testing.T) {
	conn := openTestDB(t)
	first := []AlertRow{
		{Character: "Mira", Window1Start: 1, Window1End: 3, Window2Start: 7, Window2End: 9, Confidence: 0.88, Severity: "high", Payload: []byte(`{"a":1}`)},
		{Character: "Tomas", Window1Start: 2, Window1End: 4, Window2Start: 5, Window2End: 7, Confidence: 0.71, Severity: "medium", Payload: []byte(`{"a":2}`)},
	}
	if err := ReplaceAlerts(conn, "p1", first); err != nil {
		t.Fatalf("replace: %v", err)
	}

	all, err := AlertsFor(conn, "p1", "")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(all))
	}
	if all[0].Character != "Mira" || all[1].Character != "Tomas" {
		t.Fatalf("alerts not ordered by character: %+v", all)
	}

	only, err := AlertsFor(conn, "p1", "Tomas")
	if err != nil {
		t.Fatalf("query one character: %v", err)
	}
	if len(only) != 1 || only[0].Severity != "medium" || string(only[0].Payload) != `{"a":2}` {
		t.Fatalf("unexpected filtered result: %+v", only)
	}

	// A rerun replaces, never appends.
	second := []AlertRow{
		{Character: "Mira", Window1Start: 1, Window1End: 3, Window2Start: 5, Window2End: 7, Confidence: 0.65, Severity: "low", Payload: []byte(`{"a":3}`)},
	}
	if err := ReplaceAlerts(conn, "p1", second); err != nil {
		t.Fatalf("replace again: %v", err)
	}
	all, err = AlertsFor(conn, "p1", "")
	if err != nil {
		t.Fatalf("query after rerun: %v", err)
	}
	if len(all) != 1 || all[0].Severity != "low" {
		t.Fatalf("rerun must swap the alert set: %+v", all)
	}
}
