package querybuilder

import (
	"strings"
	"testing"
)

type snapshotRow struct {
	PublicID string `db:"public_id"`
	Season   string `db:"season"`
	Entries  string `db:"entries"`
	Scratch  string `db:"-"`
	Note     string
}

func TestInsertModel_TaggedFieldsOnly(t *testing.T) {
	row := snapshotRow{
		PublicID: "snap-1",
		Season:   "2025/2026",
		Entries:  "[]",
		Scratch:  "dropped",
		Note:     "dropped",
	}

	sql, args, err := InsertModel("standings_snapshots", row, "ON CONFLICT (public_id) DO NOTHING")
	if err != nil {
		t.Fatalf("InsertModel: %v", err)
	}

	want := "INSERT INTO standings_snapshots (public_id, season, entries) VALUES ($1, $2, $3) ON CONFLICT (public_id) DO NOTHING"
	if sql != want {
		t.Fatalf("sql = %q, want %q", sql, want)
	}
	if len(args) != 3 || args[0] != "snap-1" || args[1] != "2025/2026" || args[2] != "[]" {
		t.Fatalf("args = %v", args)
	}
}

func TestInsertModel_PointerModel(t *testing.T) {
	row := &snapshotRow{PublicID: "snap-2", Season: "2025/2026", Entries: "[]"}

	sql, _, err := InsertModel("standings_snapshots", row, "")
	if err != nil {
		t.Fatalf("InsertModel: %v", err)
	}
	if strings.Contains(sql, "ON CONFLICT") {
		t.Fatalf("empty suffix leaked into sql: %q", sql)
	}
}

func TestInsertModel_RejectsUntaggedStruct(t *testing.T) {
	type bare struct{ Name string }

	if _, _, err := InsertModel("teams", bare{Name: "persebaya"}, ""); err == nil {
		t.Fatal("expected an error for a struct with no db tags")
	}
}

func TestInsertModel_RejectsNilPointer(t *testing.T) {
	var row *snapshotRow

	_, _, err := InsertModel("standings_snapshots", row, "")
	if err == nil || !strings.Contains(err.Error(), "nil") {
		t.Fatalf("err = %v, want a nil-model error", err)
	}
}
