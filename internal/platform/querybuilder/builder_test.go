package querybuilder

import "testing"

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("*").
		From("league_tables").
		Where(Eq("league_public_id", "idn-liga-1"), Eq("season", "2025/2026"), Live()).
		OrderBy("position ASC").
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT * FROM league_tables WHERE league_public_id = $1 AND season = $2 AND deleted_at IS NULL ORDER BY position ASC"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "idn-liga-1" || args[1] != "2025/2026" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_InAndLimit(t *testing.T) {
	query, args, err := Select("id").
		From("standings_snapshots").
		Where(In("status", []any{"FT", "AET"}), Live()).
		Limit(5).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id FROM standings_snapshots WHERE status IN ($1, $2) AND deleted_at IS NULL LIMIT 5"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_EmptyInMatchesNothing(t *testing.T) {
	query, args, err := Select("id").
		From("standings_snapshots").
		Where(In("id", nil)).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id FROM standings_snapshots WHERE 1=0"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 0 {
		t.Fatalf("expected no args, got %+v", args)
	}
}

func TestInsertBuilder_UpsertSuffix(t *testing.T) {
	query, args, err := InsertInto("matches").
		Columns("public_id", "status").
		Values("mx-001", "FT").
		Suffix("ON CONFLICT (public_id) DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO matches (public_id, status) VALUES ($1, $2) ON CONFLICT (public_id) DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "mx-001" || args[1] != "FT" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder_RowLengthMismatch(t *testing.T) {
	_, _, err := InsertInto("matches").
		Columns("public_id", "status").
		Values("mx-001").
		ToSQL()
	if err == nil {
		t.Fatal("expected error for short row")
	}
}

func TestUpdateBuilder_SoftDelete(t *testing.T) {
	query, args, err := Update("league_tables").
		SetExpr("deleted_at", "NOW()").
		Where(Eq("league_public_id", "idn-liga-1"), Eq("season", "2025/2026"), Live()).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE league_tables SET deleted_at = NOW() WHERE league_public_id = $1 AND season = $2 AND deleted_at IS NULL"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpdateBuilder_MixedSetAndExprArgs(t *testing.T) {
	query, args, err := Update("standings_snapshots").
		Set("reason", "manual").
		SetExpr("entries", "?::jsonb", `[]`).
		Where(Eq("public_id", "snap-1")).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE standings_snapshots SET reason = $1, entries = $2::jsonb WHERE public_id = $3"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != "manual" || args[1] != `[]` || args[2] != "snap-1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}
