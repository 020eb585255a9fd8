package marketinfra

import "testing"

func TestWhere_Placeholders(t *testing.T) {
	var w where
	w.add("status = ?", "open")
	w.add("(title ILIKE ? OR description ILIKE ?)", "%a%", "%a%")
	limit := w.next(20)

	if got, want := w.sql(), " WHERE status = $1 AND (title ILIKE $2 OR description ILIKE $3)"; got != want {
		t.Fatalf("sql:\n got %q\nwant %q", got, want)
	}
	if limit != "$4" || len(w.args) != 4 {
		t.Fatalf("expected $4 with 4 args, got %s with %d", limit, len(w.args))
	}
}

func TestWhere_Empty(t *testing.T) {
	var w where
	if w.sql() != "" {
		t.Fatalf("expected empty clause, got %q", w.sql())
	}
}

func TestContains_EscapesWildcards(t *testing.T) {
	if got := contains(`50%_off\`); got != `%50\%\_off\\%` {
		t.Fatalf("unexpected pattern %q", got)
	}
}
