package migrate

import (
	"strings"
	"testing"
)

func TestFiles_OrderedAndComplete(t *testing.T) {
	names, err := Files()
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	want := []string{"001_tables_bookings.sql", "002_outbox_inbox.sql", "003_event_retention.sql"}
	if len(names) != len(want) {
		t.Fatalf("unexpected migrations: %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("migration %d: got %q want %q", i, names[i], want[i])
		}
	}
}

func TestSchema_DeclaresOverlapExclusion(t *testing.T) {
	body, err := files.ReadFile("001_tables_bookings.sql")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	sql := string(body)
	for _, want := range []string{"btree_gist", "EXCLUDE USING gist", "tstzrange(start_time, end_time, '[)') WITH &&", "ON DELETE CASCADE"} {
		if !strings.Contains(sql, want) {
			t.Fatalf("schema missing %q", want)
		}
	}
}
