package archive

import (
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaVersion(t *testing.T) {
	db := testDB(t)

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 3 {
		t.Errorf("SchemaVersion = %d, want 3", v)
	}
}

func TestTablesExist(t *testing.T) {
	db := testDB(t)

	tables := []string{"schema_versions", "chats", "turns", "summaries"}
	for _, table := range tables {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestInitChatIdempotent(t *testing.T) {
	db := testDB(t)

	c1, err := db.InitChat("chat-1", "planning")
	if err != nil {
		t.Fatalf("InitChat: %v", err)
	}
	c2, err := db.InitChat("chat-1", "ignored")
	if err != nil {
		t.Fatalf("InitChat resume: %v", err)
	}
	if c1.ID != c2.ID {
		t.Errorf("resume returned different row: %d vs %d", c1.ID, c2.ID)
	}
	if c2.Title != "planning" {
		t.Errorf("title = %q, want original title kept", c2.Title)
	}
}

func TestArchiveChat(t *testing.T) {
	db := testDB(t)

	if _, err := db.InitChat("chat-1", ""); err != nil {
		t.Fatalf("InitChat: %v", err)
	}
	if err := db.ArchiveChat("chat-1"); err != nil {
		t.Fatalf("ArchiveChat: %v", err)
	}

	c, err := db.GetChat("chat-1")
	if err != nil {
		t.Fatalf("GetChat: %v", err)
	}
	if c.Status != "archived" {
		t.Errorf("status = %q, want archived", c.Status)
	}
	if c.EndedAt == nil {
		t.Error("expected ended_at to be set")
	}
}

func TestAppendTurns(t *testing.T) {
	db := testDB(t)

	if _, err := db.InitChat("chat-1", ""); err != nil {
		t.Fatalf("InitChat: %v", err)
	}

	if err := db.AppendTurn("chat-1", "user", "hello"); err != nil {
		t.Fatalf("AppendTurn: %v", err)
	}
	batch := []Turn{
		{Role: "assistant", Content: "hi"},
		{Role: "user", Content: "status?"},
	}
	if err := db.AppendTurns("chat-1", batch); err != nil {
		t.Fatalf("AppendTurns: %v", err)
	}

	turns, err := db.GetTurns("chat-1")
	if err != nil {
		t.Fatalf("GetTurns: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	if turns[0].Content != "hello" || turns[2].Role != "user" {
		t.Errorf("unexpected turn order: %+v", turns)
	}

	c, _ := db.GetChat("chat-1")
	if c.TurnCount != 3 {
		t.Errorf("turn_count = %d, want 3", c.TurnCount)
	}
}

func TestSummaries(t *testing.T) {
	db := testDB(t)

	if err := db.AddSummary("chat-1", "conversation", "decided to ship on friday"); err != nil {
		t.Fatalf("AddSummary: %v", err)
	}
	if err := db.AddSummary("", "longterm", "overall narrative"); err != nil {
		t.Fatalf("AddSummary longterm: %v", err)
	}

	sums, err := db.GetRecentSummaries("conversation", 10)
	if err != nil {
		t.Fatalf("GetRecentSummaries: %v", err)
	}
	if len(sums) != 1 {
		t.Fatalf("expected 1 conversation summary, got %d", len(sums))
	}
	if sums[0].ChatID != "chat-1" {
		t.Errorf("chat_id = %q, want chat-1", sums[0].ChatID)
	}

	lt, err := db.GetRecentSummaries("longterm", 10)
	if err != nil {
		t.Fatalf("GetRecentSummaries longterm: %v", err)
	}
	if len(lt) != 1 || lt[0].ChatID != "" {
		t.Errorf("unexpected longterm summaries: %+v", lt)
	}
}
