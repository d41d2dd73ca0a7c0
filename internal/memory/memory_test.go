package memory

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/DanielPonttes/Chatbot-generico/internal/config"
	"github.com/DanielPonttes/Chatbot-generico/pkg/types"
)

// runStoreTests exercises the Store contract against a backing.
func runStoreTests(t *testing.T, open func(t *testing.T, maxMessages int) Store) {
	ctx := context.Background()

	t.Run("AppendAndHistory", func(t *testing.T) {
		s := open(t, 10)

		if err := s.Append(ctx, "abc", types.RoleUser, "oi"); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if err := s.Append(ctx, "abc", types.RoleAssistant, "olá"); err != nil {
			t.Fatalf("Append failed: %v", err)
		}

		msgs, err := s.History(ctx, "abc", 0)
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(msgs) != 2 {
			t.Fatalf("got %d messages, want 2", len(msgs))
		}
		if msgs[0].Role != types.RoleUser || msgs[0].Content != "oi" {
			t.Errorf("first message = %+v", msgs[0])
		}
		if msgs[1].Role != types.RoleAssistant || msgs[1].Content != "olá" {
			t.Errorf("second message = %+v", msgs[1])
		}
		if msgs[0].Timestamp.IsZero() {
			t.Error("messages should be timestamped")
		}
	})

	t.Run("CapEvictsOldest", func(t *testing.T) {
		s := open(t, 3)

		for i := 1; i <= 5; i++ {
			if err := s.Append(ctx, "abc", types.RoleUser, fmt.Sprintf("mensagem %d", i)); err != nil {
				t.Fatalf("Append failed: %v", err)
			}
		}

		msgs, err := s.History(ctx, "abc", 0)
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(msgs) != 3 {
			t.Fatalf("got %d messages, cap is 3", len(msgs))
		}
		for i, want := range []string{"mensagem 3", "mensagem 4", "mensagem 5"} {
			if msgs[i].Content != want {
				t.Errorf("msgs[%d] = %q, want %q", i, msgs[i].Content, want)
			}
		}
	})

	t.Run("HistoryLimit", func(t *testing.T) {
		s := open(t, 10)

		for i := 1; i <= 5; i++ {
			if err := s.Append(ctx, "abc", types.RoleUser, fmt.Sprintf("mensagem %d", i)); err != nil {
				t.Fatalf("Append failed: %v", err)
			}
		}

		msgs, err := s.History(ctx, "abc", 2)
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(msgs) != 2 {
			t.Fatalf("got %d messages, want 2", len(msgs))
		}
		// Most recent two, still oldest first.
		if msgs[0].Content != "mensagem 4" || msgs[1].Content != "mensagem 5" {
			t.Errorf("limited history out of order: %q, %q", msgs[0].Content, msgs[1].Content)
		}
	})

	t.Run("SessionsAreIsolated", func(t *testing.T) {
		s := open(t, 10)

		if err := s.Append(ctx, "a", types.RoleUser, "da sessão a"); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if err := s.Append(ctx, "b", types.RoleUser, "da sessão b"); err != nil {
			t.Fatalf("Append failed: %v", err)
		}

		msgs, err := s.History(ctx, "a", 0)
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(msgs) != 1 || msgs[0].Content != "da sessão a" {
			t.Errorf("session a sees %+v", msgs)
		}
	})

	t.Run("UnknownSessionIsEmpty", func(t *testing.T) {
		s := open(t, 10)

		msgs, err := s.History(ctx, "nunca-vista", 0)
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(msgs) != 0 {
			t.Errorf("got %d messages, want none", len(msgs))
		}
	})

	t.Run("Clear", func(t *testing.T) {
		s := open(t, 10)

		if err := s.Append(ctx, "abc", types.RoleUser, "oi"); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if err := s.Clear(ctx, "abc"); err != nil {
			t.Fatalf("Clear failed: %v", err)
		}

		msgs, err := s.History(ctx, "abc", 0)
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(msgs) != 0 {
			t.Errorf("history survived Clear: %+v", msgs)
		}
	})

	t.Run("ClearUnknownIsNoop", func(t *testing.T) {
		s := open(t, 10)
		if err := s.Clear(ctx, "nunca-vista"); err != nil {
			t.Errorf("Clear of unknown session failed: %v", err)
		}
	})

	t.Run("FormattedHistory", func(t *testing.T) {
		s := open(t, 3)

		for i := 1; i <= 5; i++ {
			role := types.RoleUser
			if i%2 == 0 {
				role = types.RoleAssistant
			}
			if err := s.Append(ctx, "abc", role, fmt.Sprintf("mensagem %d", i)); err != nil {
				t.Fatalf("Append failed: %v", err)
			}
		}

		turns, err := s.FormattedHistory(ctx, "abc")
		if err != nil {
			t.Fatalf("FormattedHistory failed: %v", err)
		}
		// Capped window, storage metadata stripped.
		want := []types.ChatTurn{
			{Role: types.RoleUser, Content: "mensagem 3"},
			{Role: types.RoleAssistant, Content: "mensagem 4"},
			{Role: types.RoleUser, Content: "mensagem 5"},
		}
		if len(turns) != len(want) {
			t.Fatalf("got %d turns, want %d", len(turns), len(want))
		}
		for i := range want {
			if turns[i] != want[i] {
				t.Errorf("turns[%d] = %+v, want %+v", i, turns[i], want[i])
			}
		}
	})
}

func TestInMemoryStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T, maxMessages int) Store {
		s := NewInMemoryStore(maxMessages)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestSQLiteStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T, maxMessages int) Store {
		s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"), maxMessages)
		if err != nil {
			t.Fatalf("NewSQLiteStore failed: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := NewSQLiteStore(path, 10)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	if err := s.Append(ctx, "abc", types.RoleUser, "sobrevive?"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewSQLiteStore(path, 10)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	msgs, err := reopened.History(ctx, "abc", 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "sobrevive?" {
		t.Errorf("history did not survive reopen: %+v", msgs)
	}
}

func TestNewStore_PicksBacking(t *testing.T) {
	s, err := NewStore(config.MemoryConfig{MaxMessages: 5})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*InMemoryStore); !ok {
		t.Errorf("want InMemoryStore, got %T", s)
	}

	sqlite, err := NewStore(config.MemoryConfig{
		MaxMessages: 5,
		UseSQLite:   true,
		SQLitePath:  filepath.Join(t.TempDir(), "history.db"),
	})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer sqlite.Close()
	if _, ok := sqlite.(*SQLiteStore); !ok {
		t.Errorf("want SQLiteStore, got %T", sqlite)
	}
}

func TestTurns(t *testing.T) {
	msgs := []Message{
		{Role: types.RoleUser, Content: "oi"},
		{Role: types.RoleAssistant, Content: "olá"},
	}

	turns := Turns(msgs)
	if len(turns) != 2 {
		t.Fatalf("got %d turns", len(turns))
	}
	if turns[0] != (types.ChatTurn{Role: types.RoleUser, Content: "oi"}) {
		t.Errorf("turns[0] = %+v", turns[0])
	}
	if turns[1] != (types.ChatTurn{Role: types.RoleAssistant, Content: "olá"}) {
		t.Errorf("turns[1] = %+v", turns[1])
	}
}
