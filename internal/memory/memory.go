// Package memory stores per-session conversation history behind a small
// Store interface with two backings: a process-local map for development
// and a SQLite file for persistence across restarts. Both prune each
// session to the configured cap on every append, oldest first.
package memory

import (
	"context"
	"time"

	"github.com/DanielPonttes/Chatbot-generico/internal/config"
	"github.com/DanielPonttes/Chatbot-generico/internal/logging"
	"github.com/DanielPonttes/Chatbot-generico/pkg/types"
)

// Message is one stored history entry.
type Message struct {
	Role      string
	Content   string
	Timestamp time.Time
}

// Store is the session history contract shared by both backings.
// History returns messages in chronological order; a limit above zero
// keeps only the most recent ones, still chronological. Unknown
// sessions read as empty and clear as a no-op.
//
// All methods are safe for concurrent use. Within one session the
// stores order appends by arrival; a caller that needs a strict turn
// order must serialize its own writes.
type Store interface {
	Append(ctx context.Context, sessionID, role, content string) error
	History(ctx context.Context, sessionID string, limit int) ([]Message, error)
	// FormattedHistory returns the stored window as provider turns,
	// stripped of storage metadata.
	FormattedHistory(ctx context.Context, sessionID string) ([]types.ChatTurn, error)
	Clear(ctx context.Context, sessionID string) error
	Close() error
}

// NewStore picks the backing the config asks for.
func NewStore(cfg config.MemoryConfig) (Store, error) {
	log := logging.Component("memory")
	if cfg.UseSQLite {
		log.Info().Str("path", cfg.SQLitePath).Msg("using SQLite for conversation persistence")
		return NewSQLiteStore(cfg.SQLitePath, cfg.MaxMessages)
	}
	log.Info().Int("max_messages", cfg.MaxMessages).Msg("using in-memory history, conversations will not persist")
	return NewInMemoryStore(cfg.MaxMessages), nil
}

// Turns strips storage metadata from history for a provider call.
func Turns(msgs []Message) []types.ChatTurn {
	turns := make([]types.ChatTurn, len(msgs))
	for i, m := range msgs {
		turns[i] = types.ChatTurn{Role: m.Role, Content: m.Content}
	}
	return turns
}
