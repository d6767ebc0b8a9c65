// Package history keeps a local SQLite ledger of chat exchanges: what was
// asked, what came back, and what it cost.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store wraps a sql.DB holding the exchange ledger.
type Store struct {
	*sql.DB
	path string
}

// Exchange is one prompt/reply round trip.
type Exchange struct {
	ID           string
	CreatedAt    time.Time
	Model        string
	Prompt       string
	Reply        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	StopReason   string
}

// Open creates or opens the ledger at the given path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging history db: %w", err)
	}

	s := &Store{DB: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// OpenMemory creates an in-memory ledger (useful for testing).
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory history db: %w", err)
	}
	s := &Store{DB: db, path: ":memory:"}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.Exec(schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS exchanges (
    id TEXT PRIMARY KEY,
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    model TEXT NOT NULL,
    prompt TEXT NOT NULL,
    reply TEXT NOT NULL,
    input_tokens INTEGER NOT NULL DEFAULT 0,
    output_tokens INTEGER NOT NULL DEFAULT 0,
    cost_usd REAL NOT NULL DEFAULT 0,
    stop_reason TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_exchanges_created ON exchanges(created_at);
CREATE INDEX IF NOT EXISTS idx_exchanges_model ON exchanges(model);
`

// Record inserts an exchange, assigning an ID and cost estimate if unset.
func (s *Store) Record(ex *Exchange) error {
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	if ex.CostUSD == 0 {
		ex.CostUSD = EstimateCost(ex.Model, ex.InputTokens, ex.OutputTokens)
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now().UTC()
	}

	_, err := s.Exec(`
		INSERT INTO exchanges (id, created_at, model, prompt, reply, input_tokens, output_tokens, cost_usd, stop_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ex.ID, ex.CreatedAt.Format(time.RFC3339), ex.Model, ex.Prompt, ex.Reply,
		ex.InputTokens, ex.OutputTokens, ex.CostUSD, ex.StopReason,
	)
	if err != nil {
		return fmt.Errorf("recording exchange: %w", err)
	}
	return nil
}

// Recent returns the latest n exchanges, newest first.
func (s *Store) Recent(n int) ([]Exchange, error) {
	rows, err := s.Query(`
		SELECT id, created_at, model, prompt, reply, input_tokens, output_tokens, cost_usd, stop_reason
		FROM exchanges ORDER BY created_at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying exchanges: %w", err)
	}
	defer rows.Close()

	var out []Exchange
	for rows.Next() {
		var ex Exchange
		var created string
		if err := rows.Scan(&ex.ID, &created, &ex.Model, &ex.Prompt, &ex.Reply,
			&ex.InputTokens, &ex.OutputTokens, &ex.CostUSD, &ex.StopReason); err != nil {
			return nil, fmt.Errorf("scanning exchange: %w", err)
		}
		ex.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, ex)
	}
	return out, rows.Err()
}

// Totals summarizes the whole ledger.
type Totals struct {
	Exchanges    int
	InputTokens  int
	OutputTokens int
	CostUSD      float64
}

// Summary returns aggregate usage over all recorded exchanges.
func (s *Store) Summary() (*Totals, error) {
	var t Totals
	err := s.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(input_tokens),0), COALESCE(SUM(output_tokens),0), COALESCE(SUM(cost_usd),0)
		FROM exchanges`).Scan(&t.Exchanges, &t.InputTokens, &t.OutputTokens, &t.CostUSD)
	if err != nil {
		return nil, fmt.Errorf("summarizing exchanges: %w", err)
	}
	return &t, nil
}
