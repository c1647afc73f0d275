package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/helpdesk/internal/domain"
	"github.com/ashureev/helpdesk/internal/shared"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect is the SQL flavour a SQLStore speaks.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

const sessionColumns = `session_id, persona, hidden_goal, personality_trait, opening_line,
	persona_display, turn_count, status, restored, log_json, created_at, updated_at`

// SQLStore implements Repository on SQLite or PostgreSQL, so a session can outlive
// a server restart and be resumed instead of restored from the client.
type SQLStore struct {
	dialect Dialect
	db      *sql.DB
	mu      sync.Mutex // serializes writes to avoid SQLITE_BUSY
}

// NewSQLite opens (creating if needed) a SQLite-backed repository.
func NewSQLite(ctx context.Context, dbPath string) (*SQLStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return newSQLStore(ctx, DialectSQLite, db)
}

// NewPostgres opens a PostgreSQL-backed repository through the pgx stdlib driver.
func NewPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return newSQLStore(ctx, DialectPostgres, db)
}

func newSQLStore(ctx context.Context, dialect Dialect, db *sql.DB) (*SQLStore, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect, err)
	}

	s := &SQLStore{dialect: dialect, db: db}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	slog.Info("Session store opened", "dialect", dialect)
	return s, nil
}

func (s *SQLStore) initSchema(ctx context.Context) error {
	stmts := []string{`
	CREATE TABLE IF NOT EXISTS game_sessions (
		session_id TEXT PRIMARY KEY,
		persona TEXT NOT NULL,
		hidden_goal TEXT NOT NULL,
		personality_trait TEXT NOT NULL,
		opening_line TEXT NOT NULL,
		persona_display TEXT NOT NULL,
		turn_count INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		restored INTEGER NOT NULL DEFAULT 0,
		log_json TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
		`CREATE INDEX IF NOT EXISTS idx_game_sessions_updated ON game_sessions(updated_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) bind(pos int) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

func (s *SQLStore) binds(n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = s.bind(i + 1)
	}
	return strings.Join(ph, ", ")
}

// Ping verifies database connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// GetSession retrieves a session by key.
func (s *SQLStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM game_sessions WHERE session_id = ` + s.bind(1)

	session, err := scanSession(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}
	return session, nil
}

// SaveSession upserts a session in a single statement.
func (s *SQLStore) SaveSession(ctx context.Context, session *domain.Session) error {
	logJSON, err := json.Marshal(session.Log)
	if err != nil {
		return fmt.Errorf("encode conversation log: %w", err)
	}

	query := `
	INSERT INTO game_sessions (` + sessionColumns + `)
	VALUES (` + s.binds(12) + `)
	ON CONFLICT(session_id) DO UPDATE SET
		persona = excluded.persona,
		hidden_goal = excluded.hidden_goal,
		personality_trait = excluded.personality_trait,
		opening_line = excluded.opening_line,
		persona_display = excluded.persona_display,
		turn_count = excluded.turn_count,
		status = excluded.status,
		restored = excluded.restored,
		log_json = excluded.log_json,
		updated_at = excluded.updated_at`

	restored := 0
	if session.Restored {
		restored = 1
	}
	updatedAt := session.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	return s.withRetry(ctx, "save session", session.ID, func() error {
		_, err := s.db.ExecContext(ctx, query,
			session.ID, session.Mission.Persona, session.Mission.HiddenGoal,
			session.Mission.PersonalityTrait, session.Mission.OpeningLine,
			session.PersonaDisplay, session.TurnCount, string(session.Status), restored,
			string(logJSON), session.CreatedAt.Unix(), updatedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("upsert session: %w", err)
		}
		return nil
	})
}

// DeleteSession removes a session.
func (s *SQLStore) DeleteSession(ctx context.Context, id string) error {
	query := `DELETE FROM game_sessions WHERE session_id = ` + s.bind(1)
	return s.withRetry(ctx, "delete session", id, func() error {
		if _, err := s.db.ExecContext(ctx, query, id); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
}

// IdleSessions returns the keys of sessions not updated since cutoff, oldest first.
func (s *SQLStore) IdleSessions(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id FROM game_sessions WHERE updated_at < `+s.bind(1)+` ORDER BY updated_at`,
		cutoff.Unix())
	if err != nil {
		return nil, fmt.Errorf("query idle sessions: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Warn("failed to close idle sessions rows", "error", err)
		}
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan idle session row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate idle sessions: %w", err)
	}
	return ids, nil
}

// withRetry runs op under the write lock, retrying SQLite busy errors with
// exponential backoff: 50ms, 100ms, 200ms.
func (s *SQLStore) withRetry(ctx context.Context, what, id string, op func() error) error {
	const maxRetries = 3
	baseDelay := 50 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		s.mu.Lock()
		err = op()
		s.mu.Unlock()
		if err == nil {
			return nil
		}
		if !shared.IsSQLiteConflictError(err) || i == maxRetries-1 {
			break
		}
		delay := baseDelay * time.Duration(1<<i)
		slog.Debug("Session store busy, retrying", "op", what, "session_id", id, "attempt", i+1, "delay", delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var (
		session              domain.Session
		status, logJSON      string
		restored             int
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&session.ID, &session.Mission.Persona, &session.Mission.HiddenGoal,
		&session.Mission.PersonalityTrait, &session.Mission.OpeningLine,
		&session.PersonaDisplay, &session.TurnCount, &status, &restored,
		&logJSON, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(logJSON), &session.Log); err != nil {
		return nil, fmt.Errorf("decode conversation log: %w", err)
	}
	session.Status = domain.Status(status)
	session.Restored = restored != 0
	session.CreatedAt = time.Unix(createdAt, 0)
	session.UpdatedAt = time.Unix(updatedAt, 0)
	return &session, nil
}
