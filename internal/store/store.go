// Package store handles durable persistence of quiz activity in SQLite or
// PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver.

	"github.com/verte-zerg/kewen/internal/model"
	"github.com/verte-zerg/kewen/internal/persist"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Driver selects the database backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Options configures Open.
type Options struct {
	Driver Driver
	// DSN is a file path or sqlite URI for SQLite, a connection URL for PostgreSQL.
	DSN string
	// Migrate creates missing tables on open.
	Migrate bool
}

// Store wraps database access for quiz results, attempts and mastery.
type Store struct {
	db     *sql.DB
	driver Driver
	now    func() time.Time
}

// Open opens the database and, when requested, applies migrations.
func Open(ctx context.Context, opts Options) (*Store, error) {
	var drvName string
	switch opts.Driver {
	case DriverSQLite, "":
		opts.Driver = DriverSQLite
		drvName = "sqlite"
		if opts.DSN == "" {
			return nil, errors.New("sqlite path is required")
		}
		if !strings.HasPrefix(opts.DSN, "file:") && opts.DSN != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(opts.DSN), 0o755); err != nil {
				return nil, err
			}
		}
	case DriverPostgres:
		drvName = "pgx"
		if opts.DSN == "" {
			return nil, errors.New("postgres dsn is required")
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", opts.Driver)
	}

	db, err := sql.Open(drvName, opts.DSN)
	if err != nil {
		return nil, err
	}
	if opts.Driver == DriverSQLite {
		// A single connection keeps writes from background goroutines serialized.
		db.SetMaxOpenConns(1)
	}
	store := &Store{db: db, driver: opts.Driver, now: time.Now}
	if opts.Migrate {
		if err := store.Migrate(ctx); err != nil {
			if cerr := db.Close(); cerr != nil {
				// Best-effort close on migration failure.
				_ = cerr
			}
			return nil, err
		}
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the backend in use.
func (s *Store) Driver() Driver {
	return s.driver
}

// Migrate creates the tables and indexes if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS question_results (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			quiz_id TEXT NOT NULL,
			question_id TEXT NOT NULL,
			chapter_id TEXT NOT NULL,
			book_id TEXT NOT NULL,
			exercise_kind TEXT NOT NULL,
			correct INTEGER NOT NULL,
			time_spent_ms BIGINT NOT NULL,
			answered_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS quiz_attempts (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			quiz_id TEXT NOT NULL,
			chapter_id TEXT NOT NULL,
			book_id TEXT NOT NULL,
			exercise_kind TEXT NOT NULL,
			score INTEGER NOT NULL,
			max_score INTEGER NOT NULL,
			total_questions INTEGER NOT NULL,
			correct_count INTEGER NOT NULL,
			answers_json TEXT NOT NULL,
			completed_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS mastery (
			user_id TEXT NOT NULL,
			exercise_kind TEXT NOT NULL,
			best_score INTEGER NOT NULL,
			attempts INTEGER NOT NULL,
			mastered_at TEXT,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (user_id, exercise_kind)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_question_results_quiz ON question_results(quiz_id);`,
		`CREATE INDEX IF NOT EXISTS idx_quiz_attempts_completed_at ON quiz_attempts(completed_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return nil
}

// InsertQuestionResult appends one per-question result.
func (s *Store) InsertQuestionResult(ctx context.Context, r model.QuestionResult) error {
	answeredAt := r.AnsweredAt
	if answeredAt.IsZero() {
		answeredAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO question_results (id, user_id, quiz_id, question_id, chapter_id, book_id, exercise_kind, correct, time_spent_ms, answered_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.NewString(),
		r.UserID,
		r.QuizID,
		r.QuestionID,
		r.ChapterID,
		r.BookID,
		string(r.Kind),
		boolInt(r.Correct),
		r.TimeSpentMs,
		formatTime(answeredAt),
	)
	return classify(err)
}

// InsertQuizAttempt appends one end-of-quiz attempt.
func (s *Store) InsertQuizAttempt(ctx context.Context, a model.QuizAttempt) error {
	id := a.ID
	if id == "" {
		id = uuid.NewString()
	}
	completedAt := a.CompletedAt
	if completedAt.IsZero() {
		completedAt = s.now()
	}
	answers := a.AnswersJSON
	if answers == "" {
		answers = "{}"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quiz_attempts (id, user_id, quiz_id, chapter_id, book_id, exercise_kind, score, max_score, total_questions, correct_count, answers_json, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		id,
		a.UserID,
		a.QuizID,
		a.ChapterID,
		a.BookID,
		string(a.Kind),
		a.Score,
		a.MaxScore,
		a.TotalQuestions,
		a.CorrectCount,
		answers,
		formatTime(completedAt),
	)
	return classify(err)
}

// RecordMastery merges a new percentage score into the user's mastery row
// for kind.
func (s *Store) RecordMastery(ctx context.Context, userID string, kind model.ExerciseKind, score int) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	var existing *model.Mastery
	var best, attempts int
	var masteredAt sql.NullString
	var updatedAt string
	row := tx.QueryRowContext(ctx,
		`SELECT best_score, attempts, mastered_at, updated_at FROM mastery WHERE user_id = $1 AND exercise_kind = $2`,
		userID, string(kind))
	switch scanErr := row.Scan(&best, &attempts, &masteredAt, &updatedAt); {
	case scanErr == nil:
		m := model.Mastery{UserID: userID, Kind: kind, BestScore: best, Attempts: attempts}
		if masteredAt.Valid {
			t, perr := parseTime(masteredAt.String)
			if perr != nil {
				return perr
			}
			m.MasteredAt = &t
		}
		existing = &m
	case errors.Is(scanErr, sql.ErrNoRows):
	default:
		return classify(scanErr)
	}

	merged := MergeMastery(existing, userID, kind, score, s.now())
	var mastered any
	if merged.MasteredAt != nil {
		mastered = formatTime(*merged.MasteredAt)
	}
	if existing == nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO mastery (user_id, exercise_kind, best_score, attempts, mastered_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			userID, string(kind), merged.BestScore, merged.Attempts, mastered, formatTime(merged.UpdatedAt))
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE mastery SET best_score = $1, attempts = $2, mastered_at = $3, updated_at = $4
			 WHERE user_id = $5 AND exercise_kind = $6`,
			merged.BestScore, merged.Attempts, mastered, formatTime(merged.UpdatedAt), userID, string(kind))
	}
	if err != nil {
		err = classify(err)
		return err
	}
	if err = tx.Commit(); err != nil {
		err = classify(err)
		return err
	}
	return nil
}

// MergeMastery applies one new score to an existing aggregate. The best
// score never decreases and the mastery timestamp, once set, is kept.
func MergeMastery(existing *model.Mastery, userID string, kind model.ExerciseKind, score int, now time.Time) model.Mastery {
	m := model.Mastery{UserID: userID, Kind: kind}
	if existing != nil {
		m = *existing
	}
	if score > m.BestScore {
		m.BestScore = score
	}
	m.Attempts++
	if m.MasteredAt == nil && m.BestScore >= model.MasteryThreshold {
		t := now
		m.MasteredAt = &t
	}
	m.UpdatedAt = now
	return m
}

// ListAttempts returns quiz attempts filtered by stats config, oldest first.
func (s *Store) ListAttempts(ctx context.Context, cfg model.StatsConfig) ([]model.QuizAttempt, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.UserID != "" {
		args = append(args, cfg.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if cfg.Kind != "" {
		args = append(args, string(cfg.Kind))
		clauses = append(clauses, fmt.Sprintf("exercise_kind = $%d", len(args)))
	}
	if cfg.Since != nil {
		args = append(args, formatTime(*cfg.Since))
		clauses = append(clauses, fmt.Sprintf("completed_at >= $%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT id, user_id, quiz_id, chapter_id, book_id, exercise_kind, score, max_score, total_questions, correct_count, answers_json, completed_at
		FROM quiz_attempts
		WHERE %s
		ORDER BY completed_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var attempts []model.QuizAttempt
	for rows.Next() {
		var a model.QuizAttempt
		var kind, completedAt string
		if err := rows.Scan(&a.ID, &a.UserID, &a.QuizID, &a.ChapterID, &a.BookID, &kind,
			&a.Score, &a.MaxScore, &a.TotalQuestions, &a.CorrectCount, &a.AnswersJSON, &completedAt); err != nil {
			return nil, err
		}
		a.Kind = model.ExerciseKind(kind)
		parsed, err := parseTime(completedAt)
		if err != nil {
			return nil, err
		}
		a.CompletedAt = parsed
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attempts, nil
}

// KindAggregates sums per-question results by exercise kind across quizzes.
func (s *Store) KindAggregates(ctx context.Context, userID string, quizIDs []string) ([]model.KindAggregate, error) {
	if len(quizIDs) == 0 {
		return nil, nil
	}
	args := []any{userID}
	placeholders := make([]string, len(quizIDs))
	for i, id := range quizIDs {
		args = append(args, id)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	query := fmt.Sprintf(`SELECT exercise_kind,
		SUM(CASE WHEN correct = 1 THEN 1 ELSE 0 END) AS correct,
		SUM(CASE WHEN correct = 1 THEN 0 ELSE 1 END) AS incorrect,
		CAST(SUM(time_spent_ms) AS BIGINT) AS time_sum_ms
		FROM question_results
		WHERE ($1 = '' OR user_id = $1) AND quiz_id IN (%s)
		GROUP BY exercise_kind
		ORDER BY exercise_kind`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.KindAggregate
	for rows.Next() {
		var agg model.KindAggregate
		var kind string
		if err := rows.Scan(&kind, &agg.Correct, &agg.Incorrect, &agg.TimeSumMs); err != nil {
			return nil, err
		}
		agg.Kind = model.ExerciseKind(kind)
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListMastery returns the mastery rows of a user ordered by kind.
func (s *Store) ListMastery(ctx context.Context, userID string) ([]model.Mastery, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, exercise_kind, best_score, attempts, mastered_at, updated_at
		 FROM mastery
		 WHERE ($1 = '' OR user_id = $1)
		 ORDER BY exercise_kind`, userID)
	if err != nil {
		return nil, classify(err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.Mastery
	for rows.Next() {
		var m model.Mastery
		var kind, updatedAt string
		var masteredAt sql.NullString
		if err := rows.Scan(&m.UserID, &kind, &m.BestScore, &m.Attempts, &masteredAt, &updatedAt); err != nil {
			return nil, err
		}
		m.Kind = model.ExerciseKind(kind)
		if masteredAt.Valid {
			t, err := parseTime(masteredAt.String)
			if err != nil {
				return nil, err
			}
			m.MasteredAt = &t
		}
		if m.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// classify tags driver errors with the persist failure sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
		return fmt.Errorf("%w: %v", persist.ErrSchemaMissing, err)
	}
	msg := err.Error()
	if strings.Contains(msg, "no such table") {
		return fmt.Errorf("%w: %v", persist.ErrSchemaMissing, err)
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "connection refused") {
		return fmt.Errorf("%w: %v", persist.ErrUnavailable, err)
	}
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
