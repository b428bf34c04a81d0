package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	DB *pgxpool.Pool
}

// NewPostgresStore connects to Postgres and returns a Postgres-backed Store.
func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	return &PostgresStore{DB: db}, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS interviewee (
    id         BIGSERIAL PRIMARY KEY,
    name       TEXT NOT NULL,
    email      TEXT NOT NULL DEFAULT '',
    phone      TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS question_bank (
    id         BIGSERIAL PRIMARY KEY,
    q_type     TEXT NOT NULL,
    difficulty TEXT NOT NULL,
    content    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS interview_record (
    id              BIGSERIAL PRIMARY KEY,
    interviewee_id  BIGINT NOT NULL REFERENCES interviewee(id),
    question_id     BIGINT NOT NULL,
    score           DOUBLE PRECISION NOT NULL,
    answer_snapshot JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// EnsureSchema creates the interview tables when they do not exist yet.
func (ps *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := ps.DB.Exec(ctx, schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (ps *PostgresStore) SearchInterviewees(ctx context.Context, name string) ([]Interviewee, error) {
	query := `SELECT id, name, email, phone, created_at FROM interviewee ORDER BY id`
	args := []any{}
	if name != "" {
		query = `SELECT id, name, email, phone, created_at FROM interviewee WHERE name ILIKE $1 ORDER BY id`
		args = append(args, "%"+name+"%")
	}

	rows, err := ps.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Interviewee
	for rows.Next() {
		var iv Interviewee
		if err := rows.Scan(&iv.ID, &iv.Name, &iv.Email, &iv.Phone, &iv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

func (ps *PostgresStore) GetInterviewee(ctx context.Context, id int64) (Interviewee, error) {
	var iv Interviewee
	err := ps.DB.QueryRow(ctx,
		`SELECT id, name, email, phone, created_at FROM interviewee WHERE id = $1`, id,
	).Scan(&iv.ID, &iv.Name, &iv.Email, &iv.Phone, &iv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Interviewee{}, ErrNotFound
	}
	if err != nil {
		return Interviewee{}, err
	}
	return iv, nil
}

func (ps *PostgresStore) RecordsByInterviewee(ctx context.Context, id int64) ([]InterviewRecord, error) {
	rows, err := ps.DB.Query(ctx, `
        SELECT id, interviewee_id, question_id, score, answer_snapshot, created_at
        FROM interview_record
        WHERE interviewee_id = $1
        ORDER BY created_at`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []InterviewRecord
	for rows.Next() {
		var rec InterviewRecord
		var snapshot []byte
		if err := rows.Scan(&rec.ID, &rec.IntervieweeID, &rec.QuestionID, &rec.Score, &snapshot, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if len(snapshot) > 0 {
			if err := json.Unmarshal(snapshot, &rec.Snapshot); err != nil {
				return nil, fmt.Errorf("decoding answer snapshot for record %d: %w", rec.ID, err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (ps *PostgresStore) QuestionStats(ctx context.Context) (QuestionStats, error) {
	var stats QuestionStats

	if err := ps.DB.QueryRow(ctx, `SELECT COUNT(*) FROM question_bank`).Scan(&stats.Total); err != nil {
		return QuestionStats{}, err
	}

	byType, err := ps.labelCounts(ctx, `
        SELECT q_type, COUNT(*) AS count
        FROM question_bank
        GROUP BY q_type
        ORDER BY count DESC, q_type`)
	if err != nil {
		return QuestionStats{}, err
	}
	stats.ByType = byType

	byDiff, err := ps.labelCounts(ctx, `
        SELECT difficulty, COUNT(*) AS count
        FROM question_bank
        GROUP BY difficulty
        ORDER BY count DESC, difficulty`)
	if err != nil {
		return QuestionStats{}, err
	}
	stats.ByDifficulty = byDiff

	return stats, nil
}

func (ps *PostgresStore) labelCounts(ctx context.Context, query string) ([]LabelCount, error) {
	rows, err := ps.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LabelCount
	for rows.Next() {
		var lc LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			return nil, err
		}
		out = append(out, lc)
	}
	return out, rows.Err()
}

func (ps *PostgresStore) QuestionsByType(ctx context.Context, qType string, limit int) ([]Question, error) {
	return ps.questions(ctx, `
        SELECT id, q_type, difficulty, content
        FROM question_bank
        WHERE q_type = $1
        ORDER BY id
        LIMIT $2`, qType, limit)
}

func (ps *PostgresStore) RandomQuestions(ctx context.Context, limit int) ([]Question, error) {
	return ps.questions(ctx, `
        SELECT id, q_type, difficulty, content
        FROM question_bank
        ORDER BY random()
        LIMIT $1`, limit)
}

func (ps *PostgresStore) questions(ctx context.Context, query string, args ...any) ([]Question, error) {
	rows, err := ps.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.Type, &q.Difficulty, &q.Content); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// Close releases the underlying connection pool.
func (ps *PostgresStore) Close() {
	if ps != nil && ps.DB != nil {
		ps.DB.Close()
	}
}

var _ Store = (*PostgresStore)(nil)
