// Package store holds the durable interview data the agent tools operate on:
// interviewee records, the question bank, and per-question interview results.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup by id matches no row.
var ErrNotFound = errors.New("record not found")

type Interviewee struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}

type Question struct {
	ID         int64
	Type       string
	Difficulty string
	Content    string
}

// Snapshot is the answer-time copy of a question kept with each interview
// record, so analysis keeps working even if the bank entry changes later.
type Snapshot struct {
	Type       string `json:"type"`
	Difficulty string `json:"difficulty"`
	Content    string `json:"content"`
	Remark     string `json:"remark,omitempty"`
}

type InterviewRecord struct {
	ID            int64
	IntervieweeID int64
	QuestionID    int64
	Score         float64
	Snapshot      Snapshot
	CreatedAt     time.Time
}

// LabelCount pairs a label (question type or difficulty) with how many bank
// questions carry it.
type LabelCount struct {
	Label string
	Count int
}

// QuestionStats summarizes the question bank. The slices are ordered by
// descending count so renderings are deterministic.
type QuestionStats struct {
	Total        int
	ByType       []LabelCount
	ByDifficulty []LabelCount
}

// Store is the narrow query surface the agent tools need. Implementations
// must be safe for concurrent use from multiple agent sessions.
type Store interface {
	// SearchInterviewees matches names by substring; an empty name lists everyone.
	SearchInterviewees(ctx context.Context, name string) ([]Interviewee, error)
	GetInterviewee(ctx context.Context, id int64) (Interviewee, error)
	// RecordsByInterviewee returns the interviewee's records ordered by creation time.
	RecordsByInterviewee(ctx context.Context, id int64) ([]InterviewRecord, error)
	QuestionStats(ctx context.Context) (QuestionStats, error)
	QuestionsByType(ctx context.Context, qType string, limit int) ([]Question, error)
	RandomQuestions(ctx context.Context, limit int) ([]Question, error)
}
