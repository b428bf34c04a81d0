package store

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemStore is an in-memory Store used for tests and for running the assistant
// without a database. Safe for concurrent use.
type MemStore struct {
	mu           sync.RWMutex
	interviewees []Interviewee
	questions    []Question
	records      []InterviewRecord

	nextIntervieweeID int64
	nextQuestionID    int64
	nextRecordID      int64
}

func NewMemStore() *MemStore {
	return &MemStore{
		nextIntervieweeID: 1,
		nextQuestionID:    1,
		nextRecordID:      1,
	}
}

// AddInterviewee inserts a record and returns its assigned id.
func (m *MemStore) AddInterviewee(iv Interviewee) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	iv.ID = m.nextIntervieweeID
	m.nextIntervieweeID++
	if iv.CreatedAt.IsZero() {
		iv.CreatedAt = time.Now()
	}
	m.interviewees = append(m.interviewees, iv)
	return iv.ID
}

// AddQuestion inserts a bank question and returns its assigned id.
func (m *MemStore) AddQuestion(q Question) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	q.ID = m.nextQuestionID
	m.nextQuestionID++
	m.questions = append(m.questions, q)
	return q.ID
}

// AddRecord inserts an interview record and returns its assigned id.
func (m *MemStore) AddRecord(rec InterviewRecord) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.ID = m.nextRecordID
	m.nextRecordID++
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	m.records = append(m.records, rec)
	return rec.ID
}

func (m *MemStore) SearchInterviewees(_ context.Context, name string) ([]Interviewee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(name))
	var out []Interviewee
	for _, iv := range m.interviewees {
		if needle == "" || strings.Contains(strings.ToLower(iv.Name), needle) {
			out = append(out, iv)
		}
	}
	return out, nil
}

func (m *MemStore) GetInterviewee(_ context.Context, id int64) (Interviewee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, iv := range m.interviewees {
		if iv.ID == id {
			return iv, nil
		}
	}
	return Interviewee{}, ErrNotFound
}

func (m *MemStore) RecordsByInterviewee(_ context.Context, id int64) ([]InterviewRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []InterviewRecord
	for _, rec := range m.records {
		if rec.IntervieweeID == id {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemStore) QuestionStats(_ context.Context) (QuestionStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byType := make(map[string]int)
	byDiff := make(map[string]int)
	for _, q := range m.questions {
		byType[q.Type]++
		byDiff[q.Difficulty]++
	}

	return QuestionStats{
		Total:        len(m.questions),
		ByType:       sortedCounts(byType),
		ByDifficulty: sortedCounts(byDiff),
	}, nil
}

func sortedCounts(counts map[string]int) []LabelCount {
	out := make([]LabelCount, 0, len(counts))
	for label, count := range counts {
		out = append(out, LabelCount{Label: label, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func (m *MemStore) QuestionsByType(_ context.Context, qType string, limit int) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Question
	for _, q := range m.questions {
		if q.Type == qType {
			out = append(out, q)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *MemStore) RandomQuestions(_ context.Context, limit int) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || len(m.questions) == 0 {
		return nil, nil
	}

	idx := rand.Perm(len(m.questions))
	if limit > len(idx) {
		limit = len(idx)
	}
	out := make([]Question, 0, limit)
	for _, i := range idx[:limit] {
		out = append(out, m.questions[i])
	}
	return out, nil
}

var _ Store = (*MemStore)(nil)
