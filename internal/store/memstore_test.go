package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemStoreSearchInterviewees(t *testing.T) {
	st := NewMemStore()
	st.AddInterviewee(Interviewee{Name: "Alice Zhang"})
	st.AddInterviewee(Interviewee{Name: "Bob Li"})
	st.AddInterviewee(Interviewee{Name: "Alicia Keys"})

	ctx := context.Background()

	all, err := st.SearchInterviewees(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)

	matches, err := st.SearchInterviewees(ctx, "ali")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	matches, err = st.SearchInterviewees(ctx, "ALI")
	require.NoError(t, err)
	require.Len(t, matches, 2, "matching is case-insensitive")
}

func TestMemStoreGetInterviewee(t *testing.T) {
	st := NewMemStore()
	id := st.AddInterviewee(Interviewee{Name: "Alice"})

	iv, err := st.GetInterviewee(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, "Alice", iv.Name)
	require.False(t, iv.CreatedAt.IsZero())

	_, err = st.GetInterviewee(context.Background(), 999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreRecordsOrderedByCreation(t *testing.T) {
	st := NewMemStore()
	id := st.AddInterviewee(Interviewee{Name: "Alice"})

	base := time.Now()
	st.AddRecord(InterviewRecord{IntervieweeID: id, Score: 3, CreatedAt: base.Add(2 * time.Minute)})
	st.AddRecord(InterviewRecord{IntervieweeID: id, Score: 1, CreatedAt: base})
	st.AddRecord(InterviewRecord{IntervieweeID: id, Score: 2, CreatedAt: base.Add(time.Minute)})
	st.AddRecord(InterviewRecord{IntervieweeID: 999, Score: 9, CreatedAt: base})

	records, err := st.RecordsByInterviewee(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, []float64{1, 2, 3}, []float64{records[0].Score, records[1].Score, records[2].Score})
}

func TestMemStoreQuestionStatsOrdering(t *testing.T) {
	st := NewMemStore()
	st.AddQuestion(Question{Type: "coding", Difficulty: "medium"})
	st.AddQuestion(Question{Type: "coding", Difficulty: "easy"})
	st.AddQuestion(Question{Type: "coding", Difficulty: "medium"})
	st.AddQuestion(Question{Type: "theory", Difficulty: "easy"})

	stats, err := st.QuestionStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, stats.Total)
	require.Equal(t, []LabelCount{{Label: "coding", Count: 3}, {Label: "theory", Count: 1}}, stats.ByType)
	require.Equal(t, []LabelCount{{Label: "easy", Count: 2}, {Label: "medium", Count: 2}}, stats.ByDifficulty)
}

func TestMemStoreQuestionsByTypeHonorsLimit(t *testing.T) {
	st := NewMemStore()
	for i := 0; i < 5; i++ {
		st.AddQuestion(Question{Type: "coding", Difficulty: "medium", Content: "q"})
	}

	qs, err := st.QuestionsByType(context.Background(), "coding", 3)
	require.NoError(t, err)
	require.Len(t, qs, 3)

	qs, err = st.QuestionsByType(context.Background(), "design", 3)
	require.NoError(t, err)
	require.Empty(t, qs)
}

func TestMemStoreRandomQuestions(t *testing.T) {
	st := NewMemStore()
	for i := 0; i < 5; i++ {
		st.AddQuestion(Question{Type: "coding", Difficulty: "medium", Content: "q"})
	}

	qs, err := st.RandomQuestions(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, qs, 3)

	seen := make(map[int64]bool)
	for _, q := range qs {
		require.False(t, seen[q.ID], "no duplicates in one draw")
		seen[q.ID] = true
	}

	qs, err = st.RandomQuestions(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, qs, 5, "limit is capped at the bank size")
}

func TestMemStoreConcurrentAccess(t *testing.T) {
	st := NewMemStore()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := st.AddInterviewee(Interviewee{Name: "worker"})
			st.AddRecord(InterviewRecord{IntervieweeID: id, Score: 5})
			_, err := st.SearchInterviewees(context.Background(), "work")
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := st.SearchInterviewees(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 16)
}
