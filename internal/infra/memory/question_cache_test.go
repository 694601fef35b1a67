package memory

import (
	"context"
	"testing"
	"time"

	"quiz-attempt-service/internal/domain"
)

func TestQuestionCacheCaches(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	quiz := domain.Quiz{Title: "caps"}
	if err := store.SaveQuiz(ctx, &quiz); err != nil {
		t.Fatalf("save quiz: %v", err)
	}
	q := domain.Question{
		QuizID:   quiz.ID,
		Kind:     domain.KindSingleChoice,
		Prompt:   "Capital of France?",
		MaxScore: 1,
		Options: []domain.Option{
			{Text: "Paris", Correct: true},
			{Text: "Rome", Correct: false},
		},
	}
	if err := store.SaveQuestion(ctx, &q); err != nil {
		t.Fatalf("save question: %v", err)
	}

	source := &countingSource{QuestionSource: store}
	cache := NewQuestionCache(source, time.Minute)

	if _, err := cache.GetQuestionsForQuiz(ctx, quiz.ID); err != nil {
		t.Fatalf("get questions: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected source hit once, got %d", source.calls)
	}

	if _, err := cache.GetQuestionsForQuiz(ctx, quiz.ID); err != nil {
		t.Fatalf("get questions 2: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected cache hit, source calls %d", source.calls)
	}

	cache.Invalidate(ctx, quiz.ID)
	if _, err := cache.GetQuestionsForQuiz(ctx, quiz.ID); err != nil {
		t.Fatalf("get questions 3: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected reload after invalidate, source calls %d", source.calls)
	}
}

type countingSource struct {
	QuestionSource
	calls int
}

func (s *countingSource) GetQuestionsForQuiz(ctx context.Context, quizID string) ([]domain.Question, error) {
	s.calls++
	return s.QuestionSource.GetQuestionsForQuiz(ctx, quizID)
}
