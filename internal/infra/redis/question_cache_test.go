package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-attempt-service/internal/domain"
)

type countingSource struct {
	calls     int
	questions []domain.Question
}

func (s *countingSource) GetQuestionsForQuiz(_ context.Context, quizID string) ([]domain.Question, error) {
	s.calls++
	return s.questions, nil
}

func TestQuestionCacheFillsAndServesFromRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	source := &countingSource{questions: []domain.Question{
		{ID: "q1", QuizID: "quiz-1", Kind: domain.KindSingleChoice, Prompt: "2+2?", MaxScore: 1,
			Options: []domain.Option{{ID: "o1", Text: "4", Correct: true}, {ID: "o2", Text: "5"}}},
	}}
	cache := NewQuestionCache(client, source, 5*time.Minute)
	ctx := context.Background()

	questions, err := cache.GetQuestionsForQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("first get: %v", err)
	}
	if len(questions) != 1 || questions[0].ID != "q1" {
		t.Fatalf("unexpected questions %+v", questions)
	}
	if source.calls != 1 {
		t.Fatalf("expected one source load, got %d", source.calls)
	}
	if !mr.Exists("quiz:quiz-1:questions") {
		t.Fatalf("expected cache key to be filled")
	}

	questions, err = cache.GetQuestionsForQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected redis hit, source calls %d", source.calls)
	}
	if questions[0].Options[0].Correct != true {
		t.Fatalf("answer data lost in cache round trip: %+v", questions[0])
	}

	cache.Invalidate(ctx, "quiz-1")
	if mr.Exists("quiz:quiz-1:questions") {
		t.Fatalf("expected cache key removed after invalidate")
	}
	if _, err := cache.GetQuestionsForQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("get after invalidate: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected reload after invalidate, got %d", source.calls)
	}
}
