package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"quiz-attempt-service/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
		_ = os.Remove(path)
		_ = os.Remove(path + "-wal")
		_ = os.Remove(path + "-shm")
		_ = os.Remove(path + "-journal")
	})
	return store
}

func TestQuizRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	quiz := domain.Quiz{
		OwnerID:             "author-1",
		Title:               "Capitals",
		Description:         "geography basics",
		RandomOrder:         true,
		DisplayType:         domain.DisplayMultiPage,
		ImmediateCorrection: true,
		PracticeMode:        false,
	}
	if err := store.SaveQuiz(ctx, &quiz); err != nil {
		t.Fatalf("save quiz: %v", err)
	}
	if quiz.ID == "" {
		t.Fatalf("expected assigned quiz id")
	}

	got, err := store.GetQuiz(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if got.Title != quiz.Title || !got.RandomOrder || got.DisplayType != domain.DisplayMultiPage || !got.ImmediateCorrection {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	exists, err := store.QuizExists(ctx, quiz.ID)
	if err != nil || !exists {
		t.Fatalf("expected quiz to exist, got %v err=%v", exists, err)
	}
	exists, err = store.QuizExists(ctx, "missing")
	if err != nil || exists {
		t.Fatalf("expected missing quiz to not exist, got %v err=%v", exists, err)
	}
	if _, err := store.GetQuiz(ctx, "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

func TestQuestionPersistenceAndOrdering(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	quiz := domain.Quiz{OwnerID: "a", Title: "t", DisplayType: domain.DisplaySinglePage}
	if err := store.SaveQuiz(ctx, &quiz); err != nil {
		t.Fatalf("save quiz: %v", err)
	}

	blank := domain.Question{
		QuizID: quiz.ID, Position: 1, Kind: domain.KindFillBlank, Prompt: "colors", MaxScore: 2,
		Blanks: [][]string{{"red", "crimson"}, {"blue"}},
	}
	choice := domain.Question{
		QuizID: quiz.ID, Position: 0, Kind: domain.KindSingleChoice, Prompt: "capital", MaxScore: 1,
		Options: []domain.Option{{Text: "Paris", Correct: true}, {Text: "Rome"}},
	}
	if err := store.SaveQuestion(ctx, &blank); err != nil {
		t.Fatalf("save blank: %v", err)
	}
	if err := store.SaveQuestion(ctx, &choice); err != nil {
		t.Fatalf("save choice: %v", err)
	}

	questions, err := store.GetQuestionsForQuiz(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("get questions: %v", err)
	}
	if len(questions) != 2 || questions[0].ID != choice.ID || questions[1].ID != blank.ID {
		t.Fatalf("expected position order, got %+v", questions)
	}
	if len(questions[1].Blanks) != 2 || questions[1].Blanks[0][1] != "crimson" {
		t.Fatalf("blank answer data lost: %+v", questions[1])
	}

	optionID, ok, err := store.FindOptionID(ctx, choice.ID, "Paris")
	if err != nil || !ok || optionID == "" {
		t.Fatalf("expected resolved option id, got %q ok=%v err=%v", optionID, ok, err)
	}

	count, err := store.QuestionCount(ctx, quiz.ID)
	if err != nil || count != 2 {
		t.Fatalf("expected 2 questions, got %d err=%v", count, err)
	}

	if err := store.DeleteQuestion(ctx, blank.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.DeleteQuestion(ctx, blank.ID); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not found on double delete, got %v", err)
	}
}

func TestUpdateQuestionPosition(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	quiz := domain.Quiz{OwnerID: "a", Title: "t", DisplayType: domain.DisplaySinglePage}
	if err := store.SaveQuiz(ctx, &quiz); err != nil {
		t.Fatalf("save quiz: %v", err)
	}
	q := domain.Question{
		QuizID: quiz.ID, Position: 5, Kind: domain.KindPictureResponse, Prompt: "landmark", MaxScore: 1,
		Accepted: []string{"tower"},
	}
	if err := store.SaveQuestion(ctx, &q); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := store.UpdateQuestionPosition(ctx, q.ID, 0); err != nil {
		t.Fatalf("update position: %v", err)
	}
	got, err := store.GetQuestion(ctx, q.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Position != 0 {
		t.Fatalf("expected position 0, got %d", got.Position)
	}

	if err := store.UpdateQuestionPosition(ctx, "missing", 0); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReplaceQuestionOverwritesAnswerData(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	quiz := domain.Quiz{OwnerID: "a", Title: "t", DisplayType: domain.DisplaySinglePage}
	if err := store.SaveQuiz(ctx, &quiz); err != nil {
		t.Fatalf("save quiz: %v", err)
	}
	q := domain.Question{
		QuizID: quiz.ID, Kind: domain.KindPictureResponse, Prompt: "landmark", MaxScore: 1,
		Accepted: []string{"tower"},
	}
	if err := store.SaveQuestion(ctx, &q); err != nil {
		t.Fatalf("save: %v", err)
	}

	q.Accepted = []string{"bridge", "tower bridge"}
	q.MaxScore = 3
	if err := store.ReplaceQuestion(ctx, q); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err := store.GetQuestion(ctx, q.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.MaxScore != 3 || len(got.Accepted) != 2 {
		t.Fatalf("replace did not take: %+v", got)
	}
}

func TestAttemptLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	attempt, err := store.CreateAttempt(ctx, "u1", "quiz-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if attempt.ID == "" || attempt.StartTime.IsZero() {
		t.Fatalf("expected storage-assigned id and start time, got %+v", attempt)
	}
	if attempt.Completed() {
		t.Fatalf("fresh attempt reported completed")
	}

	loaded, err := store.GetAttempt(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.EndTime != nil || loaded.Score != nil {
		t.Fatalf("expected no score before completion, got %+v", loaded)
	}

	completed, err := store.CompleteAttempt(ctx, attempt.ID, 1.5)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !completed.Completed() || *completed.Score != 1.5 {
		t.Fatalf("expected completed with 1.5, got %+v", completed)
	}

	if _, err := store.CompleteAttempt(ctx, "missing", 1); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPieceReplacementKeepsInsertOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, given := range []string{"first", "second"} {
		if _, err := store.SavePiece(ctx, domain.AnswerPiece{AttemptID: "at1", QuestionID: "q1", Given: given, Correct: true}); err != nil {
			t.Fatalf("save piece: %v", err)
		}
	}
	if err := store.DeletePieces(ctx, "at1", "q1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	for _, given := range []string{"third", "fourth"} {
		if _, err := store.SavePiece(ctx, domain.AnswerPiece{AttemptID: "at1", QuestionID: "q1", Given: given}); err != nil {
			t.Fatalf("save piece: %v", err)
		}
	}

	pieces, err := store.GetPieces(ctx, "at1")
	if err != nil {
		t.Fatalf("get pieces: %v", err)
	}
	if len(pieces) != 2 || pieces[0].Given != "third" || pieces[1].Given != "fourth" {
		t.Fatalf("expected replacement in insert order, got %+v", pieces)
	}
}
