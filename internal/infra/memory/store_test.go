package memory

import (
	"context"
	"errors"
	"testing"

	"quiz-attempt-service/internal/domain"
)

func TestStoreAssignsWriteOnceIdentities(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	quiz := domain.Quiz{Title: "geo"}
	if err := store.SaveQuiz(ctx, &quiz); err != nil {
		t.Fatalf("save quiz: %v", err)
	}
	if quiz.ID == "" || quiz.CreatedAt.IsZero() {
		t.Fatalf("expected assigned id and creation time, got %+v", quiz)
	}
	if err := store.SaveQuiz(ctx, &quiz); !errors.Is(err, domain.ErrIdentityAssigned) {
		t.Fatalf("expected identity violation on re-save, got %v", err)
	}
	if err := quiz.AssignID("other"); !errors.Is(err, domain.ErrIdentityAssigned) {
		t.Fatalf("expected identity violation on quiz re-assignment, got %v", err)
	}

	attempt, err := store.CreateAttempt(ctx, "u1", quiz.ID)
	if err != nil {
		t.Fatalf("create attempt: %v", err)
	}
	if attempt.ID == "" || attempt.StartTime.IsZero() {
		t.Fatalf("expected assigned attempt id and start time, got %+v", attempt)
	}
	if attempt.Completed() {
		t.Fatalf("fresh attempt must not be completed")
	}
	if err := attempt.AssignID("other"); !errors.Is(err, domain.ErrIdentityAssigned) {
		t.Fatalf("expected identity violation, got %v", err)
	}
}

func TestStoreQuestionOrderAndOptions(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	quiz := domain.Quiz{Title: "geo"}
	if err := store.SaveQuiz(ctx, &quiz); err != nil {
		t.Fatalf("save quiz: %v", err)
	}

	first := domain.Question{
		QuizID: quiz.ID, Position: 0, Kind: domain.KindSingleChoice, MaxScore: 1,
		Options: []domain.Option{{Text: "A", Correct: true}, {Text: "B"}},
	}
	second := domain.Question{
		QuizID: quiz.ID, Position: 1, Kind: domain.KindFillBlank, MaxScore: 1,
		Blanks: [][]string{{"x"}},
	}
	// Insert out of display order; reads must come back ordered.
	if err := store.SaveQuestion(ctx, &second); err != nil {
		t.Fatalf("save second: %v", err)
	}
	if err := store.SaveQuestion(ctx, &first); err != nil {
		t.Fatalf("save first: %v", err)
	}

	questions, err := store.GetQuestionsForQuiz(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("get questions: %v", err)
	}
	if len(questions) != 2 || questions[0].ID != first.ID || questions[1].ID != second.ID {
		t.Fatalf("expected display order, got %+v", questions)
	}

	optionID, ok, err := store.FindOptionID(ctx, first.ID, "A")
	if err != nil || !ok || optionID == "" {
		t.Fatalf("expected option id for text A, got %q ok=%v err=%v", optionID, ok, err)
	}
	if _, ok, _ := store.FindOptionID(ctx, first.ID, "Z"); ok {
		t.Fatalf("expected no option id for unknown text")
	}

	count, err := store.QuestionCount(ctx, quiz.ID)
	if err != nil || count != 2 {
		t.Fatalf("expected count 2, got %d err=%v", count, err)
	}
}

func TestStoreReplaceQuestionKeepsIdentityAndPosition(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	quiz := domain.Quiz{Title: "geo"}
	if err := store.SaveQuiz(ctx, &quiz); err != nil {
		t.Fatalf("save quiz: %v", err)
	}
	q := domain.Question{
		QuizID: quiz.ID, Position: 3, Kind: domain.KindPictureResponse, MaxScore: 1,
		Accepted: []string{"tower"},
	}
	if err := store.SaveQuestion(ctx, &q); err != nil {
		t.Fatalf("save: %v", err)
	}

	replacement := domain.Question{
		ID: q.ID, Kind: domain.KindPictureResponse, MaxScore: 2,
		Accepted: []string{"bridge"},
	}
	if err := store.ReplaceQuestion(ctx, replacement); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err := store.GetQuestion(ctx, q.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Position != 3 || got.QuizID != quiz.ID {
		t.Fatalf("replace must keep quiz binding and position, got %+v", got)
	}
	if got.MaxScore != 2 || got.Accepted[0] != "bridge" {
		t.Fatalf("replace must overwrite answer data, got %+v", got)
	}

	if err := store.ReplaceQuestion(ctx, domain.Question{ID: "missing"}); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not found for unknown id, got %v", err)
	}
}

func TestStorePieceReplacement(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	for _, given := range []string{"a", "b"} {
		if _, err := store.SavePiece(ctx, domain.AnswerPiece{AttemptID: "at1", QuestionID: "q1", Given: given}); err != nil {
			t.Fatalf("save piece: %v", err)
		}
	}
	if _, err := store.SavePiece(ctx, domain.AnswerPiece{AttemptID: "at1", QuestionID: "q2", Given: "c"}); err != nil {
		t.Fatalf("save piece: %v", err)
	}

	if err := store.DeletePieces(ctx, "at1", "q1"); err != nil {
		t.Fatalf("delete pieces: %v", err)
	}
	pieces, err := store.GetPieces(ctx, "at1")
	if err != nil {
		t.Fatalf("get pieces: %v", err)
	}
	if len(pieces) != 1 || pieces[0].QuestionID != "q2" {
		t.Fatalf("expected only q2 pieces to survive, got %+v", pieces)
	}
}
