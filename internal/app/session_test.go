package app

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"quiz-attempt-service/internal/domain"
)

func sessionQuestions(n int) []domain.Question {
	questions := make([]domain.Question, n)
	for i := range questions {
		questions[i] = domain.Question{
			ID:       fmt.Sprintf("q%d", i),
			Position: i,
			Kind:     domain.KindSingleChoice,
			MaxScore: 1,
			Options:  []domain.Option{{Text: "yes", Correct: true}, {Text: "no"}},
		}
	}
	return questions
}

func TestNewSessionRejectsEmptyQuiz(t *testing.T) {
	_, err := NewSession("at1", domain.Quiz{}, nil)
	if !errors.Is(err, domain.ErrEmptyQuiz) {
		t.Fatalf("expected empty quiz error, got %v", err)
	}
}

func TestSessionCursorBounds(t *testing.T) {
	session, err := NewSession("at1", domain.Quiz{DisplayType: domain.DisplaySinglePage}, sessionQuestions(3))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	for i := 0; i < 2; i++ {
		if !session.HasNextQuestion() {
			t.Fatalf("expected next question at cursor %d", session.Cursor())
		}
		if err := session.MoveToNext(); err != nil {
			t.Fatalf("move next: %v", err)
		}
	}
	if session.HasNextQuestion() {
		t.Fatalf("expected no next question at last cursor")
	}
	if err := session.MoveToNext(); !errors.Is(err, domain.ErrCursorOutOfRange) {
		t.Fatalf("expected out of range at forward boundary, got %v", err)
	}

	if err := session.MoveToQuestion(0); err != nil {
		t.Fatalf("jump back: %v", err)
	}
	if err := session.MoveToPrevious(); !errors.Is(err, domain.ErrCursorOutOfRange) {
		t.Fatalf("expected out of range at backward boundary, got %v", err)
	}
	if err := session.MoveToQuestion(3); !errors.Is(err, domain.ErrCursorOutOfRange) {
		t.Fatalf("expected out of range for order 3, got %v", err)
	}
	if err := session.MoveToQuestion(-1); !errors.Is(err, domain.ErrCursorOutOfRange) {
		t.Fatalf("expected out of range for order -1, got %v", err)
	}
}

func TestCanGoBackTruthTable(t *testing.T) {
	cases := []struct {
		display   domain.DisplayType
		immediate bool
		want      bool
	}{
		{domain.DisplaySinglePage, false, true},
		{domain.DisplaySinglePage, true, true},
		{domain.DisplayMultiPage, false, true},
		{domain.DisplayMultiPage, true, false},
	}
	for _, tc := range cases {
		quiz := domain.Quiz{DisplayType: tc.display, ImmediateCorrection: tc.immediate}
		session, err := NewSession("at1", quiz, sessionQuestions(2))
		if err != nil {
			t.Fatalf("new session: %v", err)
		}
		if got := session.CanGoBack(); got != tc.want {
			t.Fatalf("(%s, immediate=%v): expected canGoBack=%v, got %v", tc.display, tc.immediate, tc.want, got)
		}
	}
}

func TestBackwardNavigationForbiddenIsDistinctError(t *testing.T) {
	quiz := domain.Quiz{DisplayType: domain.DisplayMultiPage, ImmediateCorrection: true}
	session, err := NewSession("at1", quiz, sessionQuestions(3))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := session.MoveToNext(); err != nil {
		t.Fatalf("move next: %v", err)
	}

	if err := session.MoveToPrevious(); !errors.Is(err, domain.ErrNavigationNotPermitted) {
		t.Fatalf("expected navigation error, got %v", err)
	}
	if err := session.MoveToQuestion(0); !errors.Is(err, domain.ErrNavigationNotPermitted) {
		t.Fatalf("expected navigation error on jump back, got %v", err)
	}
	// Forward jumps stay allowed.
	if err := session.MoveToQuestion(2); err != nil {
		t.Fatalf("forward jump: %v", err)
	}
}

func TestIsFinishedRegardlessOfSubmissionOrder(t *testing.T) {
	session, err := NewSession("at1", domain.Quiz{}, sessionQuestions(3))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	for _, order := range []int{2, 0} {
		session.SubmitAnswer(order, []string{"yes"})
		if session.IsFinished() {
			t.Fatalf("finished too early after order %d", order)
		}
	}
	session.SubmitAnswer(1, []string{"no"})
	if !session.IsFinished() {
		t.Fatalf("expected finished after all orders answered")
	}

	// Resubmission keeps it finished and replaces the buffer.
	session.SubmitAnswer(1, []string{"yes"})
	values, ok := session.Answer(1)
	if !ok || len(values) != 1 || values[0] != "yes" {
		t.Fatalf("expected resubmitted buffer, got %v ok=%v", values, ok)
	}
}

func TestShuffleUsesInjectedRand(t *testing.T) {
	quiz := domain.Quiz{RandomOrder: true}
	questions := sessionQuestions(5)

	first, err := NewSessionWithRand("at1", quiz, questions, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	second, err := NewSessionWithRand("at2", quiz, questions, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	a, b := first.Questions(), second.Questions()
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Fatalf("same seed must yield same permutation, differ at %d: %s vs %s", i, a[i].ID, b[i].ID)
		}
	}

	// The input slice must not be mutated by the shuffle.
	for i, q := range questions {
		if q.Position != i {
			t.Fatalf("input slice mutated at %d", i)
		}
	}
}

func TestSessionWithoutRandomOrderKeepsDisplayOrder(t *testing.T) {
	session, err := NewSession("at1", domain.Quiz{}, sessionQuestions(4))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	for i, q := range session.Questions() {
		if q.Position != i {
			t.Fatalf("expected display order preserved, got position %d at index %d", q.Position, i)
		}
	}
	if session.Current().ID != "q0" {
		t.Fatalf("expected cursor on first question, got %s", session.Current().ID)
	}
}
