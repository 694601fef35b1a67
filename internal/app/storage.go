package app

import (
	"context"

	"quiz-attempt-service/internal/domain"
)

// QuizStore persists quiz headers and their configuration.
type QuizStore interface {
	// SaveQuiz stores a new quiz, assigning its identity and creation time.
	SaveQuiz(ctx context.Context, quiz *domain.Quiz) error
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	QuizExists(ctx context.Context, quizID string) (bool, error)
	QuestionCount(ctx context.Context, quizID string) (int, error)
}

// QuestionStore persists questions and their answer data.
type QuestionStore interface {
	// SaveQuestion stores a new question, assigning its identity (and option
	// identities for choice kinds).
	SaveQuestion(ctx context.Context, question *domain.Question) error
	// ReplaceQuestion overwrites a question whole, re-deriving its answer data.
	ReplaceQuestion(ctx context.Context, question domain.Question) error
	DeleteQuestion(ctx context.Context, questionID string) error
	// UpdateQuestionPosition moves a question to a new display order slot.
	UpdateQuestionPosition(ctx context.Context, questionID string, position int) error
	GetQuestion(ctx context.Context, questionID string) (domain.Question, error)
	// GetQuestionsForQuiz returns the quiz's questions in stored display order.
	GetQuestionsForQuiz(ctx context.Context, quizID string) ([]domain.Question, error)
	// FindOptionID resolves an option's identity by its text.
	FindOptionID(ctx context.Context, questionID, optionText string) (string, bool, error)
}

// AttemptStore persists attempt lifecycle state.
type AttemptStore interface {
	// CreateAttempt stores a new in-progress attempt, assigning its identity
	// and start time.
	CreateAttempt(ctx context.Context, userID, quizID string) (domain.Attempt, error)
	GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error)
	// CompleteAttempt writes the final score and end time, overwriting any
	// previous completion.
	CompleteAttempt(ctx context.Context, attemptID string, score float64) (domain.Attempt, error)
}

// AnswerPieceStore persists normalized answer pieces.
type AnswerPieceStore interface {
	// SavePiece stores one piece, assigning its identity.
	SavePiece(ctx context.Context, piece domain.AnswerPiece) (domain.AnswerPiece, error)
	DeletePieces(ctx context.Context, attemptID, questionID string) error
	// GetPieces returns all pieces of an attempt in stored order.
	GetPieces(ctx context.Context, attemptID string) ([]domain.AnswerPiece, error)
}

// SessionRepository tracks live sessions keyed by attempt id.
type SessionRepository interface {
	Put(session *Session)
	Get(attemptID string) (*Session, bool)
	Delete(attemptID string)
}
