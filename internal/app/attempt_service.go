package app

import (
	"context"
	"fmt"
	"sync"

	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/question"
)

// AttemptService orchestrates the attempt lifecycle: it creates attempts,
// reconciles per-question submissions into persisted answer pieces, and
// aggregates them into a final score on completion.
type AttemptService struct {
	quizzes   QuizStore
	questions QuestionStore
	attempts  AttemptStore
	pieces    AnswerPieceStore
	sessions  SessionRepository
	locks     attemptLocks
}

func NewAttemptService(quizzes QuizStore, questions QuestionStore, attempts AttemptStore, pieces AnswerPieceStore, sessions SessionRepository) *AttemptService {
	return &AttemptService{
		quizzes:   quizzes,
		questions: questions,
		attempts:  attempts,
		pieces:    pieces,
		sessions:  sessions,
	}
}

// StartAttempt creates an attempt and the session driving it. The empty-quiz
// check runs before the attempt row is created, so a zero-question quiz never
// leaves an orphan attempt behind.
func (s *AttemptService) StartAttempt(ctx context.Context, userID, quizID string) (*Session, error) {
	exists, err := s.quizzes.QuizExists(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrQuizNotFound
	}

	count, err := s.quizzes.QuestionCount(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, domain.ErrEmptyQuiz
	}

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	questions, err := s.questions.GetQuestionsForQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	attempt, err := s.attempts.CreateAttempt(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}

	session, err := NewSession(attempt.ID, quiz, questions)
	if err != nil {
		return nil, err
	}
	s.sessions.Put(session)
	return session, nil
}

// SubmitAnswer validates a submission against its question and replaces the
// persisted pieces for (attempt, question) with one piece per value. Empty
// submissions are rejected with a false result rather than an error.
//
// The delete and the inserts are separate store calls; a crash between them
// can drop a question's pieces. The per-attempt lock keeps concurrent
// submissions for one attempt from interleaving, which is the only race a
// single process can see.
func (s *AttemptService) SubmitAnswer(ctx context.Context, attemptID string, questionOrder int, values []string) (bool, error) {
	if len(values) == 0 {
		return false, nil
	}

	attempt, err := s.attempts.GetAttempt(ctx, attemptID)
	if err != nil {
		return false, err
	}

	questions, err := s.questions.GetQuestionsForQuiz(ctx, attempt.QuizID)
	if err != nil {
		return false, err
	}
	if questionOrder < 0 || questionOrder >= len(questions) {
		return false, fmt.Errorf("%w: order %d of %d questions", domain.ErrQuestionNotFound, questionOrder, len(questions))
	}
	q := questions[questionOrder]

	grader, err := question.New(q)
	if err != nil {
		return false, err
	}
	flags, err := grader.CheckAnswers(values)
	if err != nil {
		return false, err
	}

	unlock := s.locks.lock(attemptID)
	defer unlock()

	if err := s.pieces.DeletePieces(ctx, attemptID, q.ID); err != nil {
		return false, err
	}
	for i, value := range values {
		piece := domain.AnswerPiece{
			AttemptID:  attemptID,
			QuestionID: q.ID,
			Given:      value,
			Correct:    flags[i],
		}
		if q.Kind == domain.KindSingleChoice {
			optionID, ok, err := s.questions.FindOptionID(ctx, q.ID, value)
			if err != nil {
				return false, err
			}
			if ok {
				piece.OptionID = optionID
			}
		}
		if _, err := s.pieces.SavePiece(ctx, piece); err != nil {
			return false, err
		}
	}

	if session, ok := s.sessions.Get(attemptID); ok {
		session.SubmitAnswer(questionOrder, values)
	}
	return true, nil
}

// CompleteAttempt reloads all persisted pieces, regroups them by question and
// re-scores each group from scratch through the question model; per-piece
// correctness flags are ignored. The total is the sum over questions with at
// least one piece. Calling it again recomputes and overwrites the score.
func (s *AttemptService) CompleteAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	if _, err := s.attempts.GetAttempt(ctx, attemptID); err != nil {
		return domain.Attempt{}, err
	}

	unlock := s.locks.lock(attemptID)
	defer unlock()

	pieces, err := s.pieces.GetPieces(ctx, attemptID)
	if err != nil {
		return domain.Attempt{}, err
	}

	// Group in stored order. All current variants score order-independently;
	// an ordered multi-part variant would need the original submission order
	// persisted explicitly.
	grouped := make(map[string][]string)
	var questionIDs []string
	for _, piece := range pieces {
		if _, ok := grouped[piece.QuestionID]; !ok {
			questionIDs = append(questionIDs, piece.QuestionID)
		}
		grouped[piece.QuestionID] = append(grouped[piece.QuestionID], piece.Given)
	}

	total := 0.0
	for _, questionID := range questionIDs {
		q, err := s.questions.GetQuestion(ctx, questionID)
		if err != nil {
			return domain.Attempt{}, err
		}
		grader, err := question.New(q)
		if err != nil {
			return domain.Attempt{}, err
		}
		score, err := grader.CalculateScore(grouped[questionID])
		if err != nil {
			return domain.Attempt{}, err
		}
		total += score
	}

	attempt, err := s.attempts.CompleteAttempt(ctx, attemptID, total)
	if err != nil {
		return domain.Attempt{}, err
	}
	s.sessions.Delete(attemptID)
	return attempt, nil
}

// GetAttempt exposes attempt state to the transport layer.
func (s *AttemptService) GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	return s.attempts.GetAttempt(ctx, attemptID)
}

// attemptLocks hands out one mutex per attempt id so each attempt sees at
// most one in-flight mutation.
type attemptLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *attemptLocks) lock(attemptID string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	lock, ok := l.locks[attemptID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[attemptID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
