package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-attempt-service/internal/domain"
)

// Store keeps quizzes, questions, attempts and answer pieces in process
// memory. It backs tests and the no-database demo mode.
type Store struct {
	mu        sync.RWMutex
	clock     func() time.Time
	quizzes   map[string]domain.Quiz
	questions map[string]domain.Question
	attempts  map[string]domain.Attempt
	pieces    map[string][]domain.AnswerPiece
}

func NewStore() *Store {
	return &Store{
		clock:     time.Now,
		quizzes:   make(map[string]domain.Quiz),
		questions: make(map[string]domain.Question),
		attempts:  make(map[string]domain.Attempt),
		pieces:    make(map[string][]domain.AnswerPiece),
	}
}

func (s *Store) SaveQuiz(_ context.Context, quiz *domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := quiz.AssignID(uuid.NewString()); err != nil {
		return err
	}
	quiz.CreatedAt = s.clock()
	s.quizzes[quiz.ID] = *quiz
	return nil
}

func (s *Store) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *Store) QuizExists(_ context.Context, quizID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.quizzes[quizID]
	return ok, nil
}

func (s *Store) QuestionCount(_ context.Context, quizID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, q := range s.questions {
		if q.QuizID == quizID {
			count++
		}
	}
	return count, nil
}

func (s *Store) SaveQuestion(_ context.Context, question *domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := question.AssignID(uuid.NewString()); err != nil {
		return err
	}
	assignOptionIDs(question)
	s.questions[question.ID] = cloneQuestion(*question)
	return nil
}

func (s *Store) ReplaceQuestion(_ context.Context, question domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.questions[question.ID]
	if !ok {
		return domain.ErrQuestionNotFound
	}
	question.QuizID = existing.QuizID
	question.Position = existing.Position
	assignOptionIDs(&question)
	s.questions[question.ID] = cloneQuestion(question)
	return nil
}

func (s *Store) UpdateQuestionPosition(_ context.Context, questionID string, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	question, ok := s.questions[questionID]
	if !ok {
		return domain.ErrQuestionNotFound
	}
	question.Position = position
	s.questions[questionID] = question
	return nil
}

func (s *Store) DeleteQuestion(_ context.Context, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[questionID]; !ok {
		return domain.ErrQuestionNotFound
	}
	delete(s.questions, questionID)
	return nil
}

func (s *Store) GetQuestion(_ context.Context, questionID string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	question, ok := s.questions[questionID]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return cloneQuestion(question), nil
}

func (s *Store) GetQuestionsForQuiz(_ context.Context, quizID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var questions []domain.Question
	for _, q := range s.questions {
		if q.QuizID == quizID {
			questions = append(questions, cloneQuestion(q))
		}
	}
	sort.Slice(questions, func(i, j int) bool {
		return questions[i].Position < questions[j].Position
	})
	return questions, nil
}

func (s *Store) FindOptionID(_ context.Context, questionID, optionText string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	question, ok := s.questions[questionID]
	if !ok {
		return "", false, domain.ErrQuestionNotFound
	}
	for _, opt := range question.Options {
		if opt.Text == optionText {
			return opt.ID, true, nil
		}
	}
	return "", false, nil
}

func (s *Store) CreateAttempt(_ context.Context, userID, quizID string) (domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt := domain.Attempt{
		UserID:    userID,
		QuizID:    quizID,
		StartTime: s.clock(),
	}
	if err := attempt.AssignID(uuid.NewString()); err != nil {
		return domain.Attempt{}, err
	}
	s.attempts[attempt.ID] = attempt
	return attempt, nil
}

func (s *Store) GetAttempt(_ context.Context, attemptID string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return attempt, nil
}

func (s *Store) CompleteAttempt(_ context.Context, attemptID string, score float64) (domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	now := s.clock()
	attempt.EndTime = &now
	attempt.Score = &score
	s.attempts[attemptID] = attempt
	return attempt, nil
}

func (s *Store) SavePiece(_ context.Context, piece domain.AnswerPiece) (domain.AnswerPiece, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	piece.ID = uuid.NewString()
	s.pieces[piece.AttemptID] = append(s.pieces[piece.AttemptID], piece)
	return piece, nil
}

func (s *Store) DeletePieces(_ context.Context, attemptID, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.pieces[attemptID][:0]
	for _, piece := range s.pieces[attemptID] {
		if piece.QuestionID != questionID {
			kept = append(kept, piece)
		}
	}
	s.pieces[attemptID] = kept
	return nil
}

func (s *Store) GetPieces(_ context.Context, attemptID string) ([]domain.AnswerPiece, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AnswerPiece(nil), s.pieces[attemptID]...), nil
}

// AttemptCount is test support: it reports how many attempts exist.
func (s *Store) AttemptCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attempts)
}

func assignOptionIDs(question *domain.Question) {
	for i := range question.Options {
		if question.Options[i].ID == "" {
			question.Options[i].ID = uuid.NewString()
		}
	}
}

func cloneQuestion(q domain.Question) domain.Question {
	q.Options = append([]domain.Option(nil), q.Options...)
	if q.Blanks != nil {
		blanks := make([][]string, len(q.Blanks))
		for i, accepted := range q.Blanks {
			blanks[i] = append([]string(nil), accepted...)
		}
		q.Blanks = blanks
	}
	q.Accepted = append([]string(nil), q.Accepted...)
	return q
}
