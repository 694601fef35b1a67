package app

import (
	"context"

	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/question"
)

// QuestionListCache is the cache surface authoring keeps coherent: every
// question write drops the quiz's cached question list.
type QuestionListCache interface {
	Invalidate(ctx context.Context, quizID string)
}

// AuthorService covers the authoring surface: quizzes and their questions.
// Question answer data is validated through the question model before it is
// persisted, so a question that cannot grade never reaches storage.
type AuthorService struct {
	quizzes   QuizStore
	questions QuestionStore
	cache     QuestionListCache
}

// NewAuthorService wires the authoring surface. cache may be nil when no
// question cache sits in front of the store.
func NewAuthorService(quizzes QuizStore, questions QuestionStore, cache QuestionListCache) *AuthorService {
	return &AuthorService{quizzes: quizzes, questions: questions, cache: cache}
}

// CreateQuiz stores a new quiz. The store assigns identity and creation time.
func (s *AuthorService) CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	if quiz.DisplayType == "" {
		quiz.DisplayType = domain.DisplayMultiPage
	}
	if err := s.quizzes.SaveQuiz(ctx, &quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// AddQuestion appends a question to its quiz.
func (s *AuthorService) AddQuestion(ctx context.Context, q domain.Question) (domain.Question, error) {
	exists, err := s.quizzes.QuizExists(ctx, q.QuizID)
	if err != nil {
		return domain.Question{}, err
	}
	if !exists {
		return domain.Question{}, domain.ErrQuizNotFound
	}
	if _, err := question.New(q); err != nil {
		return domain.Question{}, err
	}

	count, err := s.quizzes.QuestionCount(ctx, q.QuizID)
	if err != nil {
		return domain.Question{}, err
	}
	q.Position = count
	if err := s.questions.SaveQuestion(ctx, &q); err != nil {
		return domain.Question{}, err
	}
	s.invalidate(ctx, q.QuizID)
	return q, nil
}

// ReplaceQuestion overwrites a question whole; answer data is re-derived from
// the replacement, never merged with the old question.
func (s *AuthorService) ReplaceQuestion(ctx context.Context, q domain.Question) error {
	if _, err := question.New(q); err != nil {
		return err
	}
	existing, err := s.questions.GetQuestion(ctx, q.ID)
	if err != nil {
		return err
	}
	if err := s.questions.ReplaceQuestion(ctx, q); err != nil {
		return err
	}
	s.invalidate(ctx, existing.QuizID)
	return nil
}

// DeleteQuestion removes a question and re-compacts the quiz's display
// positions. Submissions address questions by order, so positions must stay
// contiguous.
func (s *AuthorService) DeleteQuestion(ctx context.Context, questionID string) error {
	q, err := s.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	if err := s.questions.DeleteQuestion(ctx, questionID); err != nil {
		return err
	}

	remaining, err := s.questions.GetQuestionsForQuiz(ctx, q.QuizID)
	if err != nil {
		return err
	}
	for i, rest := range remaining {
		if rest.Position == i {
			continue
		}
		if err := s.questions.UpdateQuestionPosition(ctx, rest.ID, i); err != nil {
			return err
		}
	}
	s.invalidate(ctx, q.QuizID)
	return nil
}

func (s *AuthorService) invalidate(ctx context.Context, quizID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, quizID)
	}
}
