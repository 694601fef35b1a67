package app

import (
	"math/rand"
	"time"

	"quiz-attempt-service/internal/domain"
)

// Session is the in-memory state machine for one in-flight attempt: an
// ordered question list, a cursor, and a buffer of submitted answers keyed by
// question order. A session is owned by exactly one attempt and is never
// shared across concurrent callers, so it carries no locking.
type Session struct {
	attemptID string
	quiz      domain.Quiz
	questions []domain.Question
	cursor    int
	answers   map[int][]string
	startTime time.Time
}

// NewSession builds a session over the quiz's questions. When the quiz asks
// for random order the list is shuffled once, here.
func NewSession(attemptID string, quiz domain.Quiz, questions []domain.Question) (*Session, error) {
	return NewSessionWithRand(attemptID, quiz, questions, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewSessionWithRand injects the shuffle source so tests can pin a permutation.
func NewSessionWithRand(attemptID string, quiz domain.Quiz, questions []domain.Question, rnd *rand.Rand) (*Session, error) {
	if len(questions) == 0 {
		return nil, domain.ErrEmptyQuiz
	}
	ordered := append([]domain.Question(nil), questions...)
	if quiz.RandomOrder {
		rnd.Shuffle(len(ordered), func(i, j int) {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		})
	}
	return &Session{
		attemptID: attemptID,
		quiz:      quiz,
		questions: ordered,
		answers:   make(map[int][]string),
		startTime: time.Now(),
	}, nil
}

func (s *Session) AttemptID() string    { return s.attemptID }
func (s *Session) Quiz() domain.Quiz    { return s.quiz }
func (s *Session) StartTime() time.Time { return s.startTime }
func (s *Session) Cursor() int          { return s.cursor }
func (s *Session) QuestionCount() int   { return len(s.questions) }

// Current returns the question under the cursor.
func (s *Session) Current() domain.Question {
	return s.questions[s.cursor]
}

// Questions returns the session's question order (shuffled if the quiz asked
// for it) as a copy.
func (s *Session) Questions() []domain.Question {
	return append([]domain.Question(nil), s.questions...)
}

// HasNextQuestion reports whether the cursor can still move forward.
func (s *Session) HasNextQuestion() bool {
	return s.cursor < len(s.questions)-1
}

// MoveToNext advances the cursor.
func (s *Session) MoveToNext() error {
	if !s.HasNextQuestion() {
		return domain.ErrCursorOutOfRange
	}
	s.cursor++
	return nil
}

// MoveToPrevious steps the cursor back. Backward navigation is gated by the
// quiz configuration before the bounds check, so a forbidden move reports the
// navigation error rather than the generic bounds one.
func (s *Session) MoveToPrevious() error {
	if !s.CanGoBack() {
		return domain.ErrNavigationNotPermitted
	}
	if s.cursor == 0 {
		return domain.ErrCursorOutOfRange
	}
	s.cursor--
	return nil
}

// MoveToQuestion jumps to an explicit order.
func (s *Session) MoveToQuestion(order int) error {
	if order < 0 || order >= len(s.questions) {
		return domain.ErrCursorOutOfRange
	}
	if order < s.cursor && !s.CanGoBack() {
		return domain.ErrNavigationNotPermitted
	}
	s.cursor = order
	return nil
}

// CanGoBack reports whether backward navigation is allowed: always on a
// single-page quiz, and on multi-page quizzes only without immediate
// correction (revisiting would leak the shown corrections).
func (s *Session) CanGoBack() bool {
	if s.quiz.DisplayType == domain.DisplaySinglePage {
		return true
	}
	return !s.quiz.ImmediateCorrection
}

// SubmitAnswer buffers a submission for a question order. Shape validation is
// the question model's job, applied when the orchestrator persists the
// submission; the session just upserts.
func (s *Session) SubmitAnswer(order int, values []string) {
	s.answers[order] = append([]string(nil), values...)
}

// Answer returns the buffered submission for a question order.
func (s *Session) Answer(order int) ([]string, bool) {
	values, ok := s.answers[order]
	return values, ok
}

// IsFinished reports whether every question order has a buffered submission.
func (s *Session) IsFinished() bool {
	for order := range s.questions {
		if _, ok := s.answers[order]; !ok {
			return false
		}
	}
	return true
}
