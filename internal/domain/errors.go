package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a question id or order is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAttemptNotFound indicates an unknown attempt id.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrOptionNotFound indicates a submitted option is not part of the question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrEmptyQuiz is returned when an attempt is started on a quiz with no questions.
	ErrEmptyQuiz = errors.New("quiz has no questions")
	// ErrInvalidSubmission is returned when a submission violates a question's
	// cardinality rule.
	ErrInvalidSubmission = errors.New("invalid submission")
	// ErrConstructionInvariant is returned when question answer data violates
	// its variant's construction rules; the grader must not come into existence.
	ErrConstructionInvariant = errors.New("question construction invariant violated")
	// ErrIdentityAssigned is returned when a write-once identity is assigned twice.
	ErrIdentityAssigned = errors.New("identity already assigned")
	// ErrCursorOutOfRange is returned for navigation beyond the question list.
	ErrCursorOutOfRange = errors.New("question cursor out of range")
	// ErrNavigationNotPermitted is returned for backward navigation when the
	// quiz configuration forbids it.
	ErrNavigationNotPermitted = errors.New("navigation not permitted")
)
