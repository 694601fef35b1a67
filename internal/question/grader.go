// Package question implements the closed set of question variants and their
// validate/score contracts. A Grader is built from stored answer data through
// the kind registry; construction fails if the data violates the variant's
// invariants, so an invalid grader never exists.
package question

import (
	"fmt"
	"strings"

	"quiz-attempt-service/internal/domain"
)

// Grader is the per-variant validate/score contract.
type Grader interface {
	// Kind reports the variant tag.
	Kind() domain.QuestionKind
	// MaxScore is the question's maximum contribution to an attempt total.
	MaxScore() float64
	// CheckAnswers returns per-value correctness for a submission.
	// domain.ErrInvalidSubmission reports a cardinality violation;
	// domain.ErrOptionNotFound reports a value outside a choice variant's
	// option set.
	CheckAnswers(submitted []string) ([]bool, error)
	// CorrectAnswers returns a canonical full-marks submission. Every call
	// returns a fresh copy; callers may mutate the result freely.
	CorrectAnswers() []string
	// CalculateScore scores a submission. It applies the same cardinality
	// validation as CheckAnswers.
	CalculateScore(submitted []string) (float64, error)
}

type constructor func(domain.Question) (Grader, error)

// registry maps variant tags to constructors. The set is closed; variants are
// not registered at runtime.
var registry = map[domain.QuestionKind]constructor{
	domain.KindSingleChoice:    newSingleChoice,
	domain.KindMultiChoice:     newMultiChoice,
	domain.KindFillBlank:       newFillBlank,
	domain.KindPictureResponse: newPictureResponse,
}

// New builds the grader for a stored question.
func New(q domain.Question) (Grader, error) {
	build, ok := registry[q.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %q", domain.ErrConstructionInvariant, q.Kind)
	}
	return build(q)
}

// normalize trims the value and collapses internal whitespace runs to a
// single space. Matching stays case-sensitive.
func normalize(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
