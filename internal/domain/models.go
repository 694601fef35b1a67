package domain

import "time"

// QuestionKind tags the closed set of question variants.
type QuestionKind string

const (
	KindSingleChoice    QuestionKind = "single_choice"
	KindMultiChoice     QuestionKind = "multi_choice"
	KindFillBlank       QuestionKind = "fill_blank"
	KindPictureResponse QuestionKind = "picture_response"
)

// DisplayType controls how a quiz presents its questions.
type DisplayType string

const (
	DisplaySinglePage DisplayType = "single_page"
	DisplayMultiPage  DisplayType = "multi_page"
)

// Option represents a possible answer for a choice question.
type Option struct {
	ID      string `json:"id,omitempty"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question holds one question and its type-specific answer data. Exactly one
// of Options, Blanks, or Accepted is populated depending on Kind: Options for
// the choice kinds, Blanks (ordered, one acceptable-answer set per blank) for
// fill-blank, Accepted for picture-response.
type Question struct {
	ID       string       `json:"id,omitempty"`
	QuizID   string       `json:"quizId"`
	Position int          `json:"position"`
	Kind     QuestionKind `json:"kind"`
	Prompt   string       `json:"prompt"`
	ImageRef string       `json:"imageRef,omitempty"`
	MaxScore float64      `json:"maxScore"`

	Options  []Option   `json:"options,omitempty"`
	Blanks   [][]string `json:"blanks,omitempty"`
	Accepted []string   `json:"accepted,omitempty"`
}

// AssignID sets the storage-assigned identity. It may be called once.
func (q *Question) AssignID(id string) error {
	if q.ID != "" {
		return ErrIdentityAssigned
	}
	q.ID = id
	return nil
}

// Quiz is the quiz header plus its taking configuration. Questions are loaded
// separately, ordered by Position.
type Quiz struct {
	ID          string    `json:"id,omitempty"`
	OwnerID     string    `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`

	RandomOrder         bool        `json:"randomOrder"`
	DisplayType         DisplayType `json:"displayType"`
	ImmediateCorrection bool        `json:"immediateCorrection"`
	PracticeMode        bool        `json:"practiceMode"`
}

// AssignID sets the storage-assigned identity. It may be called once.
func (q *Quiz) AssignID(id string) error {
	if q.ID != "" {
		return ErrIdentityAssigned
	}
	q.ID = id
	return nil
}

// Attempt is one user's run through a quiz. EndTime and Score stay nil until
// the attempt is completed.
type Attempt struct {
	ID        string     `json:"id,omitempty"`
	UserID    string     `json:"userId"`
	QuizID    string     `json:"quizId"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Score     *float64   `json:"score,omitempty"`
}

// AssignID sets the storage-assigned identity. It may be called once.
func (a *Attempt) AssignID(id string) error {
	if a.ID != "" {
		return ErrIdentityAssigned
	}
	a.ID = id
	return nil
}

// Completed reports whether the attempt has been scored.
func (a Attempt) Completed() bool {
	return a.EndTime != nil && a.Score != nil
}

// AnswerPiece is one atomic unit of a submitted answer. Multi-part questions
// persist several pieces per (attempt, question); the set is replaced whole
// on resubmission. OptionID is only set for single-choice questions.
type AnswerPiece struct {
	ID         string `json:"id,omitempty"`
	AttemptID  string `json:"attemptId"`
	QuestionID string `json:"questionId"`
	Given      string `json:"given"`
	OptionID   string `json:"optionId,omitempty"`
	Correct    bool   `json:"correct"`
}
