// Package postgres backs the storage contracts with Postgres via pgx.
// Question answer data lives in a JSONB column per question.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-attempt-service/internal/domain"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

type answerData struct {
	Options  []domain.Option `json:"options,omitempty"`
	Blanks   [][]string      `json:"blanks,omitempty"`
	Accepted []string        `json:"accepted,omitempty"`
}

func (s *Store) SaveQuiz(ctx context.Context, quiz *domain.Quiz) error {
	if quiz.ID != "" {
		return domain.ErrIdentityAssigned
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO quizzes (owner_id, title, description, random_order, display_type, immediate_correction, practice_mode)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING quiz_id, created_at`,
		quiz.OwnerID, quiz.Title, quiz.Description, quiz.RandomOrder,
		string(quiz.DisplayType), quiz.ImmediateCorrection, quiz.PracticeMode,
	).Scan(&quiz.ID, &quiz.CreatedAt)
	if err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}

func (s *Store) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var (
		quiz    domain.Quiz
		display string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT quiz_id, owner_id, title, description, created_at, random_order, display_type, immediate_correction, practice_mode
		 FROM quizzes WHERE quiz_id = $1`, quizID,
	).Scan(&quiz.ID, &quiz.OwnerID, &quiz.Title, &quiz.Description, &quiz.CreatedAt,
		&quiz.RandomOrder, &display, &quiz.ImmediateCorrection, &quiz.PracticeMode)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("get quiz: %w", err)
	}
	quiz.DisplayType = domain.DisplayType(display)
	return quiz, nil
}

func (s *Store) QuizExists(ctx context.Context, quizID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM quizzes WHERE quiz_id = $1)`, quizID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("quiz exists: %w", err)
	}
	return exists, nil
}

func (s *Store) QuestionCount(ctx context.Context, quizID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions WHERE quiz_id = $1`, quizID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("question count: %w", err)
	}
	return count, nil
}

func (s *Store) SaveQuestion(ctx context.Context, question *domain.Question) error {
	if question.ID != "" {
		return domain.ErrIdentityAssigned
	}
	assignOptionIDs(question)
	data, err := json.Marshal(answerData{Options: question.Options, Blanks: question.Blanks, Accepted: question.Accepted})
	if err != nil {
		return fmt.Errorf("marshal answer data: %w", err)
	}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO questions (quiz_id, position, kind, prompt, image_ref, max_score, answer_data)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING question_id`,
		question.QuizID, question.Position, string(question.Kind),
		question.Prompt, question.ImageRef, question.MaxScore, data,
	).Scan(&question.ID)
	if err != nil {
		return fmt.Errorf("save question: %w", err)
	}
	return nil
}

func (s *Store) ReplaceQuestion(ctx context.Context, question domain.Question) error {
	assignOptionIDs(&question)
	data, err := json.Marshal(answerData{Options: question.Options, Blanks: question.Blanks, Accepted: question.Accepted})
	if err != nil {
		return fmt.Errorf("marshal answer data: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE questions SET kind = $1, prompt = $2, image_ref = $3, max_score = $4, answer_data = $5
		 WHERE question_id = $6`,
		string(question.Kind), question.Prompt, question.ImageRef, question.MaxScore, data, question.ID,
	)
	if err != nil {
		return fmt.Errorf("replace question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (s *Store) UpdateQuestionPosition(ctx context.Context, questionID string, position int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE questions SET position = $1 WHERE question_id = $2`, position, questionID)
	if err != nil {
		return fmt.Errorf("update question position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (s *Store) DeleteQuestion(ctx context.Context, questionID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM questions WHERE question_id = $1`, questionID)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (s *Store) GetQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT question_id, quiz_id, position, kind, prompt, image_ref, max_score, answer_data
		 FROM questions WHERE question_id = $1`, questionID)
	question, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("get question: %w", err)
	}
	return question, nil
}

func (s *Store) GetQuestionsForQuiz(ctx context.Context, quizID string) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT question_id, quiz_id, position, kind, prompt, image_ref, max_score, answer_data
		 FROM questions WHERE quiz_id = $1 ORDER BY position`, quizID)
	if err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, question)
	}
	return questions, rows.Err()
}

func (s *Store) FindOptionID(ctx context.Context, questionID, optionText string) (string, bool, error) {
	question, err := s.GetQuestion(ctx, questionID)
	if err != nil {
		return "", false, err
	}
	for _, opt := range question.Options {
		if opt.Text == optionText {
			return opt.ID, true, nil
		}
	}
	return "", false, nil
}

func (s *Store) CreateAttempt(ctx context.Context, userID, quizID string) (domain.Attempt, error) {
	attempt := domain.Attempt{UserID: userID, QuizID: quizID}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO attempts (user_id, quiz_id) VALUES ($1, $2)
		 RETURNING attempt_id, start_time`,
		userID, quizID,
	).Scan(&attempt.ID, &attempt.StartTime)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("create attempt: %w", err)
	}
	return attempt, nil
}

func (s *Store) GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	var (
		attempt domain.Attempt
		end     *time.Time
		score   *float64
	)
	err := s.pool.QueryRow(ctx,
		`SELECT attempt_id, user_id, quiz_id, start_time, end_time, score
		 FROM attempts WHERE attempt_id = $1`, attemptID,
	).Scan(&attempt.ID, &attempt.UserID, &attempt.QuizID, &attempt.StartTime, &end, &score)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("get attempt: %w", err)
	}
	attempt.EndTime = end
	attempt.Score = score
	return attempt, nil
}

func (s *Store) CompleteAttempt(ctx context.Context, attemptID string, score float64) (domain.Attempt, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE attempts
		 SET end_time = now(), score = $1,
		     elapsed_seconds = EXTRACT(EPOCH FROM now() - start_time)::bigint
		 WHERE attempt_id = $2`,
		score, attemptID,
	)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("complete attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return s.GetAttempt(ctx, attemptID)
}

func (s *Store) SavePiece(ctx context.Context, piece domain.AnswerPiece) (domain.AnswerPiece, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO answer_pieces (attempt_id, question_id, given, option_id, correct)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING piece_id`,
		piece.AttemptID, piece.QuestionID, piece.Given, piece.OptionID, piece.Correct,
	).Scan(&piece.ID)
	if err != nil {
		return domain.AnswerPiece{}, fmt.Errorf("save piece: %w", err)
	}
	return piece, nil
}

func (s *Store) DeletePieces(ctx context.Context, attemptID, questionID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM answer_pieces WHERE attempt_id = $1 AND question_id = $2`, attemptID, questionID)
	if err != nil {
		return fmt.Errorf("delete pieces: %w", err)
	}
	return nil
}

func (s *Store) GetPieces(ctx context.Context, attemptID string) ([]domain.AnswerPiece, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT piece_id, attempt_id, question_id, given, option_id, correct
		 FROM answer_pieces WHERE attempt_id = $1 ORDER BY seq`, attemptID)
	if err != nil {
		return nil, fmt.Errorf("get pieces: %w", err)
	}
	defer rows.Close()

	var pieces []domain.AnswerPiece
	for rows.Next() {
		var piece domain.AnswerPiece
		if err := rows.Scan(&piece.ID, &piece.AttemptID, &piece.QuestionID, &piece.Given, &piece.OptionID, &piece.Correct); err != nil {
			return nil, fmt.Errorf("scan piece: %w", err)
		}
		pieces = append(pieces, piece)
	}
	return pieces, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuestion(row rowScanner) (domain.Question, error) {
	var (
		question domain.Question
		kind     string
		raw      []byte
	)
	if err := row.Scan(&question.ID, &question.QuizID, &question.Position, &kind, &question.Prompt, &question.ImageRef, &question.MaxScore, &raw); err != nil {
		return domain.Question{}, err
	}
	question.Kind = domain.QuestionKind(kind)
	var data answerData
	if err := json.Unmarshal(raw, &data); err != nil {
		return domain.Question{}, fmt.Errorf("unmarshal answer data: %w", err)
	}
	question.Options = data.Options
	question.Blanks = data.Blanks
	question.Accepted = data.Accepted
	return question, nil
}

func assignOptionIDs(question *domain.Question) {
	for i := range question.Options {
		if question.Options[i].ID == "" {
			question.Options[i].ID = uuid.NewString()
		}
	}
}
