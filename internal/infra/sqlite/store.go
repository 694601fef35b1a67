// Package sqlite is the embedded default store. Answer data is persisted as
// one JSON document per question, mirroring the postgres layout.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"quiz-attempt-service/internal/domain"
)

type Store struct {
	db    *sql.DB
	clock func() time.Time
}

func NewStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		path = "quiz.db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &Store{db: db, clock: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS quizzes (
			quiz_id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at_unix INTEGER NOT NULL,
			random_order INTEGER NOT NULL DEFAULT 0,
			display_type TEXT NOT NULL,
			immediate_correction INTEGER NOT NULL DEFAULT 0,
			practice_mode INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS questions (
			question_id TEXT PRIMARY KEY,
			quiz_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			kind TEXT NOT NULL,
			prompt TEXT NOT NULL,
			image_ref TEXT NOT NULL DEFAULT '',
			max_score REAL NOT NULL,
			answer_data TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS attempts (
			attempt_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			quiz_id TEXT NOT NULL,
			start_time_unix INTEGER NOT NULL,
			end_time_unix INTEGER,
			-- REAL: fill-blank questions contribute fractional scores.
			score REAL,
			elapsed_seconds INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS answer_pieces (
			piece_id TEXT PRIMARY KEY,
			attempt_id TEXT NOT NULL,
			question_id TEXT NOT NULL,
			given TEXT NOT NULL,
			option_id TEXT NOT NULL DEFAULT '',
			correct INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_questions_quiz_position ON questions(quiz_id, position);`,
		`CREATE INDEX IF NOT EXISTS idx_pieces_attempt ON answer_pieces(attempt_id);`,
		`CREATE INDEX IF NOT EXISTS idx_pieces_attempt_question ON answer_pieces(attempt_id, question_id);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// answerData is the JSON shape of a question's type-specific answer payload.
type answerData struct {
	Options  []domain.Option `json:"options,omitempty"`
	Blanks   [][]string      `json:"blanks,omitempty"`
	Accepted []string        `json:"accepted,omitempty"`
}

func (s *Store) SaveQuiz(ctx context.Context, quiz *domain.Quiz) error {
	if err := quiz.AssignID(uuid.NewString()); err != nil {
		return err
	}
	quiz.CreatedAt = s.clock().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quizzes (quiz_id, owner_id, title, description, created_at_unix, random_order, display_type, immediate_correction, practice_mode)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		quiz.ID, quiz.OwnerID, quiz.Title, quiz.Description, quiz.CreatedAt.Unix(),
		boolToInt(quiz.RandomOrder), string(quiz.DisplayType),
		boolToInt(quiz.ImmediateCorrection), boolToInt(quiz.PracticeMode),
	)
	if err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}

func (s *Store) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var (
		quiz        domain.Quiz
		createdUnix int64
		random      int
		display     string
		immediate   int
		practice    int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT quiz_id, owner_id, title, description, created_at_unix, random_order, display_type, immediate_correction, practice_mode
		 FROM quizzes WHERE quiz_id = ?`, quizID,
	).Scan(&quiz.ID, &quiz.OwnerID, &quiz.Title, &quiz.Description, &createdUnix, &random, &display, &immediate, &practice)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("get quiz: %w", err)
	}
	quiz.CreatedAt = time.Unix(createdUnix, 0).UTC()
	quiz.RandomOrder = random != 0
	quiz.DisplayType = domain.DisplayType(display)
	quiz.ImmediateCorrection = immediate != 0
	quiz.PracticeMode = practice != 0
	return quiz, nil
}

func (s *Store) QuizExists(ctx context.Context, quizID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM quizzes WHERE quiz_id = ?`, quizID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("quiz exists: %w", err)
	}
	return true, nil
}

func (s *Store) QuestionCount(ctx context.Context, quizID string) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions WHERE quiz_id = ?`, quizID).Scan(&count); err != nil {
		return 0, fmt.Errorf("question count: %w", err)
	}
	return count, nil
}

func (s *Store) SaveQuestion(ctx context.Context, question *domain.Question) error {
	assignOptionIDs(question)
	if err := question.AssignID(uuid.NewString()); err != nil {
		return err
	}
	data, err := json.Marshal(answerData{Options: question.Options, Blanks: question.Blanks, Accepted: question.Accepted})
	if err != nil {
		return fmt.Errorf("marshal answer data: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO questions (question_id, quiz_id, position, kind, prompt, image_ref, max_score, answer_data)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		question.ID, question.QuizID, question.Position, string(question.Kind),
		question.Prompt, question.ImageRef, question.MaxScore, string(data),
	)
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
	result, err := s.db.ExecContext(ctx,
		`UPDATE questions SET kind = ?, prompt = ?, image_ref = ?, max_score = ?, answer_data = ?
		 WHERE question_id = ?`,
		string(question.Kind), question.Prompt, question.ImageRef, question.MaxScore, string(data), question.ID,
	)
	if err != nil {
		return fmt.Errorf("replace question: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (s *Store) UpdateQuestionPosition(ctx context.Context, questionID string, position int) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE questions SET position = ? WHERE question_id = ?`, position, questionID)
	if err != nil {
		return fmt.Errorf("update question position: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (s *Store) DeleteQuestion(ctx context.Context, questionID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE question_id = ?`, questionID)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (s *Store) GetQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT question_id, quiz_id, position, kind, prompt, image_ref, max_score, answer_data
		 FROM questions WHERE question_id = ?`, questionID)
	question, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("get question: %w", err)
	}
	return question, nil
}

func (s *Store) GetQuestionsForQuiz(ctx context.Context, quizID string) ([]domain.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question_id, quiz_id, position, kind, prompt, image_ref, max_score, answer_data
		 FROM questions WHERE quiz_id = ? ORDER BY position`, quizID)
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
	attempt := domain.Attempt{
		UserID:    userID,
		QuizID:    quizID,
		StartTime: s.clock().UTC(),
	}
	if err := attempt.AssignID(uuid.NewString()); err != nil {
		return domain.Attempt{}, err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (attempt_id, user_id, quiz_id, start_time_unix) VALUES (?, ?, ?, ?)`,
		attempt.ID, attempt.UserID, attempt.QuizID, attempt.StartTime.Unix(),
	)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("create attempt: %w", err)
	}
	return attempt, nil
}

func (s *Store) GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	var (
		attempt   domain.Attempt
		startUnix int64
		endUnix   sql.NullInt64
		score     sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT attempt_id, user_id, quiz_id, start_time_unix, end_time_unix, score
		 FROM attempts WHERE attempt_id = ?`, attemptID,
	).Scan(&attempt.ID, &attempt.UserID, &attempt.QuizID, &startUnix, &endUnix, &score)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("get attempt: %w", err)
	}
	attempt.StartTime = time.Unix(startUnix, 0).UTC()
	if endUnix.Valid {
		end := time.Unix(endUnix.Int64, 0).UTC()
		attempt.EndTime = &end
	}
	if score.Valid {
		attempt.Score = &score.Float64
	}
	return attempt, nil
}

// CompleteAttempt writes the score and end time and derives the elapsed
// seconds from the stored start time, all in one statement.
func (s *Store) CompleteAttempt(ctx context.Context, attemptID string, score float64) (domain.Attempt, error) {
	now := s.clock().UTC().Unix()
	result, err := s.db.ExecContext(ctx,
		`UPDATE attempts SET end_time_unix = ?, score = ?, elapsed_seconds = ? - start_time_unix
		 WHERE attempt_id = ?`,
		now, score, now, attemptID,
	)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("complete attempt: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.Attempt{}, err
	}
	if affected == 0 {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return s.GetAttempt(ctx, attemptID)
}

func (s *Store) SavePiece(ctx context.Context, piece domain.AnswerPiece) (domain.AnswerPiece, error) {
	piece.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO answer_pieces (piece_id, attempt_id, question_id, given, option_id, correct)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		piece.ID, piece.AttemptID, piece.QuestionID, piece.Given, piece.OptionID, boolToInt(piece.Correct),
	)
	if err != nil {
		return domain.AnswerPiece{}, fmt.Errorf("save piece: %w", err)
	}
	return piece, nil
}

func (s *Store) DeletePieces(ctx context.Context, attemptID, questionID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM answer_pieces WHERE attempt_id = ? AND question_id = ?`, attemptID, questionID)
	if err != nil {
		return fmt.Errorf("delete pieces: %w", err)
	}
	return nil
}

func (s *Store) GetPieces(ctx context.Context, attemptID string) ([]domain.AnswerPiece, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT piece_id, attempt_id, question_id, given, option_id, correct
		 FROM answer_pieces WHERE attempt_id = ? ORDER BY rowid`, attemptID)
	if err != nil {
		return nil, fmt.Errorf("get pieces: %w", err)
	}
	defer rows.Close()

	var pieces []domain.AnswerPiece
	for rows.Next() {
		var (
			piece   domain.AnswerPiece
			correct int
		)
		if err := rows.Scan(&piece.ID, &piece.AttemptID, &piece.QuestionID, &piece.Given, &piece.OptionID, &correct); err != nil {
			return nil, fmt.Errorf("scan piece: %w", err)
		}
		piece.Correct = correct != 0
		pieces = append(pieces, piece)
	}
	return pieces, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (domain.Question, error) {
	var (
		question domain.Question
		kind     string
		raw      string
	)
	if err := row.Scan(&question.ID, &question.QuizID, &question.Position, &kind, &question.Prompt, &question.ImageRef, &question.MaxScore, &raw); err != nil {
		return domain.Question{}, err
	}
	question.Kind = domain.QuestionKind(kind)
	var data answerData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
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

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
