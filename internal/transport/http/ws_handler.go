package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/question"
)

// WSHandler drives one attempt per websocket connection: the server starts
// the attempt on connect and the client walks the session with answer and
// navigation messages until it completes. Each connection owns its session,
// so the handler writes from the read loop only.
type WSHandler struct {
	service  *app.AttemptService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AttemptService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Values []string `json:"values"`
}

type gotoPayload struct {
	Order int `json:"order"`
}

// questionView is the client-facing question shape; answer keys stay on the
// server.
type questionView struct {
	Order    int      `json:"order"`
	Kind     string   `json:"kind"`
	Prompt   string   `json:"prompt"`
	ImageRef string   `json:"imageRef,omitempty"`
	Options  []string `json:"options,omitempty"`
	Blanks   int      `json:"blanks,omitempty"`
	MaxScore float64  `json:"maxScore"`
}

type startedPayload struct {
	AttemptID     string       `json:"attemptId"`
	QuizID        string       `json:"quizId"`
	QuestionCount int          `json:"questionCount"`
	CanGoBack     bool         `json:"canGoBack"`
	Question      questionView `json:"question"`
}

type answerResult struct {
	Order    int    `json:"order"`
	Accepted bool   `json:"accepted"`
	Finished bool   `json:"finished"`
	Correct  []bool `json:"correct,omitempty"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request, starts an attempt, and serves the attempt
// flow until the client completes or disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	userID := r.URL.Query().Get("userId")
	if quizID == "" || userID == "" {
		http.Error(w, "missing quizId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session, err := h.service.StartAttempt(r.Context(), userID, quizID)
	if err != nil {
		writeError(conn, err.Error())
		return
	}

	_ = conn.WriteJSON(outboundMessage[startedPayload]{Type: "started", Payload: startedPayload{
		AttemptID:     session.AttemptID(),
		QuizID:        quizID,
		QuestionCount: session.QuestionCount(),
		CanGoBack:     session.CanGoBack(),
		Question:      viewOf(session.Cursor(), session.Current()),
	}})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "answer":
			h.handleAnswer(r, conn, session, inbound.Payload)
		case "next":
			h.handleMove(conn, session, session.MoveToNext())
		case "previous":
			h.handleMove(conn, session, session.MoveToPrevious())
		case "goto":
			var payload gotoPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				writeError(conn, "invalid goto payload")
				continue
			}
			h.handleMove(conn, session, session.MoveToQuestion(payload.Order))
		case "complete":
			attempt, err := h.service.CompleteAttempt(r.Context(), session.AttemptID())
			if err != nil {
				writeError(conn, err.Error())
				continue
			}
			_ = conn.WriteJSON(outboundMessage[domain.Attempt]{Type: "completed", Payload: attempt})
			return
		default:
			writeError(conn, "unsupported message type")
		}
	}
}

func (h *WSHandler) handleAnswer(r *http.Request, conn *websocket.Conn, session *app.Session, raw json.RawMessage) {
	var payload answerPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		writeError(conn, "invalid answer payload")
		return
	}

	current := session.Current()
	// Submissions are keyed by stored display order even when the session
	// presents a shuffled list.
	order := current.Position
	accepted, err := h.service.SubmitAnswer(r.Context(), session.AttemptID(), order, payload.Values)
	if err != nil {
		writeError(conn, err.Error())
		return
	}

	result := answerResult{Order: order, Accepted: accepted, Finished: session.IsFinished()}
	if accepted && session.Quiz().ImmediateCorrection {
		if grader, err := question.New(current); err == nil {
			if flags, err := grader.CheckAnswers(payload.Values); err == nil {
				result.Correct = flags
			}
		}
	}
	_ = conn.WriteJSON(outboundMessage[answerResult]{Type: "answerResult", Payload: result})
}

func (h *WSHandler) handleMove(conn *websocket.Conn, session *app.Session, err error) {
	if err != nil {
		writeError(conn, err.Error())
		return
	}
	_ = conn.WriteJSON(outboundMessage[questionView]{Type: "question", Payload: viewOf(session.Cursor(), session.Current())})
}

func writeError(conn *websocket.Conn, message string) {
	_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: message}})
}

func viewOf(order int, q domain.Question) questionView {
	view := questionView{
		Order:    order,
		Kind:     string(q.Kind),
		Prompt:   q.Prompt,
		ImageRef: q.ImageRef,
		Blanks:   len(q.Blanks),
		MaxScore: q.MaxScore,
	}
	for _, opt := range q.Options {
		view.Options = append(view.Options, opt.Text)
	}
	return view
}
