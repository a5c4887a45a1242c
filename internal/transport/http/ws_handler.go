package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"screening-quiz-service/internal/app"
	"screening-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	engine   *app.Engine
	upgrader websocket.Upgrader
}

func NewWSHandler(engine *app.Engine) *WSHandler {
	return &WSHandler{
		engine: engine,
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
	QuestionID string `json:"questionId"`
	Score      *int   `json:"score,omitempty"`
	Tag        string `json:"tag,omitempty"`
	Year       string `json:"year,omitempty"`
	Category   string `json:"category,omitempty"`
}

type contactPayload struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type questionPayload struct {
	Question   domain.Question `json:"question"`
	Position   int             `json:"position"`
	Progress   float64         `json:"progress"`
	CanProceed bool            `json:"canProceed"`
}

type completedPayload struct {
	Progress float64 `json:"progress"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and drives one quiz session
// per connection. The client never sees scoring tables or other sessions;
// each message is handled synchronously, so a single goroutine owns all writes.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "missing sessionId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session, err := h.engine.StartSession(r.Context(), sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.engine.PersistSession(session)

	h.sendState(conn, session)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(conn, "invalid answer payload")
				continue
			}
			if err := h.commitAnswer(session, payload); err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			h.engine.PersistSession(session)
			h.sendState(conn, session)
		case "next":
			if !session.GoNext() {
				h.sendError(conn, "answer the current question first")
				continue
			}
			h.engine.PersistSession(session)
			h.sendState(conn, session)
		case "back":
			session.GoBack()
			h.engine.PersistSession(session)
			h.sendState(conn, session)
		case "finish":
			if !session.Finish() {
				h.sendError(conn, "answer the current question first")
				continue
			}
			h.engine.PersistSession(session)
			h.sendState(conn, session)
		case "contact":
			var payload contactPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(conn, "invalid contact payload")
				continue
			}
			session.SetContactEmail(payload.Email)
			session.SetContactPhone(payload.Phone)
		case "submit":
			if err := h.engine.SubmitAndReveal(r.Context(), session); err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			result, err := session.Result()
			if err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			h.send(conn, outboundMessage[any]{Type: "revealed", Payload: result})
		case "reset":
			if err := h.engine.Reset(r.Context(), session); err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			h.sendState(conn, session)
		default:
			h.sendError(conn, "unsupported message type")
		}
	}
}

// commitAnswer converts the wire payload into the tagged answer variant the
// question's declared type expects, so a score can never land on a tag item.
func (h *WSHandler) commitAnswer(session *app.Session, payload answerPayload) error {
	var question *domain.Question
	questions := session.Questions()
	for i := range questions {
		if questions[i].ID == payload.QuestionID {
			question = &questions[i]
			break
		}
	}
	if question == nil {
		return domain.ErrQuestionNotFound
	}

	var answer domain.Answer
	switch question.Type {
	case domain.QuestionScored:
		if payload.Score == nil {
			return errors.New("score required for this question")
		}
		answer = domain.ScoreAnswer(*payload.Score)
	case domain.QuestionClassification:
		answer = domain.TagAnswer(payload.Tag)
	case domain.QuestionYear:
		answer = domain.YearAnswer(payload.Year)
	case domain.QuestionCategory:
		answer = domain.CategoryAnswer(payload.Category)
	}
	session.SelectAnswer(payload.QuestionID, answer)
	return nil
}

func (h *WSHandler) sendState(conn *websocket.Conn, session *app.Session) {
	if question, ok := session.Current(); ok {
		h.send(conn, outboundMessage[any]{Type: "question", Payload: questionPayload{
			Question:   question,
			Position:   session.Position(),
			Progress:   session.Progress(),
			CanProceed: session.CanProceed(),
		}})
		return
	}
	h.send(conn, outboundMessage[any]{Type: "completed", Payload: completedPayload{Progress: session.Progress()}})
}

func (h *WSHandler) sendError(conn *websocket.Conn, message string) {
	h.send(conn, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}})
}

func (h *WSHandler) send(conn *websocket.Conn, msg outboundMessage[any]) {
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("ws write error: %v", err)
	}
}
