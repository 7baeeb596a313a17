package http

import (
	"encoding/json"
	"log"
	"net/http"

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/domain"
	"github.com/gorilla/websocket"
)

// ControllerFactory builds a session controller bound to one client's
// snapshot slot and (optional) user identity.
type ControllerFactory func(clientID, userID string) *app.Controller

type WSHandler struct {
	newController ControllerFactory
	upgrader      websocket.Upgrader
}

func NewWSHandler(factory ControllerFactory) *WSHandler {
	return &WSHandler{
		newController: factory,
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

type startPayload struct {
	Tier string `json:"tier"`
}

type answerPayload struct {
	OptionIndex int `json:"optionIndex"`
}

type questionView struct {
	Index    int      `json:"index"`
	Total    int      `json:"total"`
	Prompt   string   `json:"prompt"`
	Options  []string `json:"options"`
	Answered bool     `json:"answered"`
	Score    int      `json:"score"`
	Resumed  bool     `json:"resumed,omitempty"`
}

type answerView struct {
	Correct      bool   `json:"correct"`
	Applied      bool   `json:"applied"`
	Score        int    `json:"score"`
	CorrectIndex int    `json:"correctIndex"`
	Explanation  string `json:"explanation,omitempty"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and drives one quiz session
// per connection. The client ID keys the persisted snapshot slot, so the
// same client reconnecting resumes its in-progress session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("clientId")
	userID := r.URL.Query().Get("userId") // optional: anonymous play skips profile stats
	if clientID == "" {
		http.Error(w, "missing clientId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	controller := h.newController(clientID, userID)
	defer controller.Abandon()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "start":
			var payload startPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Tier == "" {
				writeError(conn, "invalid start payload")
				continue
			}
			resumed, err := controller.Start(r.Context(), domain.Tier(payload.Tier))
			if err != nil {
				writeError(conn, err.Error())
				continue
			}
			view, err := currentView(controller)
			if err != nil {
				writeError(conn, err.Error())
				continue
			}
			view.Resumed = resumed
			_ = conn.WriteJSON(outboundMessage[questionView]{Type: "question", Payload: view})

		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				writeError(conn, "invalid answer payload")
				continue
			}
			question, _, _, err := controller.Current()
			if err != nil {
				writeError(conn, err.Error())
				continue
			}
			feedback, err := controller.Answer(r.Context(), payload.OptionIndex)
			if err != nil {
				writeError(conn, err.Error())
				continue
			}
			_ = conn.WriteJSON(outboundMessage[answerView]{Type: "answerResult", Payload: answerView{
				Correct:      feedback.Correct,
				Applied:      feedback.Applied,
				Score:        feedback.Score,
				CorrectIndex: question.CorrectIndex,
				Explanation:  question.Explanation,
			}})

		case "advance":
			result, err := controller.Advance(r.Context())
			if err != nil {
				writeError(conn, err.Error())
				continue
			}
			if result != nil {
				_ = conn.WriteJSON(outboundMessage[domain.SessionResult]{Type: "completed", Payload: *result})
				continue
			}
			view, err := currentView(controller)
			if err != nil {
				writeError(conn, err.Error())
				continue
			}
			_ = conn.WriteJSON(outboundMessage[questionView]{Type: "question", Payload: view})

		default:
			writeError(conn, "unsupported message type")
		}
	}
}

func currentView(controller *app.Controller) (questionView, error) {
	question, index, total, err := controller.Current()
	if err != nil {
		return questionView{}, err
	}
	score, err := controller.Score()
	if err != nil {
		return questionView{}, err
	}
	return questionView{
		Index:    index,
		Total:    total,
		Prompt:   question.Prompt,
		Options:  question.Options,
		Answered: question.Answered(),
		Score:    score,
	}, nil
}

func writeError(conn *websocket.Conn, message string) {
	_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: message}})
}
