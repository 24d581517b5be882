package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Teek0505/TransMedix/internal/domain/sessions"
	"github.com/Teek0505/TransMedix/internal/middleware"
	"github.com/Teek0505/TransMedix/internal/platform/logger"
	"github.com/Teek0505/TransMedix/internal/ports/speech"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const (
	readLimit = 1 << 20 // audio chunks + mensajes de control
	pongWait  = 60 * time.Second
)

// Handler atiende la conexión WebSocket de un room de sesión.
// Los frames de texto son mensajes de control; los binarios son
// chunks de audio que se relevan al recognizer en streaming.
type Handler struct {
	hub         *Hub
	sessionsSvc *sessions.Service
	rec         speech.Recognizer
	log         logger.Logger

	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, sessionsSvc *sessions.Service, rec speech.Recognizer, allowedOrigins []string, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		hub:         hub,
		sessionsSvc: sessionsSvc,
		rec:         rec,
		log:         log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/sessions/{id}", h.serve)
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			return true // clientes no-browser
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

type controlMessage struct {
	Type string `json:"type"`
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	sessionID := chi.URLParam(r, "id")
	session, err := h.sessionsSvc.GetByID(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", map[string]any{"err": logger.Err(err)})
		return
	}

	c := &client{conn: conn, userID: claims.UserID}
	h.hub.join(sessionID, c)

	var stream speech.Stream
	defer func() {
		if stream != nil {
			if _, err := stream.Close(); err != nil {
				h.log.Warn("close audio stream", map[string]any{
					"session_id": sessionID, "err": logger.Err(err),
				})
			}
		}
		h.hub.leave(sessionID, c)
		_ = conn.Close()
	}()

	_ = c.writeJSON(envelope{Type: "connected", Data: map[string]any{
		"session_id": sessionID,
	}})

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("ws read error", map[string]any{
					"session_id": sessionID, "err": logger.Err(err),
				})
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		switch msgType {
		case websocket.BinaryMessage:
			if stream == nil {
				stream, err = h.openStream(r, sessionID, session.Language)
				if err != nil {
					h.log.Warn("open audio stream", map[string]any{
						"session_id": sessionID, "err": logger.Err(err),
					})
					_ = c.writeJSON(envelope{Type: "transcript:error", Data: map[string]any{
						"error": "live transcription unavailable",
					}})
					continue
				}
			}
			if err := stream.Write(payload); err != nil {
				h.log.Warn("write audio chunk", map[string]any{
					"session_id": sessionID, "err": logger.Err(err),
				})
			}

		case websocket.TextMessage:
			var msg controlMessage
			if err := json.Unmarshal(payload, &msg); err != nil {
				continue
			}
			switch msg.Type {
			case "ping":
				_ = c.writeJSON(envelope{Type: "pong"})
			case "join-session":
				_ = c.writeJSON(envelope{Type: "connected", Data: map[string]any{
					"session_id": sessionID,
				}})
			case "leave-session":
				return
			}
		}
	}
}

// openStream abre el reconocimiento en vivo para el room. Los parciales
// se difunden a todos los clientes conectados a la sesión.
func (h *Handler) openStream(r *http.Request, sessionID, language string) (speech.Stream, error) {
	if h.rec == nil {
		return nil, errors.New("no recognizer configured")
	}

	mimeType := strings.TrimSpace(r.URL.Query().Get("mime"))
	if mimeType == "" {
		mimeType = "audio/webm"
	}

	return h.rec.OpenStream(r.Context(), speech.Params{
		Language: language,
		MimeType: mimeType,
	}, func(p speech.Partial) {
		h.hub.Publish(sessionID, "transcript:partial", map[string]any{
			"text":  p.Text,
			"final": p.Final,
		})
	})
}
