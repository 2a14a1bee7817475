package stream

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/aetherdebug/aetherdebug/internal/debugger"
	"github.com/aetherdebug/aetherdebug/internal/domain"
	"github.com/aetherdebug/aetherdebug/internal/identity"
	"github.com/aetherdebug/aetherdebug/internal/workspace"
)

const (
	writeTimeout = 10 * time.Second
	readLimit    = 1 << 20
)

// Message types sent by the server.
const (
	TypeOutput      = "output"
	TypeExplanation = "explanation"
	TypeFix         = "fix"
	TypeNotice      = "notice"
	TypeDone        = "done"
	TypeError       = "error"
	TypePong        = "pong"
)

// Sessions is the editor session store a stream drives.
type Sessions interface {
	RunEdited(ctx context.Context, userID, sessionID string, edit workspace.Edit, observe debugger.Observer) (domain.Session, debugger.Report, error)
}

// Limiter throttles runs per user.
type Limiter interface {
	Allow(key string) bool
}

const errRateLimited = "rate_limit_exceeded"

// clientMessage is what the browser sends.
type clientMessage struct {
	Type     string `json:"type"`
	Code     string `json:"code,omitempty"`
	Language string `json:"language,omitempty"`
}

// ServerMessage is one event pushed to the browser.
type ServerMessage struct {
	Type    string           `json:"type"`
	Content string           `json:"content,omitempty"`
	Notice  *domain.Notice   `json:"notice,omitempty"`
	RunID   string           `json:"run_id,omitempty"`
	Status  domain.RunStatus `json:"status,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// Handler upgrades /ws/debug requests and serves run requests over them.
type Handler struct {
	sessions       Sessions
	registry       *Registry
	limiter        Limiter
	allowedOrigins []string
	isDev          bool
}

// NewHandler creates a debug stream handler. A nil limiter disables throttling.
func NewHandler(sessions Sessions, registry *Registry, limiter Limiter, allowedOrigins []string, isDev bool) *Handler {
	return &Handler{
		sessions:       sessions,
		registry:       registry,
		limiter:        limiter,
		allowedOrigins: allowedOrigins,
		isDev:          isDev,
	}
}

// ServeHTTP implements http.Handler for the websocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	slog.Info("Debug stream request", "user_id", userID, "session_id", sessionID, "ip", identity.IPFromRequest(r))

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	ws.SetReadLimit(readLimit)
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()

	h.registry.Register(userID, sessionID, ws)
	defer h.registry.Unregister(userID, sessionID, ws)

	// Runs execute off the read loop so pings are answered while the model
	// works. They are cancelled before the handler waits for them.
	var wg sync.WaitGroup
	defer wg.Wait()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s := &conn{ws: ws, userID: userID, sessionID: sessionID}
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 || errors.Is(err, context.Canceled) {
				slog.Debug("WebSocket closed by client", "user_id", userID)
			} else {
				slog.Warn("WebSocket read error", "error", err, "user_id", userID)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.send(ctx, ServerMessage{Type: TypeError, Error: "invalid message"})
			continue
		}

		switch msg.Type {
		case "run":
			// Keyed by user so opening more tabs does not buy more runs.
			if h.limiter != nil && !h.limiter.Allow(userID) {
				slog.Warn("Stream run rate limited", "user_id", userID, "session_id", sessionID)
				s.send(ctx, ServerMessage{Type: TypeError, Error: errRateLimited})
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				h.run(ctx, s, msg)
			}()
		case "ping":
			s.send(ctx, ServerMessage{Type: TypePong})
		default:
			s.send(ctx, ServerMessage{Type: TypeError, Error: "unknown message type: " + msg.Type})
		}
	}
}

// run applies the editor contents carried by msg and streams the pipeline.
func (h *Handler) run(ctx context.Context, s *conn, msg clientMessage) {
	var sent debugger.Report
	edit := workspace.Edit{Code: msg.Code, Language: msg.Language}
	_, _, err := h.sessions.RunEdited(ctx, s.userID, s.sessionID, edit, func(stage debugger.Stage, snap debugger.Report) {
		switch stage {
		case debugger.StageOutput:
			s.send(ctx, ServerMessage{Type: TypeOutput, Content: snap.Output})
			sent.Output = snap.Output
		case debugger.StageExplanation:
			s.send(ctx, ServerMessage{Type: TypeExplanation, Content: snap.Explanation})
			sent.Explanation = snap.Explanation
		case debugger.StageFix:
			s.send(ctx, ServerMessage{Type: TypeFix, Content: snap.SuggestedFix})
			sent.SuggestedFix = snap.SuggestedFix
		case debugger.StageDone:
			// A failed AI call fills the panels without its own stage.
			if snap.Explanation != sent.Explanation {
				s.send(ctx, ServerMessage{Type: TypeExplanation, Content: snap.Explanation})
			}
			if snap.SuggestedFix != sent.SuggestedFix {
				s.send(ctx, ServerMessage{Type: TypeFix, Content: snap.SuggestedFix})
			}
			if snap.Notice != nil {
				s.send(ctx, ServerMessage{Type: TypeNotice, Notice: snap.Notice})
			}
			s.send(ctx, ServerMessage{Type: TypeDone, RunID: snap.RunID, Status: snap.Status})
		}
	})
	if err != nil {
		slog.Warn("Streamed run failed", "user_id", s.userID, "session_id", s.sessionID, "error", err)
		s.send(ctx, ServerMessage{Type: TypeError, Error: errorCode(err)})
	}
}

func errorCode(err error) string {
	if errors.Is(err, workspace.ErrRunInProgress) {
		return "run_in_progress"
	}
	return err.Error()
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(h.allowedOrigins, "*") || slices.Contains(h.allowedOrigins, origin) {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigins)
	return false
}

// conn serializes writes for one stream.
type conn struct {
	mu        sync.Mutex
	ws        *websocket.Conn
	userID    string
	sessionID string
}

func (c *conn) send(ctx context.Context, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to encode stream message", "type", msg.Type, "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := c.ws.Write(writeCtx, websocket.MessageText, data); err != nil {
		slog.Debug("WebSocket write error", "type", msg.Type, "error", err, "user_id", c.userID)
	}
}
