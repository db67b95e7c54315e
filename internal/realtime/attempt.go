// Package realtime runs quiz attempts over WebSocket. One connection is one attempt: the server
// drives the clock, the client sends answers, and closing the connection abandons the attempt.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/quizforge/backend/internal/apperr"
	"github.com/quizforge/backend/internal/models"
	"github.com/quizforge/backend/internal/session"
	"github.com/quizforge/backend/pkg/response"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30 * time.Second
	PongWait     = 60 * time.Second

	writeWait    = 10 * time.Second
	readLimit    = 4096
	tickInterval = time.Second
)

// Client events.
const (
	EventAnswer = "answer"
	EventRetry  = "retry"
)

// Server events.
const (
	EventState     = "state"
	EventCompleted = "completed"
	EventFailed    = "failed"
	EventError     = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type answerPayload struct {
	Option string `json:"option"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// TokenResolver authenticates a bare access token.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*models.User, error)
}

// Server upgrades attempt connections.
type Server struct {
	tokens    TokenResolver
	quizzes   session.QuizLoader
	submitter session.Submitter
	logger    *zap.Logger
	tick      time.Duration
}

// NewServer creates an attempt server.
func NewServer(tokens TokenResolver, quizzes session.QuizLoader, submitter session.Submitter, logger *zap.Logger) *Server {
	return &Server{tokens: tokens, quizzes: quizzes, submitter: submitter, logger: logger, tick: tickInterval}
}

// ServeAttempt handles GET /ws/attempts?quiz_id=&token=. The token may also be sent as a
// Bearer Authorization header.
func (s *Server) ServeAttempt(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	user, err := s.tokens.ResolveToken(c.Request.Context(), token)
	if err != nil {
		response.Error(c, s.logger, err)
		return
	}
	quizID, err := uuid.Parse(c.Query("quiz_id"))
	if err != nil {
		response.BadRequest(c, "invalid quiz_id")
		return
	}
	quiz, attempt, err := session.Load(c.Request.Context(), s.quizzes, quizID)
	if err != nil {
		response.Error(c, s.logger, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	r := &runner{
		conn:      conn,
		quiz:      quiz,
		attempt:   attempt,
		userID:    user.ID,
		submitter: s.submitter,
		tick:      s.tick,
		logger:    s.logger.With(zap.String("quiz_id", quiz.ID.String()), zap.String("user_id", user.ID.String())),
	}
	r.run(c.Request.Context())
}

// runner owns one attempt. Only run writes to the connection; readPump only reads.
type runner struct {
	conn      *websocket.Conn
	quiz      *models.Quiz
	attempt   session.Attempt
	userID    uuid.UUID
	submitter session.Submitter
	tick      time.Duration
	logger    *zap.Logger
}

func (r *runner) run(ctx context.Context) {
	defer r.conn.Close()

	incoming := make(chan WSMessage)
	done := make(chan struct{})
	defer close(done)
	go r.readPump(incoming, done)

	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()
	pinger := time.NewTicker(PingInterval)
	defer pinger.Stop()

	if !r.send(EventState, session.NewStep(r.quiz, r.attempt)) {
		return
	}
	r.logger.Info("attempt started")

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-incoming:
			if !ok {
				if r.attempt.State != session.StateCompleted {
					r.logger.Info("attempt abandoned", zap.String("state", string(r.attempt.State)))
				}
				return
			}
			if !r.handle(ctx, msg) {
				return
			}
		case <-ticker.C:
			if r.attempt.State != session.StateInProgress {
				continue
			}
			next, err := r.attempt.Tick(r.quiz, 1)
			if err != nil {
				continue
			}
			r.attempt = next
			if !r.advance(ctx) {
				return
			}
		case <-pinger.C:
			_ = r.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := r.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handle applies one client message. It returns false when the connection should close.
func (r *runner) handle(ctx context.Context, msg WSMessage) bool {
	switch msg.Event {
	case EventAnswer:
		var p answerPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return r.sendError("invalid answer payload")
		}
		next, err := r.attempt.Answer(r.quiz, p.Option)
		if err != nil {
			return r.sendError(errMessage(err))
		}
		r.attempt = next
		return r.advance(ctx)
	case EventRetry:
		if r.attempt.State != session.StateFailed {
			return r.sendError("nothing to retry")
		}
		return r.complete(ctx)
	default:
		return r.sendError("unknown event " + msg.Event)
	}
}

// advance reports the new state, completing the attempt when it is ready.
func (r *runner) advance(ctx context.Context) bool {
	if r.attempt.State == session.StateCompleting {
		return r.complete(ctx)
	}
	return r.send(EventState, session.NewStep(r.quiz, r.attempt))
}

// complete submits the attempt. Success closes the connection; failure keeps it open for retry.
func (r *runner) complete(ctx context.Context) bool {
	next, err := r.attempt.Complete(ctx, r.quiz, r.userID, r.submitter)
	r.attempt = next
	if next.State == session.StateFailed {
		r.logger.Warn("attempt submission failed", zap.Error(err))
		return r.send(EventFailed, session.NewStep(r.quiz, next))
	}
	if err != nil {
		return r.sendError(errMessage(err))
	}
	r.logger.Info("attempt completed", zap.String("result_id", next.ResultID.String()))
	r.send(EventCompleted, session.NewStep(r.quiz, next))
	_ = r.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = r.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "attempt completed"))
	return false
}

func (r *runner) send(event string, payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("encode websocket payload", zap.String("event", event), zap.Error(err))
		return false
	}
	_ = r.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := r.conn.WriteJSON(WSMessage{Event: event, Data: data}); err != nil {
		return false
	}
	return true
}

func (r *runner) sendError(message string) bool {
	return r.send(EventError, errorPayload{Message: message})
}

func (r *runner) readPump(out chan<- WSMessage, done <-chan struct{}) {
	defer close(out)
	r.conn.SetReadLimit(readLimit)
	_ = r.conn.SetReadDeadline(time.Now().Add(PongWait))
	r.conn.SetPongHandler(func(string) error {
		return r.conn.SetReadDeadline(time.Now().Add(PongWait))
	})
	for {
		var msg WSMessage
		if err := r.conn.ReadJSON(&msg); err != nil {
			return
		}
		_ = r.conn.SetReadDeadline(time.Now().Add(PongWait))
		select {
		case out <- msg:
		case <-done:
			return
		}
	}
}

func errMessage(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindNotFound:
		return apperr.Message(err)
	default:
		return session.MsgRetry
	}
}
