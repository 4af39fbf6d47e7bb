package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/canslim/internal/contracts"
	"github.com/wonny/canslim/internal/screening"
	"github.com/wonny/canslim/pkg/logger"
)

const writeWait = 10 * time.Second


// Stream message types
const (
	MessageOutcome = "outcome"
	MessageSummary = "summary"
	MessageError   = "error"
)

// StreamMessage is one websocket frame
type StreamMessage struct {
	Type     string                     `json:"type"`
	Outcome  *contracts.Outcome         `json:"outcome,omitempty"`
	Summary  *ScreenResponse            `json:"summary,omitempty"`
	Error    string                     `json:"error,omitempty"`
	Rejected []contracts.RejectedTicker `json:"rejected,omitempty"`
}

// StreamHandler streams batch progress over a websocket
type StreamHandler struct {
	screen   *ScreenHandler
	logger   *logger.Logger
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a new stream handler
// allowedOrigins lists cross-origin browser pages that may connect ("*" allows any)
func NewStreamHandler(screen *ScreenHandler, log *logger.Logger, allowedOrigins []string) *StreamHandler {
	return &StreamHandler{
		screen: screen,
		logger: log,
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(allowedOrigins),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// originChecker admits non-browser clients (no Origin), same-host pages and the configured origins
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	all := false
	for _, o := range allowed {
		o = strings.ToLower(strings.TrimRight(strings.TrimSpace(o), "/"))
		if o == "*" {
			all = true
		}
		if o != "" {
			set[o] = true
		}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || all {
			return true
		}
		if set[strings.ToLower(origin)] {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}

// Stream sends one message per outcome, then a summary, then closes
// GET /ws/screen?tickers=AAPL,MSFT or ?universe=dow
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 클라이언트 종료 감지 → 배치 취소
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	send := func(msg StreamMessage) error {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(msg)
	}

	var tickers []string
	if raw := r.URL.Query().Get("tickers"); raw != "" {
		tickers = strings.Split(raw, ",")
	}
	tickers, _, err = h.screen.tickers(ctx, tickers, r.URL.Query().Get("universe"))
	if err != nil {
		send(StreamMessage{Type: MessageError, Error: err.Error()})
		return
	}

	batch, err := h.screen.screener.ScreenBatchFunc(ctx, tickers, func(out contracts.Outcome) {
		if err := send(StreamMessage{Type: MessageOutcome, Outcome: &out}); err != nil {
			cancel()
		}
	})

	var verr *screening.ValidationError
	switch {
	case errors.As(err, &verr):
		send(StreamMessage{Type: MessageError, Error: verr.Error(), Rejected: verr.Rejected})
		return
	case batch == nil:
		send(StreamMessage{Type: MessageError, Error: "screening failed"})
		return
	}

	summary := newScreenResponse(batch, err != nil)
	if err := send(StreamMessage{Type: MessageSummary, Summary: &summary}); err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
}
