package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/domain/state"
	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/infrastructure/logging"
	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/infrastructure/monitoring"
	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/shared/id"
	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/shared/types"
)

const writeTimeout = 5 * time.Second

// sendBuffer bounds queued events per connection; slow consumers drop
// events rather than stalling the state bus.
const sendBuffer = 64

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Local UI shells only
	},
}

// Handler streams state-bus events to websocket clients. Each connection
// registers one observer; teardown removes it.
type Handler struct {
	log     *logging.Logger
	metrics *monitoring.Metrics
	state   *state.Manager
}

// NewHandler creates a websocket handler over the state bus.
func NewHandler(st *state.Manager, logger *logging.Logger, metrics *monitoring.Metrics) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{log: logger, metrics: metrics, state: st}
}

// HandleConnection upgrades the request and streams events until the
// client disconnects.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
		defer h.metrics.WSConnections.Dec()
	}

	observerName := "ws_" + id.NewEventID().String()
	events := make(chan types.Event, sendBuffer)
	var dropped sync.Once
	done := make(chan struct{})

	h.state.AddObserver(observerName, func(e types.Event) {
		select {
		case events <- e:
		default:
			dropped.Do(func() {
				h.log.Warn("websocket consumer too slow, dropping events",
					zap.String("observer", observerName),
				)
			})
		}
	})
	defer h.state.RemoveObserver(observerName)

	h.sendJSON(conn, map[string]interface{}{
		"type":    "system",
		"message": "connected to coordinator event stream",
	})

	// Reader goroutine: drains client frames and detects disconnect.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event := <-events:
			if err := h.sendJSON(conn, event); err != nil {
				h.log.Debug("websocket send failed", zap.Error(err))
				return
			}
		case <-done:
			return
		}
	}
}

func (h *Handler) sendJSON(conn *websocket.Conn, payload interface{}) error {
	raw, err := sonic.Marshal(payload)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, raw)
}
