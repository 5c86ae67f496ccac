package api

import (
	"net/http"
	"time"

	models "MarketPulse/internal/domain/models"
	"MarketPulse/internal/stream"
	xlogger "MarketPulse/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamHandler bridges websocket connections onto broadcaster
// subscriptions. The connection's lifetime owns the subscription: client
// disconnect or a failed write closes it.
type StreamHandler struct {
	logger *xlogger.Logger
	bcast  *stream.Broadcaster
}

func NewStreamHandler(logger *xlogger.Logger, bcast *stream.Broadcaster) *StreamHandler {
	return &StreamHandler{logger: logger, bcast: bcast}
}

func (h *StreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/market/:asset", h.Market)
}

// Market streams the latest observation for an asset on a fixed cadence.
func (h *StreamHandler) Market(c echo.Context) error {
	asset := c.Param("asset")
	if asset == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "asset is required")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", xlogger.Error(err))
		return nil // upgrader already wrote the handshake error
	}
	defer conn.Close()

	sink := stream.SinkFunc(func(o models.Observation) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(o)
	})

	sub := h.bcast.Subscribe(c.Request().Context(), asset, sink)

	// read pump: we expect no client frames, but reading is how we learn
	// about disconnects
	go func() {
		defer sub.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	<-sub.Done()
	return nil
}
