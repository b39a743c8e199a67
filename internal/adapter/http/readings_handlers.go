package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/massensors/py-server3/internal/infrastructure/logger"
)

const (
	streamWriteTimeout = 10 * time.Second
	streamPingInterval = 30 * time.Second
	streamBuffer       = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleReadings 最新动态读数
func (h *HandlerContext) HandleReadings(c *gin.Context) {
	r, ok := h.Coordinator.Readings.Get()
	if !ok {
		respondOK(c, "", ReadingsResponse{HasData: false})
		return
	}
	respondOK(c, "", ReadingsResponse{HasData: true, Reading: &r})
}

// HandleActivateReadings 请求设备进入动态读数模式
func (h *HandlerContext) HandleActivateReadings(c *gin.Context) {
	mode := h.Coordinator.ActivateReadings()
	logger.WithField("requestMode", mode).Info("已请求动态读数模式")
	respondOK(c, "读数模式已激活", RequestModeResponse{
		RequestMode:  string(mode),
		RequestValue: h.Coordinator.Mode.RequestValue(),
	})
}

// HandleDeactivateReadings 退出动态读数模式
func (h *HandlerContext) HandleDeactivateReadings(c *gin.Context) {
	mode := h.Coordinator.DeactivateReadings()
	logger.WithField("requestMode", mode).Info("已退出动态读数模式")
	respondOK(c, "读数模式已关闭", RequestModeResponse{
		RequestMode:  string(mode),
		RequestValue: h.Coordinator.Mode.RequestValue(),
	})
}

// HandleReadingsStream 通过websocket推送动态读数
// 连接建立时先推送当前最新读数
func (h *HandlerContext) HandleReadingsStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WithError(err).Warn("websocket升级失败")
		return
	}
	defer conn.Close()

	updates, cancel := h.Coordinator.Readings.Subscribe(streamBuffer)
	defer cancel()

	// 读循环只用于感知客户端关闭
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if r, ok := h.Coordinator.Readings.Get(); ok {
		if err := writeJSON(conn, r); err != nil {
			return
		}
	}

	ticker := time.NewTicker(streamPingInterval)
	defer ticker.Stop()
	for {
		select {
		case r := <-updates:
			if err := writeJSON(conn, r); err != nil {
				logger.WithError(err).Debug("websocket推送失败")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteTimeout)); err != nil {
				return
			}
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}

func writeJSON(conn *websocket.Conn, v interface{}) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}
