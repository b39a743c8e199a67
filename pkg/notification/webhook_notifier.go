// Package notification 将网关内部事件推送到外部webhook
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/massensors/py-server3/internal/infrastructure/config"
	"github.com/massensors/py-server3/internal/infrastructure/logger"
	"github.com/massensors/py-server3/pkg/coordination"
	"github.com/sirupsen/logrus"
)

// 事件类型
const (
	EventMachineStateChanged = "machine_state_changed"
	EventServiceModeChanged  = "service_mode_changed"
)

// WebhookEvent 通知事件结构
type WebhookEvent struct {
	EventID   string                 `json:"event_id"`
	EventType string                 `json:"event_type"`
	DeviceID  string                 `json:"device_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Stats 发送统计
type Stats struct {
	Sent   uint64 `json:"sent"`
	Failed uint64 `json:"failed"`
}

// WebhookNotifier 异步webhook通知器，每个端点独立发送
type WebhookNotifier struct {
	endpoints []string
	client    *http.Client
	wg        sync.WaitGroup
	sent      atomic.Uint64
	failed    atomic.Uint64
}

// NewWebhookNotifier 创建通知器
func NewWebhookNotifier(endpoints []string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{
		endpoints: endpoints,
		client:    &http.Client{Timeout: timeout},
	}
}

// NewFromConfig 按配置创建通知器，未启用或没有端点时返回nil
func NewFromConfig(cfg config.NotificationConfig) *WebhookNotifier {
	if !cfg.Enabled || len(cfg.Endpoints) == 0 {
		return nil
	}
	n := NewWebhookNotifier(cfg.Endpoints, time.Duration(cfg.TimeoutSeconds)*time.Second)
	logger.WithFields(logrus.Fields{
		"component":       "webhook",
		"endpoints_count": len(cfg.Endpoints),
	}).Info("Webhook通知器已初始化")
	return n
}

// Attach 订阅协调状态的变化事件
func (n *WebhookNotifier) Attach(coord *coordination.Coordinator) {
	if n == nil {
		return
	}
	coord.Machine.OnChange(func(prev, cur coordination.MachineState) {
		n.NotifyMachineStateChanged(prev, cur, coord.Machine.Variables())
	})
	coord.Mode.OnChange(func(prev, cur coordination.ServiceModeSnapshot) {
		device, _ := coord.Devices.ServiceModeDevice()
		n.NotifyServiceModeChanged(device, prev, cur)
	})
}

// NotifyMachineStateChanged 观察到的机器状态变化通知
func (n *WebhookNotifier) NotifyMachineStateChanged(prev, cur coordination.MachineState, vars coordination.StateVariables) {
	n.sendEvent(WebhookEvent{
		EventType: EventMachineStateChanged,
		Data: map[string]interface{}{
			"old_state": prev,
			"new_state": cur,
			"variables": vars,
		},
	})
}

// NotifyServiceModeChanged 服务模式变更通知
func (n *WebhookNotifier) NotifyServiceModeChanged(deviceID string, prev, cur coordination.ServiceModeSnapshot) {
	n.sendEvent(WebhookEvent{
		EventType: EventServiceModeChanged,
		DeviceID:  deviceID,
		Data: map[string]interface{}{
			"old_enabled":      prev.Enabled,
			"new_enabled":      cur.Enabled,
			"old_request_mode": prev.RequestMode,
			"new_request_mode": cur.RequestMode,
			"request_value":    cur.RequestValue,
		},
	})
}

// sendEvent 发送事件到所有webhook端点，不阻塞调用方
func (n *WebhookNotifier) sendEvent(event WebhookEvent) {
	if n == nil {
		return
	}
	event.EventID = uuid.NewString()
	event.Timestamp = time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		logger.WithField("component", "webhook").WithError(err).Error("序列化webhook事件失败")
		return
	}

	for _, endpoint := range n.endpoints {
		n.wg.Add(1)
		go func(url string) {
			defer n.wg.Done()
			n.post(url, event, payload)
		}(endpoint)
	}
}

func (n *WebhookNotifier) post(url string, event WebhookEvent, payload []byte) {
	entry := logger.WithFields(logrus.Fields{
		"component":  "webhook",
		"url":        url,
		"event_type": event.EventType,
		"event_id":   event.EventID,
	})

	resp, err := n.client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		n.failed.Add(1)
		entry.WithError(err).Error("发送webhook失败")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		n.failed.Add(1)
		entry.WithField("status_code", resp.StatusCode).Error("webhook返回错误状态")
		return
	}
	n.sent.Add(1)
	entry.Debug("webhook已发送")
}

// Stats 返回发送统计
func (n *WebhookNotifier) Stats() Stats {
	if n == nil {
		return Stats{}
	}
	return Stats{Sent: n.sent.Load(), Failed: n.failed.Load()}
}

// Wait 等待已发出的请求完成，ctx结束时提前返回
func (n *WebhookNotifier) Wait(ctx context.Context) error {
	if n == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
