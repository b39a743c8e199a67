package coordination

import (
	"sync"
	"time"
)

// Reading 最近一次动态读数
type Reading struct {
	DeviceID    string    `json:"deviceId"`
	MVReading   string    `json:"mvReading"`
	ConvDigits  string    `json:"convDigits"`
	ScaleWeight string    `json:"scaleWeight"`
	BeltWeight  string    `json:"beltWeight"`
	CurrentTime string    `json:"currentTime"`
	ReceivedAt  time.Time `json:"receivedAt"`
}

// DynamicReadings 单槽最新读数缓存，不持久化
// 订阅者通过带缓冲通道接收更新，消费过慢的订阅者会丢弃旧读数
type DynamicReadings struct {
	mu          sync.RWMutex
	latest      *Reading
	subscribers map[chan Reading]struct{}
}

// NewDynamicReadings 创建空缓存
func NewDynamicReadings() *DynamicReadings {
	return &DynamicReadings{subscribers: make(map[chan Reading]struct{})}
}

// Update 覆盖最新读数并推送给订阅者
func (d *DynamicReadings) Update(r Reading) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.latest = &r
	for ch := range d.subscribers {
		select {
		case ch <- r:
		default:
		}
	}
}

// Get 返回最新读数
func (d *DynamicReadings) Get() (Reading, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.latest == nil {
		return Reading{}, false
	}
	return *d.latest, true
}

// Clear 清空读数
func (d *DynamicReadings) Clear() {
	d.mu.Lock()
	d.latest = nil
	d.mu.Unlock()
}

// Subscribe 订阅读数更新，返回通道与取消函数
func (d *DynamicReadings) Subscribe(buffer int) (<-chan Reading, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Reading, buffer)

	d.mu.Lock()
	d.subscribers[ch] = struct{}{}
	d.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.subscribers, ch)
			d.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// SubscriberCount 当前订阅者数量
func (d *DynamicReadings) SubscriberCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers)
}
