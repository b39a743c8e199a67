package coordination

import (
	"sort"
	"sync"
	"time"
)

// DeviceActivity 设备活跃信息
type DeviceActivity struct {
	DeviceID        string    `json:"deviceId"`
	LastSeen        time.Time `json:"lastSeen"`
	SecondsSinceNow int64     `json:"secondsSinceLastSeen"`
	Online          bool      `json:"online"`
}

// ActivityTracker 记录每台设备最后一次通信时间
type ActivityTracker struct {
	lastSeen sync.Map // deviceID -> time.Time
	window   time.Duration
	now      func() time.Time
}

// NewActivityTracker 创建活跃度登记，window<=0时使用默认2分钟
func NewActivityTracker(window time.Duration) *ActivityTracker {
	if window <= 0 {
		window = 2 * time.Minute
	}
	return &ActivityTracker{window: window, now: time.Now}
}

// WithClock 替换时钟，用于测试
func (a *ActivityTracker) WithClock(now func() time.Time) *ActivityTracker {
	a.now = now
	return a
}

// Window 在线判定窗口
func (a *ActivityTracker) Window() time.Duration {
	return a.window
}

// Touch 记录设备当前活跃
func (a *ActivityTracker) Touch(deviceID string) {
	a.lastSeen.Store(deviceID, a.now())
}

// LastSeen 返回设备最后活跃时间
func (a *ActivityTracker) LastSeen(deviceID string) (time.Time, bool) {
	v, ok := a.lastSeen.Load(deviceID)
	if !ok {
		return time.Time{}, false
	}
	return v.(time.Time), true
}

// IsOnline 最后活跃时间距今小于窗口即视为在线
func (a *ActivityTracker) IsOnline(deviceID string) bool {
	seen, ok := a.LastSeen(deviceID)
	if !ok {
		return false
	}
	return a.now().Sub(seen) < a.window
}

// All 返回全部设备的活跃信息，按设备ID排序
func (a *ActivityTracker) All() []DeviceActivity {
	now := a.now()
	var list []DeviceActivity
	a.lastSeen.Range(func(key, value interface{}) bool {
		seen := value.(time.Time)
		age := now.Sub(seen)
		list = append(list, DeviceActivity{
			DeviceID:        key.(string),
			LastSeen:        seen,
			SecondsSinceNow: int64(age / time.Second),
			Online:          age < a.window,
		})
		return true
	})
	sort.Slice(list, func(i, j int) bool { return list[i].DeviceID < list[j].DeviceID })
	return list
}
