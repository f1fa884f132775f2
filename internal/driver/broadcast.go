package driver

import (
	"sync"
	"sync/atomic"

	"github.com/taoyao-code/carlink-driver/internal/protocol"
)

// Hub 解码消息的广播扇出
// 每个订阅者独立缓冲：慢订阅者只丢自己的消息（计入丢弃计数），
// 不得拖慢发布方与其它订阅者
type Hub struct {
	mu      sync.RWMutex
	subs    map[uint64]chan protocol.Message
	nextID  uint64
	bufSize int
	dropped atomic.Uint64
}

// NewHub 创建广播器，bufSize 为每订阅者的缓冲深度
func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 64
	}
	return &Hub{subs: make(map[uint64]chan protocol.Message), bufSize: bufSize}
}

// Subscribe 注册订阅者，返回接收通道与注销函数
// 注销后通道关闭，注销函数可重复调用
func (h *Hub) Subscribe() (<-chan protocol.Message, func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	ch := make(chan protocol.Message, h.bufSize)
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish 向所有订阅者投递，非阻塞；缓冲满则丢弃并计数
func (h *Hub) Publish(msg protocol.Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- msg:
		default:
			h.dropped.Add(1)
		}
	}
}

// Subscribers 当前订阅者数
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped 累计丢弃消息数
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
