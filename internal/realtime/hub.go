package realtime

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub 维护已连接的仪表盘客户端并向它们广播消息
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run 事件循环，必须在独立goroutine中运行
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			log.Printf("[Realtime] 客户端已连接: %s", client.conn.RemoteAddr())

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// 发送缓冲满视为客户端失效，移除
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Register 注册新客户端
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// BroadcastReading 广播新读数
func (h *Hub) BroadcastReading(reading interface{}) {
	h.send("reading", reading)
}

// BroadcastAlert 广播新告警
func (h *Hub) BroadcastAlert(alert interface{}) {
	h.send("alert", alert)
}

// BroadcastIncident 广播事件变化
func (h *Hub) BroadcastIncident(incident interface{}) {
	h.send("incident", incident)
}

func (h *Hub) send(messageType string, payload interface{}) {
	message, err := json.Marshal(map[string]interface{}{
		"type":    messageType,
		"payload": payload,
	})
	if err != nil {
		log.Printf("[Realtime] 序列化广播消息失败: %v", err)
		return
	}

	select {
	case h.broadcast <- message:
	default:
		// 广播队列满时丢弃，实时推送只是辅助，不影响主流程
	}
}
