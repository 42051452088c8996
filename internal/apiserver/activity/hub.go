// Package activity 活动流：审计记录、实时广播、查询接口
//
// 广播为尽力而为（at-most-once）：慢客户端的发送缓冲满了就丢弃本条消息，
// 晚加入的客户端通过 GET /api/v1/activities 回看历史。
package activity

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"recipe-admin/internal/shared/model"
)

// Publisher 活动广播端口
// Hub 是真实实现；无 WebSocket 场景（纯 API 部署、测试）用 NoopPublisher
type Publisher interface {
	Publish(activity *model.Activity)
}

// NoopPublisher 空广播实现
type NoopPublisher struct{}

var _ Publisher = NoopPublisher{}

func (NoopPublisher) Publish(*model.Activity) {}

// upgrader WebSocket 升级器配置
//
// CheckOrigin 当前允许所有来源，生产环境应限制
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// 连接保活参数。pingPeriod 必须小于 pongWait，否则空闲连接在下一次
// 心跳前就会被读超时踢掉。变量形式便于测试缩短时间。
var (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// sendBuffer 每个客户端的发送缓冲条数，满则丢弃
const sendBuffer = 16

// 控制回复消息体（预序列化）
var (
	pongMessage   = []byte(`{"type":"pong"}`)
	joinedMessage = []byte(`{"type":"joined","topic":"activity-feed"}`)
)

// client 一条 WebSocket 连接
//
// gorilla/websocket 只允许一个并发写者，所有出站消息（广播、控制回复、
// 协议层 ping）都进 send 通道，由 writePump 单协程串行写出。
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// enqueue 尽力投递：缓冲满（慢客户端）时丢弃本条消息
func (c *client) enqueue(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// writePump 连接的唯一写协程，done 关闭或写失败时退出
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("WebSocket write error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// Hub WebSocket 活动广播中心
//
// 单一全局主题（activity-feed），所有连接收到相同的消息流。
// 客户端消息只处理心跳和 join，其余忽略。
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool

	// 可选指标，由 server 组装层注入
	connGauge    prometheus.Gauge
	broadcastCtr prometheus.Counter
}

// NewHub 创建广播中心
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]bool)}
}

var _ Publisher = (*Hub)(nil)

// SetMetrics 注入连接数/广播量指标
func (h *Hub) SetMetrics(connGauge prometheus.Gauge, broadcastCtr prometheus.Counter) {
	h.connGauge = connGauge
	h.broadcastCtr = broadcastCtr
}

// RegisterRoutes 注册 WebSocket 路由
func (h *Hub) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/activity-feed", h.HandleWebSocket)
}

// HandleWebSocket 处理 WebSocket 连接请求
//
// 路由: GET /ws/activity-feed
//
// 推送消息格式：
//
//	{"type": "new-activity", "data": {"id": ..., "userName": ..., "action": ..., "recipeTitle": ..., "createdAt": ...}}
//
// 客户端消息：
//
//	心跳：{"type": "ping"} -> 响应 {"type": "pong"}
//	订阅：{"type": "join", "topic": "activity-feed"}（当前只有一个主题，消息被确认后忽略）
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	h.addClient(c)
	defer h.removeClient(c)

	log.Printf("WebSocket client connected to activity feed")

	go c.writePump()
	h.readPump(c)
}

func (h *Hub) addClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
	if h.connGauge != nil {
		h.connGauge.Inc()
	}
}

func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.done)
		if h.connGauge != nil {
			h.connGauge.Dec()
		}
	}
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// readPump 读取客户端消息，连接关闭或读超时返回
//
// 浏览器端的 JS WebSocket API 发不了协议层 pong，因此除 PongHandler 外，
// 任何入站消息（含 JSON 心跳）都续期读超时。
func (h *Hub) readPump(c *client) {
	conn := c.conn
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		var req map[string]interface{}
		if json.Unmarshal(msg, &req) == nil {
			switch req["type"] {
			case "ping":
				c.enqueue(pongMessage)
			case "join":
				// 单主题，确认即可
				c.enqueue(joinedMessage)
			}
		}
	}
}

// feedItem 广播消息体，字段名与前端约定保持 camelCase
type feedItem struct {
	ID          string    `json:"id"`
	UserName    string    `json:"userName"`
	Action      string    `json:"action"`
	RecipeTitle string    `json:"recipeTitle"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Publish 广播一条活动到所有客户端
//
// 序列化一次，逐客户端入队。投递失败（缓冲满）只记日志，
// 不影响其他客户端，也不反馈给调用方。
func (h *Hub) Publish(activity *model.Activity) {
	msg, err := json.Marshal(map[string]interface{}{
		"type": "new-activity",
		"data": feedItem{
			ID:          activity.ID,
			UserName:    activity.UserName,
			Action:      string(activity.Action),
			RecipeTitle: activity.RecipeTitle,
			CreatedAt:   activity.CreatedAt,
		},
	})
	if err != nil {
		log.Printf("Broadcast marshal error: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !c.enqueue(msg) {
			log.Printf("Broadcast dropped for slow client")
		}
	}
	if h.broadcastCtr != nil {
		h.broadcastCtr.Inc()
	}
}
