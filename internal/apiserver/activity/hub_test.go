package activity

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"recipe-admin/internal/shared/model"
)

// shortKeepAlive 缩短保活参数，恢复动作注册在拨号之前，
// 保证在测试服务器关闭之后才改回全局值
func shortKeepAlive(t *testing.T, wait, period time.Duration) {
	t.Helper()
	origWait, origPeriod := pongWait, pingPeriod
	t.Cleanup(func() { pongWait, pingPeriod = origWait, origPeriod })
	pongWait, pingPeriod = wait, period
}

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	mux := http.NewServeMux()
	hub.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/activity-feed"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount = %d, want %d", hub.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub)
	waitForClients(t, hub, 1)

	activity := &model.Activity{
		ID:          "act-001",
		UserID:      "usr-001",
		UserName:    "Alice Smith",
		Action:      model.ActionCreated,
		RecipeID:    "rcp-001",
		RecipeTitle: "Tomato Soup",
		CreatedAt:   time.Now().UTC(),
	}
	hub.Publish(activity)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type string `json:"type"`
		Data struct {
			ID          string `json:"id"`
			UserName    string `json:"userName"`
			Action      string `json:"action"`
			RecipeTitle string `json:"recipeTitle"`
		} `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}

	if msg.Type != "new-activity" {
		t.Errorf("type = %q, want new-activity", msg.Type)
	}
	if msg.Data.UserName != "Alice Smith" || msg.Data.RecipeTitle != "Tomato Soup" || msg.Data.Action != "created" {
		t.Errorf("data = %+v, want denormalized camelCase fields", msg.Data)
	}
}

func TestHubPingPong(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub)
	waitForClients(t, hub, 1)

	if err := conn.WriteJSON(map[string]string{"type": "ping"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg map[string]string
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if msg["type"] != "pong" {
		t.Errorf("type = %q, want pong", msg["type"])
	}
}

// 广播、控制回复与协议 ping 共用每连接的单一写协程，
// 并发变更各自触发 Publish 时不得出现并发写同一连接
func TestHubConcurrentPublish(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub)
	waitForClients(t, hub, 1)

	if err := conn.WriteJSON(map[string]string{"type": "ping"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	const writers, perWriter = 4, 3
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				hub.Publish(&model.Activity{
					ID:          fmt.Sprintf("act-%d-%d", n, j),
					UserName:    "Alice Smith",
					Action:      model.ActionCreated,
					RecipeTitle: "Tomato Soup",
					CreatedAt:   time.Now().UTC(),
				})
			}
		}(i)
	}
	wg.Wait()

	got := map[string]int{}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for received := 0; received < writers*perWriter+1; received++ {
		var msg struct {
			Type string `json:"type"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON after %d messages: %v", received, err)
		}
		got[msg.Type]++
	}
	if got["new-activity"] != writers*perWriter {
		t.Errorf("new-activity = %d, want %d", got["new-activity"], writers*perWriter)
	}
	if got["pong"] != 1 {
		t.Errorf("pong = %d, want 1", got["pong"])
	}
}

// 服务端周期性发协议 ping，空闲客户端靠默认 pong 回复续期，不被读超时踢掉
func TestHubIdleClientKeptAlive(t *testing.T) {
	shortKeepAlive(t, 250*time.Millisecond, 50*time.Millisecond)

	hub := NewHub()
	conn := dialHub(t, hub)
	waitForClients(t, hub, 1)

	pings := make(chan struct{}, 16)
	defaultHandler := conn.PingHandler()
	conn.SetPingHandler(func(data string) error {
		select {
		case pings <- struct{}{}:
		default:
		}
		return defaultHandler(data)
	})
	// 控制帧在 ReadMessage 期间处理，需要持续读
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case <-pings:
	case <-time.After(2 * time.Second):
		t.Fatal("no protocol ping from server")
	}

	time.Sleep(2 * pongWait)
	if n := hub.ClientCount(); n != 1 {
		t.Fatalf("ClientCount = %d, want 1: idle client was disconnected", n)
	}
}

// 浏览器客户端只能发 JSON 心跳，入站消息必须续期读超时
func TestHubJSONPingKeepsAlive(t *testing.T) {
	shortKeepAlive(t, 200*time.Millisecond, time.Hour)

	hub := NewHub()
	conn := dialHub(t, hub)
	waitForClients(t, hub, 1)

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// 持续超过一个 pongWait 的 JSON 心跳
	for i := 0; i < 6; i++ {
		time.Sleep(80 * time.Millisecond)
		if err := conn.WriteJSON(map[string]string{"type": "ping"}); err != nil {
			t.Fatalf("WriteJSON #%d: %v", i, err)
		}
	}
	if n := hub.ClientCount(); n != 1 {
		t.Fatalf("ClientCount = %d, want 1: heartbeating client was disconnected", n)
	}
}

func TestHubClientDisconnect(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)

	// 无客户端时广播不 panic
	hub.Publish(&model.Activity{ID: "act-001", Action: model.ActionDeleted})
}
