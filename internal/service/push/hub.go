// Package push 把成长事件通过 WebSocket 推送给在线用户。
package push

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"inkverse/internal/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 256
)

// Hub 维护本节点所有活跃的连接，每个用户只保留最新的一条连接
type Hub struct {
	nodeID     string
	clients    map[string]*Client // 使用UserID作为Key
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	lock       sync.RWMutex
}

func NewHub(nodeID string) *Hub {
	return &Hub{
		nodeID:     nodeID,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run 串行处理连接的注册与注销，ctx 结束时关闭所有连接
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.add(client)
			logger.Ctx(ctx).Info().Str("user_id", client.userID).Str("node", h.nodeID).Msg("Client registered.")
		case client := <-h.unregister:
			if h.remove(client) {
				logger.Ctx(ctx).Info().Str("user_id", client.userID).Msg("Client unregistered.")
			}
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// Register 把连接交给 Hub，Hub 已停止时返回 false
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) add(client *Client) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if old, ok := h.clients[client.userID]; ok && old != client {
		close(old.send)
	}
	h.clients[client.userID] = client
}

// remove 只在 map 中仍是同一条连接时删除，重连后的旧连接退出不影响新连接
func (h *Hub) remove(client *Client) bool {
	h.lock.Lock()
	defer h.lock.Unlock()
	if current, ok := h.clients[client.userID]; ok && current == client {
		delete(h.clients, client.userID)
		close(client.send)
		return true
	}
	return false
}

func (h *Hub) closeAll() {
	h.lock.Lock()
	defer h.lock.Unlock()
	for id, c := range h.clients {
		close(c.send)
		delete(h.clients, id)
	}
}

// Deliver 把消息放入用户的发送队列，用户不在本节点或队列已满时返回 false
func (h *Hub) Deliver(userID string, message []byte) bool {
	h.lock.RLock()
	defer h.lock.RUnlock()
	client, ok := h.clients[userID]
	if !ok {
		return false
	}
	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

func (h *Hub) Online(userID string) bool {
	h.lock.RLock()
	defer h.lock.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// Client 是一个WebSocket连接的代表
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
	// onPong 在收到心跳时调用，用于续期会话
	onPong  func()
	onClose func()
}

// writePump 负责将 send channel 中的消息写入 websocket，并定期发送 ping
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub 关闭了队列
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 只处理心跳和关闭，客户端不通过这条连接发送业务消息
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
		if c.onClose != nil {
			c.onClose()
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		if c.onPong != nil {
			c.onPong()
		}
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
