package push

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"inkverse/internal/pkg/logger"
)

// Sessions 是用户到网关节点映射的存储，由 SessionStore 实现
type Sessions interface {
	SetUserGateway(ctx context.Context, userID, nodeID string) error
	GetUserGateway(ctx context.Context, userID string) (string, error)
	ClearUserGateway(ctx context.Context, userID, nodeID string) error
}

// Gateway 负责 WebSocket 握手，并把连接登记到 Hub 和会话存储
type Gateway struct {
	hub      *Hub
	sessions Sessions
	upgrader websocket.Upgrader
}

func NewGateway(hub *Hub, sessions Sessions) *Gateway {
	return &Gateway{
		hub:      hub,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool { // 简化处理，允许所有跨域
				return true
			},
		},
	}
}

func (g *Gateway) ServeWs(w http.ResponseWriter, r *http.Request) {
	// 1. 从URL参数获取UserID
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}
	log := logger.Ctx(r.Context())

	// 2. HTTP升级为WebSocket
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	// 3. 在Redis中设置会话信息，失败则拒绝连接
	ctx := context.WithoutCancel(r.Context())
	nodeID := g.hub.nodeID
	if err := g.sessions.SetUserGateway(ctx, userID, nodeID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to set push session.")
		conn.Close()
		return
	}

	// 4. 创建客户端实例并注册到Hub
	client := &Client{
		hub:    g.hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: userID,
		onPong: func() {
			if err := g.sessions.SetUserGateway(ctx, userID, nodeID); err != nil {
				log.Warn().Err(err).Str("user_id", userID).Msg("Failed to refresh push session.")
			}
		},
		onClose: func() {
			if err := g.sessions.ClearUserGateway(ctx, userID, nodeID); err != nil {
				log.Warn().Err(err).Str("user_id", userID).Msg("Failed to clear push session.")
			}
		},
	}
	if !g.hub.Register(client) {
		conn.Close()
		return
	}

	// 5. 启动读写goroutine
	go client.writePump()
	go client.readPump()
}
