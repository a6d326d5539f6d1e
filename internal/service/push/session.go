package push

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"inkverse/internal/pkg/redis"
)

const sessionKeyPrefix = "push:session:"

// SessionTTL 是会话的过期时间，连接存活期间每次心跳都会续期
const SessionTTL = 2 * pongWait

// clearSessionScript 只删除仍然指向本节点的会话，避免用户重连到其它节点后被误删
const clearSessionScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// SessionStore 在 Redis 中记录用户当前连接的网关节点
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) (*SessionStore, error) {
	if err := client.LoadScriptFromContent("push_clear_session", clearSessionScript); err != nil {
		return nil, err
	}
	return &SessionStore{client: client, ttl: ttl}, nil
}

func sessionKey(userID string) string {
	return sessionKeyPrefix + userID
}

// SetUserGateway 记录会话，重复调用即续期
func (s *SessionStore) SetUserGateway(ctx context.Context, userID, nodeID string) error {
	return s.client.GetClient().Set(ctx, sessionKey(userID), nodeID, s.ttl).Err()
}

// GetUserGateway 返回用户所在节点，离线时返回空字符串
func (s *SessionStore) GetUserGateway(ctx context.Context, userID string) (string, error) {
	nodeID, err := s.client.GetClient().Get(ctx, sessionKey(userID)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	return nodeID, err
}

func (s *SessionStore) ClearUserGateway(ctx context.Context, userID, nodeID string) error {
	_, err := s.client.RunScript(ctx, "push_clear_session", []string{sessionKey(userID)}, nodeID)
	return err
}
