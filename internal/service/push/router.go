package push

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"

	"inkverse/internal/pkg/logger"
	"inkverse/internal/pkg/metrics"
	"inkverse/internal/pkg/mq"
)

const (
	minFetchBackoff = 100 * time.Millisecond
	maxFetchBackoff = 5 * time.Second
)

// MessageReader 是 Router 使用的 kafka.Reader 子集
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Router 消费 progression-events，只投递给连接在本节点上的用户。
// 每个网关节点使用独立的消费组，所有节点都能看到全部事件。
type Router struct {
	reader   MessageReader
	hub      *Hub
	sessions Sessions

	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewRouter(reader MessageReader, hub *Hub, sessions Sessions) *Router {
	return &Router{
		reader:     reader,
		hub:        hub,
		sessions:   sessions,
		minBackoff: minFetchBackoff,
		maxBackoff: maxFetchBackoff,
	}
}

// Notification 是推送给客户端的消息体
type Notification struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// Run 循环拉取消息直到 ctx 结束或 reader 被关闭，单条消息处理失败只记录日志。
// 拉取失败时按指数退避重试，成功一次后退避时间复位。
func (r *Router) Run(ctx context.Context) error {
	backoff := r.minBackoff
	for {
		msg, err := r.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			if errors.Is(err, io.EOF) {
				logger.Ctx(ctx).Info().Msg("progression event reader closed")
				return nil
			}
			logger.Ctx(ctx).Error().Err(err).Dur("retry_in", backoff).Msg("could not fetch progression event")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, r.maxBackoff)
			continue
		}
		backoff = r.minBackoff
		r.Route(mq.ExtractTraceContext(ctx, msg.Headers), msg.Value)
		if err := r.reader.CommitMessages(ctx, msg); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("failed to commit progression event")
		}
	}
}

// Route 解析事件并推送，返回投递结果，供指标和测试使用
func (r *Router) Route(ctx context.Context, value []byte) string {
	outcome := r.route(ctx, value)
	metrics.PushDelivered.WithLabelValues(outcome).Inc()
	return outcome
}

func (r *Router) route(ctx context.Context, value []byte) string {
	var env mq.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal progression event")
		return "malformed"
	}
	var target struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(env.Data, &target); err != nil || target.UserID == "" {
		logger.Ctx(ctx).Error().Str("type", env.Type).Msg("progression event has no userId")
		return "malformed"
	}

	// 1. 从Redis查询用户所在的网关节点
	nodeID, err := r.sessions.GetUserGateway(ctx, target.UserID)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("user_id", target.UserID).Msg("failed to get push session")
		return "error"
	}
	switch {
	case nodeID == "":
		return "offline"
	case nodeID != r.hub.nodeID:
		return "other_node"
	}

	// 2. 投递到本节点的连接
	payload, err := json.Marshal(Notification{Type: env.Type, OccurredAt: env.OccurredAt, Data: env.Data})
	if err != nil {
		return "malformed"
	}
	if !r.hub.Deliver(target.UserID, payload) {
		logger.Ctx(ctx).Warn().Str("user_id", target.UserID).Str("type", env.Type).Msg("Push dropped, client gone or slow.")
		return "dropped"
	}
	return "delivered"
}
