package adapter

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"inkverse/internal/pkg/redis"
)

const (
	reserveScriptName = "flashsale_reserve"
	releaseScriptName = "flashsale_release"
)

// FlashSaleRedisAdapter 是 port.FlashSaleStock 接口的 Redis 实现。
type FlashSaleRedisAdapter struct {
	redisClient *redis.Client
}

// NewFlashSaleRedisAdapter 在创建时加载所有需要的 Lua 脚本。
func NewFlashSaleRedisAdapter(redisClient *redis.Client) (*FlashSaleRedisAdapter, error) {
	if err := redisClient.LoadScriptFromContent(reserveScriptName, reserveScript); err != nil {
		return nil, fmt.Errorf("failed to load critical flash-sale script: %w", err)
	}
	if err := redisClient.LoadScriptFromContent(releaseScriptName, releaseScript); err != nil {
		return nil, fmt.Errorf("failed to load critical flash-sale script: %w", err)
	}
	return &FlashSaleRedisAdapter{redisClient: redisClient}, nil
}

func soldKey(productID string) string {
	return fmt.Sprintf("flashsale:sold:{%s}", productID)
}

// Reserve 原子地检查并增加已售数量
func (a *FlashSaleRedisAdapter) Reserve(ctx context.Context, productID string, qty, limit, baselineSold int) (bool, error) {
	result, err := a.redisClient.RunScript(ctx, reserveScriptName, []string{soldKey(productID)}, qty, limit, baselineSold)
	if err != nil {
		return false, fmt.Errorf("flash-sale adapter failed to run script: %w", err)
	}
	code, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected result type from Lua script: %T", result)
	}
	return code == 1, nil
}

// Release 实现了预留的补偿逻辑
func (a *FlashSaleRedisAdapter) Release(ctx context.Context, productID string, qty int) error {
	if _, err := a.redisClient.RunScript(ctx, releaseScriptName, []string{soldKey(productID)}, qty); err != nil {
		return fmt.Errorf("flash-sale adapter failed to release stock: %w", err)
	}
	return nil
}

func (a *FlashSaleRedisAdapter) Sold(ctx context.Context, productID string) (int, bool, error) {
	val, err := a.redisClient.GetClient().Get(ctx, soldKey(productID)).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	sold, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("corrupted flash-sale counter %s: %w", productID, err)
	}
	return sold, true, nil
}

// PrepareFlashSale (测试和管理用) 重置秒杀计数器
func (a *FlashSaleRedisAdapter) PrepareFlashSale(ctx context.Context, productID string, sold int) error {
	if err := a.redisClient.GetClient().Set(ctx, soldKey(productID), sold, 0).Err(); err != nil {
		return fmt.Errorf("failed to prepare flash sale: %w", err)
	}
	return nil
}

var reserveScript = `
-- KEYS[1]: 已售数量, 例如: flashsale:sold:{vol-1}
-- ARGV[1]: 本次购买数量
-- ARGV[2]: 秒杀总量
-- ARGV[3]: 计数器不存在时使用的初始已售数量

local sold = tonumber(redis.call('get', KEYS[1]))
if not sold then
    sold = tonumber(ARGV[3])
    redis.call('set', KEYS[1], sold)
end

local qty = tonumber(ARGV[1])
if sold + qty > tonumber(ARGV[2]) then
    return 0 -- 库存不足
end

redis.call('incrby', KEYS[1], qty)
return 1
`

var releaseScript = `
-- KEYS[1]: 已售数量
-- ARGV[1]: 需要归还的数量

local sold = tonumber(redis.call('get', KEYS[1]) or '0')
local qty = tonumber(ARGV[1])
if qty > sold then
    qty = sold
end
if qty > 0 then
    redis.call('decrby', KEYS[1], qty)
end
return sold - qty
`
