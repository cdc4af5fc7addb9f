package messaging

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupeKeyPrefix = "posttrade:dedupe:exec:"

// Deduper 入站成交去重窗口。
// 标记在规则事务提交之后写入：崩溃窗口内的重放不被拦截，
// 由确定性 upsert 吸收，去重只是旁路优化而非正确性依赖。
type Deduper struct {
	client  *redis.Client
	horizon time.Duration
}

// NewDeduper 创建去重器。horizon 为 execId 的保留窗口。
func NewDeduper(client *redis.Client, horizon time.Duration) *Deduper {
	if horizon <= 0 {
		horizon = 7 * 24 * time.Hour
	}
	return &Deduper{client: client, horizon: horizon}
}

// Seen 判断 execId 是否已在窗口内处理过
func (d *Deduper) Seen(ctx context.Context, execID string) (bool, error) {
	n, err := d.client.Exists(ctx, dedupeKeyPrefix+execID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkSeen 记录 execId 已处理，窗口到期自动淘汰
func (d *Deduper) MarkSeen(ctx context.Context, execID string) error {
	return d.client.Set(ctx, dedupeKeyPrefix+execID, 1, d.horizon).Err()
}
