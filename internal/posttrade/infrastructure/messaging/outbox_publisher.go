// Package messaging 出站事件的出箱登记、派发与入站去重。
package messaging

import (
	"context"

	"github.com/wyfcoding/pkg/messagequeue/outbox"
	"gorm.io/gorm"

	"github.com/wyfcoding/posttrade/internal/posttrade/infrastructure/persistence/mysql"
)

// OutboxPublisher 将事件写入出箱表，实现 domain.EventPublisher。
// 规则事务内调用时复用上下文中的事务句柄，事件与业务写入原子提交。
type OutboxPublisher struct {
	mgr *outbox.Manager
	db  *gorm.DB
}

// NewOutboxPublisher 创建出箱发布器
func NewOutboxPublisher(mgr *outbox.Manager, db *gorm.DB) *OutboxPublisher {
	return &OutboxPublisher{mgr: mgr, db: db}
}

// Publish 登记一条待发事件。事务外调用时直接写基础连接。
func (p *OutboxPublisher) Publish(ctx context.Context, topic string, key string, event any) error {
	tx := mysql.TxFromContext(ctx)
	if tx == nil {
		tx = p.db.WithContext(ctx)
	}
	return p.mgr.PublishInTx(ctx, tx, topic, key, event)
}
