package mysql

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// Store 基于 gorm 事务实现 domain.Store。
// WithinTx 将事务句柄注入上下文，仓储与出箱发布方从同一上下文解析，
// 保证业务写入与事件登记原子提交。
type Store struct {
	db *gorm.DB
}

// NewStore 创建事务存储
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithinTx 在单个数据库事务内执行 fn。fn 返回错误则整体回滚。
func (s *Store) WithinTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// TxFromContext 解析上下文中的事务句柄，不存在时返回 nil。
func TxFromContext(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return nil
}

// dbFrom 返回上下文事务句柄，事务外回退到基础连接。
func dbFrom(ctx context.Context, base *gorm.DB) *gorm.DB {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return base.WithContext(ctx)
}
