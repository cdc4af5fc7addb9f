package domain

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/xerrors"
)

// 存储层契约错误。
// ErrNotUnique 表示唯一性谓词命中多行，属不变量破坏，调用方必须停止推进。
var (
	ErrNotFound  = xerrors.New(xerrors.ErrNotFound, 404, "record not found", "", nil)
	ErrNotUnique = xerrors.New(xerrors.ErrInternal, 500, "predicate matched more than one row", "", nil)
)

// Store 事务边界。WithinTx 内的仓储操作与出箱写入原子提交。
type Store interface {
	WithinTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// InstrumentRepository 金融工具仓储接口
type InstrumentRepository interface {
	Save(ctx context.Context, instrument *Instrument) error
	Get(ctx context.Context, instrumentID string) (*Instrument, error)
}

// OrderRepository 委托仓储接口
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
	Get(ctx context.Context, orderID string) (*Order, error)
	ListByInstrument(ctx context.Context, instrumentID string) ([]*Order, error)
}

// ExecutionRepository 成交仓储接口
type ExecutionRepository interface {
	Upsert(ctx context.Context, execution *Execution) error
	Get(ctx context.Context, execID string) (*Execution, error)
	// ListLive 返回分组内数量为正的全部成交，供大宗单整单重算。
	ListLive(ctx context.Context, instrumentID, tradeDate string) ([]*Execution, error)
	UpdateQty(ctx context.Context, execID string, qty decimal.Decimal) error
}

// BlockRepository 大宗单仓储接口
type BlockRepository interface {
	Upsert(ctx context.Context, block *BlockTrade) error
	Get(ctx context.Context, blockID string) (*BlockTrade, error)
	// FindOpen 定位分组的聚合桶（OPEN 或 READY_TO_ALLOCATE）。
	// 零行返回 ErrNotFound；多行返回 ErrNotUnique。
	FindOpen(ctx context.Context, instrumentID string, side Side, tradeDate string) (*BlockTrade, error)
	ListByGroup(ctx context.Context, instrumentID, tradeDate string) ([]*BlockTrade, error)
	UpdateStatus(ctx context.Context, blockID string, status BlockStatus) error
}

// AllocationRepository 分配仓储接口
type AllocationRepository interface {
	Upsert(ctx context.Context, allocation *Allocation) error
	Get(ctx context.Context, allocID string) (*Allocation, error)
	ListByBlock(ctx context.Context, blockID string) ([]*Allocation, error)
}

// EventPublisher 事件发布接口。规则事务内调用时写入 Outbox，
// 与业务写入同库同事务；事务句柄由实现方从上下文解析。
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}
