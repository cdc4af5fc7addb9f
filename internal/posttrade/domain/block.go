package domain

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BlockStatus 大宗单状态
type BlockStatus int8

const (
	BlockStatusOpen            BlockStatus = 1 // 开放聚合中
	BlockStatusReadyToAllocate BlockStatus = 2 // 待分配
	BlockStatusAllocated       BlockStatus = 3 // 已分配
	BlockStatusBusted          BlockStatus = 4 // 已冲正
)

func (s BlockStatus) String() string {
	switch s {
	case BlockStatusOpen:
		return "OPEN"
	case BlockStatusReadyToAllocate:
		return "READY_TO_ALLOCATE"
	case BlockStatusAllocated:
		return "ALLOCATED"
	case BlockStatusBusted:
		return "BUSTED"
	default:
		return "UNKNOWN"
	}
}

// BlockTrade 大宗聚合单。同一 (instrument, side, tradeDate) 分组下
// 最多存在一张 OPEN 或 READY_TO_ALLOCATE 状态的大宗单。
type BlockTrade struct {
	gorm.Model
	BlockID      string          `gorm:"column:block_id;type:varchar(64);uniqueIndex;not null" json:"block_id"`
	InstrumentID string          `gorm:"column:instrument_id;type:varchar(64);index;not null" json:"instrument_id"`
	Side         Side            `gorm:"column:side;type:tinyint;not null" json:"side"`
	TradeDate    string          `gorm:"column:trade_date;type:varchar(8);index;not null" json:"trade_date"`
	GrossQty     decimal.Decimal `gorm:"column:gross_qty;type:decimal(20,4);not null" json:"gross_qty"`
	AvgPrice     decimal.Decimal `gorm:"column:avg_price;type:decimal(18,8);not null" json:"avg_price"`
	Status       BlockStatus     `gorm:"column:status;type:tinyint;not null;default:1" json:"status"`
}

// TableName 表名
func (BlockTrade) TableName() string {
	return "block_trades"
}

// Aggregate 对分组内全部存活成交重算总量与加权均价。
// 每笔成交到达都整单重算而非增量累加：大宗单因此是成交集合的纯函数，
// 重放与冲正（qty 归零）都会收敛到同一状态。
// 均价按 priceScale 银行家舍入（half-even）。
func Aggregate(fills []*Execution, priceScale int32) (grossQty, avgPrice decimal.Decimal) {
	grossQty = decimal.Zero
	notional := decimal.Zero
	for _, e := range fills {
		if !e.IsLive() {
			continue
		}
		grossQty = grossQty.Add(e.Qty)
		notional = notional.Add(e.Qty.Mul(e.Price))
	}
	if grossQty.IsZero() {
		return decimal.Zero, decimal.Zero
	}
	avgPrice = notional.Div(grossQty).RoundBank(priceScale)
	return grossQty, avgPrice
}

// Bust 冲正大宗单。任意状态均可进入 BUSTED，幂等。
func (b *BlockTrade) Bust() {
	b.Status = BlockStatusBusted
}

// IsAllocatable 仅待分配状态的大宗单可进入分配流程。
func (b *BlockTrade) IsAllocatable() bool {
	return b.Status == BlockStatusReadyToAllocate
}
