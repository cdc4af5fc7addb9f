package domain

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Execution 成交回报。由 Ingest 规则写入；仅 Bust（冲正）会修改数量。
// TradeDate 采用 YYYYMMDD 字符串，与上游执行回报格式保持一致。
type Execution struct {
	gorm.Model
	ExecID       string          `gorm:"column:exec_id;type:varchar(64);uniqueIndex;not null" json:"exec_id"`
	OrderID      string          `gorm:"column:order_id;type:varchar(64);index;not null" json:"order_id"`
	InstrumentID string          `gorm:"column:instrument_id;type:varchar(64);index;not null" json:"instrument_id"`
	Qty          decimal.Decimal `gorm:"column:qty;type:decimal(20,4);not null" json:"qty"`
	Price        decimal.Decimal `gorm:"column:price;type:decimal(18,8);not null" json:"price"`
	TradeDate    string          `gorm:"column:trade_date;type:varchar(8);index;not null" json:"trade_date"`
	Venue        string          `gorm:"column:venue;type:varchar(8)" json:"venue"`
}

// TableName 表名
func (Execution) TableName() string {
	return "executions"
}

// IsLive 数量为正的成交才参与聚合；冲正后数量归零即退出聚合。
func (e *Execution) IsLive() bool {
	return e.Qty.IsPositive()
}

// IsBusted 冲正后的成交（数量 <= 0）。
func (e *Execution) IsBusted() bool {
	return !e.Qty.IsPositive()
}
