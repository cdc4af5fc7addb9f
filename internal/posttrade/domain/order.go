package domain

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Side 买卖方向
type Side int8

const (
	SideBuy  Side = 1 // 买入
	SideSell Side = 2 // 卖出
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Order 客户委托。由外部系统创建，核心只读。
type Order struct {
	gorm.Model
	OrderID      string          `gorm:"column:order_id;type:varchar(64);uniqueIndex;not null" json:"order_id"`
	AccountID    string          `gorm:"column:account_id;type:varchar(64);index;not null" json:"account_id"`
	InstrumentID string          `gorm:"column:instrument_id;type:varchar(64);index;not null" json:"instrument_id"`
	Side         Side            `gorm:"column:side;type:tinyint;not null" json:"side"`
	Qty          decimal.Decimal `gorm:"column:qty;type:decimal(20,4);not null" json:"qty"`
	Trader       string          `gorm:"column:trader;type:varchar(64)" json:"trader"`
}

// TableName 表名
func (Order) TableName() string {
	return "orders"
}
