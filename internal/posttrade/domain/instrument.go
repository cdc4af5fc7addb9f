// Package domain 包含盘后处理服务的领域模型、仓储接口和领域规则。
// 五张投影表（Instrument/Order/Execution/BlockTrade/Allocation）在此定义，
// 所有数量与金额一律使用定点小数，禁止二进制浮点。
package domain

import (
	"gorm.io/gorm"
)

// SecurityType 证券类型
type SecurityType int8

const (
	SecurityTypeEquity SecurityType = 1 // 股票
	SecurityTypeBond   SecurityType = 2 // 债券
	SecurityTypeSwap   SecurityType = 3 // 互换
)

func (t SecurityType) String() string {
	switch t {
	case SecurityTypeEquity:
		return "EQUITY"
	case SecurityTypeBond:
		return "BOND"
	case SecurityTypeSwap:
		return "SWAP"
	default:
		return "UNKNOWN"
	}
}

// Instrument 金融工具静态参考数据。由外部系统创建，核心只读。
type Instrument struct {
	gorm.Model
	InstrumentID string       `gorm:"column:instrument_id;type:varchar(64);uniqueIndex;not null" json:"instrument_id"`
	SecurityType SecurityType `gorm:"column:security_type;type:tinyint;not null" json:"security_type"`
	ISIN         string       `gorm:"column:isin;type:varchar(12);index" json:"isin"`
	Currency     string       `gorm:"column:currency;type:varchar(3);not null" json:"currency"`
	Venue        string       `gorm:"column:venue;type:varchar(8)" json:"venue"`
}

// TableName 表名
func (Instrument) TableName() string {
	return "instruments"
}
