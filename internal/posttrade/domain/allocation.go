package domain

import (
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Allocation 账户分配切片。创建后不可变；冲正通过大宗单状态传导，不回改分配。
type Allocation struct {
	gorm.Model
	AllocID    string          `gorm:"column:alloc_id;type:varchar(64);uniqueIndex;not null" json:"alloc_id"`
	BlockID    string          `gorm:"column:block_id;type:varchar(64);index;not null" json:"block_id"`
	AccountID  string          `gorm:"column:account_id;type:varchar(64);index;not null" json:"account_id"`
	AllocQty   decimal.Decimal `gorm:"column:alloc_qty;type:decimal(20,4);not null" json:"alloc_qty"`
	AllocPrice decimal.Decimal `gorm:"column:alloc_price;type:decimal(18,8);not null" json:"alloc_price"`
}

// TableName 表名
func (Allocation) TableName() string {
	return "allocations"
}

// AccountShare 单账户应得数量
type AccountShare struct {
	AccountID string
	Qty       decimal.Decimal
}

// SplitProRata 将总量在账户间平均切分。
// 规则：按 qtyScale 向下取整的等额分配；除不尽的余量按账户号字典序
// 逐一补足一个最小数量单位；不产生零或负的分配。
// 总量不足以覆盖全部账户时，仅前若干账户各得一个单位。
func SplitProRata(grossQty decimal.Decimal, accounts []string, qtyScale int32) []AccountShare {
	if len(accounts) == 0 || !grossQty.IsPositive() {
		return nil
	}

	sorted := make([]string, len(accounts))
	copy(sorted, accounts)
	sort.Strings(sorted)

	n := decimal.NewFromInt(int64(len(sorted)))
	quantum := decimal.New(1, -qtyScale)

	base := grossQty.DivRound(n, qtyScale+4).Truncate(qtyScale)
	residual := grossQty.Sub(base.Mul(n))
	topUps := residual.DivRound(quantum, 0).IntPart()

	shares := make([]AccountShare, 0, len(sorted))
	for i, acct := range sorted {
		qty := base
		if int64(i) < topUps {
			qty = qty.Add(quantum)
		}
		if !qty.IsPositive() {
			continue
		}
		shares = append(shares, AccountShare{AccountID: acct, Qty: qty})
	}
	return shares
}
