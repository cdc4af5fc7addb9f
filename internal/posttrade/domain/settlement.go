package domain

import (
	"github.com/shopspring/decimal"
)

// SettlementMethod 交收方式
type SettlementMethod string

const (
	SettlementMethodDVP SettlementMethod = "DVP" // 券款对付
	SettlementMethodFOP SettlementMethod = "FOP" // 只付券
)

// SettlementInstruction 结算指令出站载荷。核心不落库，物化后直接投递网关。
type SettlementInstruction struct {
	SettleID   string           `json:"settleId"`
	AllocID    string           `json:"allocId"`
	AccountID  string           `json:"accountId"`
	ISIN       string           `json:"isin"`
	Currency   string           `json:"currency"`
	SettleDate string           `json:"settleDate"`
	Method     SettlementMethod `json:"method"`
	CashAmount decimal.Decimal  `json:"cashAmount"`
}

// BuildSettlementInstruction 由分配与其归属大宗单、金融工具物化结算指令。
// 交收日 = 交易日顺延 cycleDays 个营业日；金额按币种精度银行家舍入。
func BuildSettlementInstruction(
	alloc *Allocation,
	block *BlockTrade,
	instrument *Instrument,
	cal Calendar,
	cycleDays int,
	scales CurrencyScales,
) (*SettlementInstruction, error) {
	tradeDate, err := ParseTradeDate(block.TradeDate)
	if err != nil {
		return nil, err
	}
	settleDate := AddBusinessDays(cal, tradeDate, cycleDays)

	return &SettlementInstruction{
		SettleID:   NewSettlementID(alloc.AllocID),
		AllocID:    alloc.AllocID,
		AccountID:  alloc.AccountID,
		ISIN:       instrument.ISIN,
		Currency:   instrument.Currency,
		SettleDate: FormatTradeDate(settleDate),
		Method:     SettlementMethodDVP,
		CashAmount: CashAmount(alloc.AllocQty, alloc.AllocPrice, scales.Scale(instrument.Currency)),
	}, nil
}
