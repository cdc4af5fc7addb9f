package domain

import "github.com/shopspring/decimal"

// CurrencyScales 币种金额精度表。未登记的币种按默认两位小数。
type CurrencyScales map[string]int32

// DefaultCurrencyScales 常用币种精度
func DefaultCurrencyScales() CurrencyScales {
	return CurrencyScales{
		"USD": 2,
		"EUR": 2,
		"GBP": 2,
		"JPY": 0,
		"KRW": 0,
	}
}

// Scale 返回币种的金额小数位。
func (s CurrencyScales) Scale(currency string) int32 {
	if scale, ok := s[currency]; ok {
		return scale
	}
	return 2
}

// CashAmount 计算金额 = 数量 × 价格，按币种精度银行家舍入。
func CashAmount(qty, price decimal.Decimal, currencyScale int32) decimal.Decimal {
	return qty.Mul(price).RoundBank(currencyScale)
}
