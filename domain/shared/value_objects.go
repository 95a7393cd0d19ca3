package shared

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money 值对象 - 表示金额（市场内部货币 "xu" 或 VND）
type Money struct {
	amount decimal.Decimal
	unit   string
}

// Units used by the marketplace.
const (
	UnitCoin = "xu"
	UnitVND  = "₫"
)

// NewMoney 创建新的Money值对象
func NewMoney(amount float64, unit string) Money {
	return Money{amount: decimal.NewFromFloat(amount), unit: unit}
}

// Amount 获取金额数量
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Unit 获取货币单位
func (m Money) Unit() string {
	return m.unit
}

// Add 金额相加，单位不同时返回 false
func (m Money) Add(other Money) (Money, bool) {
	if m.unit != other.unit {
		return Money{}, false
	}
	return Money{amount: m.amount.Add(other.amount), unit: m.unit}, true
}

// Equals 比较两个Money值对象是否相等
func (m Money) Equals(other Money) bool {
	return m.amount.Equal(other.amount) && m.unit == other.unit
}

// String formats the amount the way the vi-VN locale does: whole units, dot as the
// thousands separator, then the unit ("1.250.000 xu"). Fractions are rounded.
func (m Money) String() string {
	digits := m.amount.Round(0).Abs().StringFixed(0)
	var b strings.Builder
	if m.amount.Round(0).IsNegative() {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	if m.unit != "" {
		b.WriteByte(' ')
		b.WriteString(m.unit)
	}
	return b.String()
}
