// Package pricing は数量と単価から小計・送料・税・合計を出す。
// 状態を持たないので、カート表示と注文確定の両方で同じ結果になる。
package pricing

import "github.com/shopspring/decimal"

var (
	// これを「超える」と送料無料（ちょうどは有料）
	FreeShippingThreshold = decimal.NewFromInt(50)
	FlatShipping          = decimal.NewFromInt(10)
	TaxRate               = decimal.RequireFromString("0.08")
)

type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int64
}

type Summary struct {
	TotalItems int64           `json:"totalItems"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Shipping   decimal.Decimal `json:"shipping"`
	Tax        decimal.Decimal `json:"tax"`
	Total      decimal.Decimal `json:"total"`
}

func LineTotal(unitPrice decimal.Decimal, qty int64) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(qty))
}

// Calculate
// 小計はセント単位で切り捨て、税は丸めない
func Calculate(lines []Line) Summary {
	raw := decimal.Zero
	var items int64
	for _, l := range lines {
		raw = raw.Add(LineTotal(l.UnitPrice, l.Quantity))
		items += l.Quantity
	}

	subtotal := raw.RoundFloor(2)

	shipping := FlatShipping
	if subtotal.GreaterThan(FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := subtotal.Mul(TaxRate)

	return Summary{
		TotalItems: items,
		Subtotal:   subtotal,
		Shipping:   shipping,
		Tax:        tax,
		Total:      subtotal.Add(shipping).Add(tax),
	}
}

// 表示用は2桁（四捨五入）
func Display(d decimal.Decimal) string {
	return d.StringFixed(2)
}
