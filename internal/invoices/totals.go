package invoices

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/bizledger-backend/pkg/errors"
)

const moneyPlaces = 2

var (
	hundred    = decimal.NewFromInt(100)
	maxTaxRate = hundred
)

// LineInput is one priced row before totals are computed.
type LineInput struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// Totals are the computed money amounts of an invoice, rounded to cents.
type Totals struct {
	LineTotals []decimal.Decimal
	Subtotal   decimal.Decimal
	TaxAmount  decimal.Decimal
	Discount   decimal.Decimal
	Total      decimal.Decimal
}

// ComputeTotals returns subtotal + tax - discount. Each line is rounded before summing;
// tax is taxRate percent of the subtotal.
func ComputeTotals(lines []LineInput, taxRate, discount decimal.Decimal) (Totals, error) {
	if len(lines) == 0 {
		return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "at least one line item is required")
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(maxTaxRate) {
		return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "tax rate must be between 0 and 100")
	}
	if discount.IsNegative() {
		return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "discount cannot be negative")
	}

	totals := Totals{LineTotals: make([]decimal.Decimal, 0, len(lines))}
	subtotal := decimal.Zero
	for i, line := range lines {
		if !line.Quantity.IsPositive() {
			return Totals{}, pkgerrors.Newf(pkgerrors.CodeValidation, "line %d: quantity must be positive", i+1)
		}
		if line.UnitPrice.IsNegative() {
			return Totals{}, pkgerrors.Newf(pkgerrors.CodeValidation, "line %d: unit price cannot be negative", i+1)
		}
		lineTotal := line.Quantity.Mul(line.UnitPrice).Round(moneyPlaces)
		totals.LineTotals = append(totals.LineTotals, lineTotal)
		subtotal = subtotal.Add(lineTotal)
	}

	tax := subtotal.Mul(taxRate).Div(hundred).Round(moneyPlaces)
	gross := subtotal.Add(tax)
	discount = discount.Round(moneyPlaces)
	if discount.GreaterThan(gross) {
		return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds subtotal plus tax")
	}

	totals.Subtotal = subtotal
	totals.TaxAmount = tax
	totals.Discount = discount
	totals.Total = gross.Sub(discount)
	return totals, nil
}
