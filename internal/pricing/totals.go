package pricing

// Totals aggregates the header amounts of a quotation document.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// ComputeTotals derives header totals from the current set of line totals.
// An empty line set yields all zeros. The computation is a pure fold, so
// recomputing over an unchanged set always returns identical values.
func ComputeTotals(lineTotals []float64) Totals {
	var subtotal float64
	for _, lt := range lineTotals {
		subtotal += lt
	}
	subtotal = Round2(subtotal)
	tax := Round2(subtotal * TaxRate)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    Round2(subtotal + tax),
	}
}
