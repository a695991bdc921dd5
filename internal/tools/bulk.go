package tools

import "binance-mcp/internal/gateway"

// BulkItem is the outcome of one call inside a bulk operation.
type BulkItem struct {
	OrderID      int64   `json:"orderId,omitempty"`
	Symbol       string  `json:"symbol,omitempty"`
	PositionSide string  `json:"positionSide,omitempty"`
	Status       string  `json:"status"`
	Success      bool    `json:"success"`
	Amount       float64 `json:"closedAmount,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// BulkReport aggregates a bulk operation. Per-item failures never abort it.
type BulkReport struct {
	Total     int        `json:"total"`
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
	Results   []BulkItem `json:"results"`
}

func (r *BulkReport) add(item BulkItem) {
	r.Results = append(r.Results, item)
	if item.Success {
		r.Succeeded++
	} else {
		r.Failed++
	}
}

// runBulk calls fn once per item in order and records each outcome.
func runBulk[T any](items []T, fn func(T) (BulkItem, error), onError func(T, error) BulkItem) BulkReport {
	report := BulkReport{Total: len(items), Results: make([]BulkItem, 0, len(items))}
	for _, it := range items {
		out, err := fn(it)
		if err != nil {
			failed := onError(it, err)
			failed.Success = false
			failed.Error = gateway.FormatError(err)
			report.add(failed)
			continue
		}
		out.Success = true
		report.add(out)
	}
	return report
}
