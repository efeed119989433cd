package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/salesdesk-io/salesdesk/internal/quotes"
)

// Renderer produces PDF documents for quotations. All monetary values come
// straight from the computed document; nothing is recalculated here.
type Renderer struct {
	printer *message.Printer
}

// NewRenderer constructs a quotation PDF renderer.
func NewRenderer() *Renderer {
	return &Renderer{printer: message.NewPrinter(language.Spanish)}
}

func (r *Renderer) money(cur quotes.Currency, v float64) string {
	symbol := "S/"
	if cur == quotes.CurrencyUSD {
		symbol = "US$"
	}
	return r.printer.Sprintf("%s %.2f", symbol, v)
}

// RenderQuotation lays out a quotation as a single-page A4 document.
func (r *Renderer) RenderQuotation(q *quotes.Quotation) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Quotation %d", q.Correlative), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Quotation")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("No. %d issued %s", q.Correlative, q.Date.Format("02/01/2006")))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Client: %s (%s)", q.ClientName, q.TaxID))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Sales rep: %s", q.SalesRep))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", q.Status))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(25, 7, "Code")
	pdf.Cell(75, 7, "Product")
	pdf.Cell(15, 7, "Qty")
	pdf.Cell(25, 7, "Unit net")
	pdf.Cell(30, 7, "Total")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range q.Lines {
		pdf.Cell(25, 6, trim(line.ProductCode, 14))
		pdf.Cell(75, 6, trim(line.ProductName, 45))
		pdf.Cell(15, 6, fmt.Sprintf("%d", line.Quantity))
		pdf.Cell(25, 6, r.money(q.Currency, line.NetUnitPrice))
		pdf.Cell(30, 6, r.money(q.Currency, line.LineTotal))
		pdf.Ln(6)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(140, 6, "")
	pdf.Cell(0, 6, fmt.Sprintf("Subtotal: %s", r.money(q.Currency, q.Subtotal)))
	pdf.Ln(6)
	pdf.Cell(140, 6, "")
	pdf.Cell(0, 6, fmt.Sprintf("Tax (18%%): %s", r.money(q.Currency, q.Tax)))
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(140, 7, "")
	pdf.Cell(0, 7, fmt.Sprintf("Total: %s", r.money(q.Currency, q.Total)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render quotation pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func trim(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
