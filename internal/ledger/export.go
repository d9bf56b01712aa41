package ledger

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/diewo77/go-purchases/internal/models"
)

// ExportFileName is the download name of the payment history.
const ExportFileName = "payment_history.csv"

var exportHeader = []string{"Date", "Bill Number", "Supplier", "Amount", "Method", "Type"}

// ExportPaymentsCSV writes payments in the order given.
func ExportPaymentsCSV(w io.Writer, payments []models.Payment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("export header: %w", err)
	}
	for _, p := range payments {
		row := []string{p.Date.String(), p.BillNumber, p.Supplier, p.Amount.String(), p.Method, string(p.Type)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export payment %s: %w", p.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
