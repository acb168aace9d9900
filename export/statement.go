package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/warp/agency-ledger/agency"
)

// Statement renders a client's statement of account as a PDF: contact
// details, current wallet balance and the transactions, most recent first.
// generatedAt is printed on the header.
func Statement(client agency.Client, txs []agency.Transaction, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Statement of Account", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "STATEMENT OF ACCOUNT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	for _, line := range []string{
		"Client     : " + client.Name + " (" + string(client.ID) + ")",
		"Email      : " + orDash(client.Email),
		"Phone      : " + orDash(client.Phone),
		"Address    : " + orDash(client.Address),
		"Generated  : " + generatedAt.Format("2006-01-02 15:04"),
	} {
		pdf.Cell(0, 6, line)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Wallet balance: "+client.WalletBalance.StringFixed(2))
	pdf.Ln(12)

	widths := []float64{38, 22, 30, 60, 40}
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range []string{"Date", "Type", "Amount", "Reference", "Transaction"} {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	if len(txs) == 0 {
		pdf.CellFormat(sum(widths), 7, "No transactions", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}
	for _, tx := range txs {
		cells := []string{
			tx.Timestamp.Format("2006-01-02 15:04"),
			string(tx.Type),
			signedAmount(tx),
			tx.Reference,
			string(tx.ID),
		}
		for i, c := range cells {
			align := "L"
			if i == 2 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render statement %s: %w", client.ID, err)
	}
	return buf.Bytes(), nil
}

// StatementFilename names a client's statement file.
func StatementFilename(id agency.ClientID, at time.Time) string {
	return fmt.Sprintf("statement_%s_%s.pdf", id, at.Format(agency.DateLayout))
}

func signedAmount(tx agency.Transaction) string {
	return tx.Signed().StringFixed(2)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func sum(xs []float64) float64 {
	var total float64
	for _, x := range xs {
		total += x
	}
	return total
}
