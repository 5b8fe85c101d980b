package billing

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/marketloft-backend/pkg/db/models"
)

// renderInvoicePDF assembles a single-page PDF document for the invoice.
// The output uses only the base Helvetica font so no font embedding is
// needed and the bytes stay stable for a given invoice.
func renderInvoicePDF(invoice *models.Invoice, planName string) []byte {
	lines := []string{
		"MarketLoft",
		fmt.Sprintf("Invoice %s", invoice.Number),
		fmt.Sprintf("Issued %s", invoice.IssuedAt.UTC().Format("2006-01-02")),
		fmt.Sprintf("Plan: %s", planName),
		fmt.Sprintf("Period: %s to %s",
			invoice.PeriodStart.UTC().Format("2006-01-02"),
			invoice.PeriodEnd.UTC().Format("2006-01-02")),
		fmt.Sprintf("Amount due: %s %s", formatCents(invoice.AmountCents), invoice.Currency),
		fmt.Sprintf("Status: %s", invoice.Status),
	}

	var content bytes.Buffer
	content.WriteString("BT\n/F1 12 Tf\n72 720 Td\n14 TL\n")
	for i, line := range lines {
		if i > 0 {
			content.WriteString("T*\n")
		}
		fmt.Fprintf(&content, "(%s) Tj\n", escapePDFText(line))
	}
	content.WriteString("ET\n")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
	}

	var out bytes.Buffer
	out.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects)+1)
	for i, obj := range objects {
		offsets[i+1] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xrefStart := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n", len(objects)+1)
	out.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(objects); i++ {
		fmt.Fprintf(&out, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&out, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefStart)

	return out.Bytes()
}

func formatCents(cents int) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func escapePDFText(text string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return replacer.Replace(text)
}

// invoiceNumber builds the human-facing invoice identifier.
func invoiceNumber(issuedAt time.Time, sequence int64) string {
	return fmt.Sprintf("INV-%d-%06d", issuedAt.UTC().Year(), sequence)
}
