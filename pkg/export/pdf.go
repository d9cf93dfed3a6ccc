package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Certificate carries the fields rendered onto a student certificate.
type Certificate struct {
	Kind        string
	InstituteID string
	StudentName string
	FatherName  string
	Grade       string
	Roll        int
	IssuedOn    time.Time
}

// PDFTable renders a Dataset into a tabular PDF with an optional title.
func PDFTable(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, row[header], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return output(pdf)
}

// PDFCertificate renders a single-page certificate document.
func PDFCertificate(cert Certificate) ([]byte, error) {
	if cert.StudentName == "" {
		return nil, fmt.Errorf("certificate requires a student name")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(20, 25, 20)
	pdf.AddPage()

	pdf.SetFont("Times", "B", 26)
	pdf.CellFormat(0, 16, strings.ToUpper(cert.Kind), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Times", "", 13)
	body := fmt.Sprintf("This is to certify that %s", cert.StudentName)
	if cert.FatherName != "" {
		body += fmt.Sprintf(", child of %s,", cert.FatherName)
	}
	body += fmt.Sprintf(" bearing roll number %d is a bona fide student of grade %s at this institute.",
		cert.Roll, cert.Grade)
	pdf.MultiCell(0, 8, body, "", "C", false)
	pdf.Ln(12)

	pdf.SetFont("Times", "I", 11)
	pdf.CellFormat(0, 8, fmt.Sprintf("Issued on %s", cert.IssuedOn.Format("2 January 2006")), "", 1, "C", false, 0, "")
	pdf.Ln(18)

	pdf.SetFont("Times", "", 11)
	pdf.CellFormat(0, 8, "______________________", "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, "Principal", "", 1, "R", false, 0, "")

	return output(pdf)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
