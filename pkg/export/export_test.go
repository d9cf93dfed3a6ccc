package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCSV(t *testing.T) {
	data := Dataset{
		Headers: []string{"Roll", "Name"},
		Rows: []map[string]string{
			{"Roll": "1", "Name": "First, Student"},
			{"Roll": "2", "Name": "Second Student"},
		},
	}

	out, err := CSV(data)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, []string{"Roll", "Name"}, records[0])
	require.Equal(t, []string{"1", "First, Student"}, records[1])
}

func TestCSVMissingColumnRendersEmpty(t *testing.T) {
	data := Dataset{
		Headers: []string{"Roll", "Name"},
		Rows:    []map[string]string{{"Roll": "1"}},
	}

	out, err := CSV(data)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Equal(t, []string{"1", ""}, records[1])
}

func TestCSVRequiresHeaders(t *testing.T) {
	_, err := CSV(Dataset{})
	require.Error(t, err)
}

func TestPDFTable(t *testing.T) {
	data := Dataset{
		Headers: []string{"Installment", "Amount", "Status"},
		Rows: []map[string]string{
			{"Installment": "1", "Amount": "7500", "Status": "Paid"},
			{"Installment": "2", "Amount": "7500", "Status": "Due"},
		},
	}

	out, err := PDFTable(data, "Fee Statement")
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFTableRequiresHeaders(t *testing.T) {
	_, err := PDFTable(Dataset{}, "")
	require.Error(t, err)
}

func TestPDFCertificate(t *testing.T) {
	out, err := PDFCertificate(Certificate{
		Kind:        "Bonafide Certificate",
		StudentName: "A Student",
		FatherName:  "A Parent",
		Grade:       "10",
		Roll:        7,
		IssuedOn:    time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFCertificateRequiresName(t *testing.T) {
	_, err := PDFCertificate(Certificate{Kind: "Bonafide Certificate"})
	require.Error(t, err)
}
