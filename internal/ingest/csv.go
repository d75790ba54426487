// Package ingest turns raw POS CSV exports into normalized domain records.
// It handles the quirks of the source files (BOM, IMTString prefix,
// semicolon delimiters, Brazilian date and number formats) and computes
// the derived fields the dashboard depends on: transaction classification,
// machine cycle counts, cashback and a deduplication hash.
package ingest

import (
	"encoding/csv"
	"regexp"
	"strings"
)

var imtPrefixRe = regexp.MustCompile(`^IMTString\(\d+\):\s*`)

// CleanCSV strips the UTF-8 BOM and the POS terminal's "IMTString(n):"
// prefix from raw export text.
func CleanCSV(text string) string {
	text = strings.TrimPrefix(text, "\ufeff")
	text = imtPrefixRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// DetectDelimiter sniffs the delimiter from the header line. The POS
// exports use semicolons; hand-edited files sometimes use commas.
func DetectDelimiter(text string) rune {
	firstLine, _, _ := strings.Cut(text, "\n")
	if strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		return ';'
	}
	return ','
}

// ParseRecords parses CSV text into header-keyed row maps. Rows shorter
// than the header are dropped rather than failing the whole file.
func ParseRecords(text string) ([]map[string]string, error) {
	text = CleanCSV(text)
	if text == "" {
		return nil, nil
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = DetectDelimiter(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < len(header) {
			continue
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			row[col] = strings.TrimSpace(rec[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// File types recognized by DetectFileType.
const (
	FileTypeSales     = "sales"
	FileTypeCustomers = "customers"
	FileTypeUnknown   = "unknown"
)

// DetectFileType inspects the header line to decide whether an export is
// a sales file or a customer file.
func DetectFileType(text string) string {
	firstLine, _, _ := strings.Cut(CleanCSV(text), "\n")
	firstLine = strings.ToLower(firstLine)

	if strings.Contains(firstLine, "data_hora") || strings.Contains(firstLine, "maquinas") {
		return FileTypeSales
	}
	if strings.Contains(firstLine, "documento") || strings.Contains(firstLine, "saldo_carteira") {
		return FileTypeCustomers
	}
	return FileTypeUnknown
}
