package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/tphummel/server_inventory/internal/models"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for spreadsheet files that are neither
// XLSX nor CSV.
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format; use .xlsx or .csv")

// ReadXLSX returns the rows of the first worksheet of an XLSX workbook.
func ReadXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySpreadsheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// ReadCSV returns the records of comma- or semicolon-separated text. The
// separator is taken from the header line, since Excel writes semicolons in
// locales that use a decimal comma. Rows may have differing numbers of
// fields.
func ReadCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	cr := csv.NewReader(br)
	cr.Comma = sniffComma(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

// sniffComma picks ';' when the first non-empty line has more semicolons
// than commas.
func sniffComma(br *bufio.Reader) rune {
	head, _ := br.Peek(br.Size())
	head = bytes.TrimLeft(head, "\r\n")
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	if bytes.Count(head, []byte{';'}) > bytes.Count(head, []byte{','}) {
		return ';'
	}
	return ','
}

// ReadSpreadsheet picks a reader from the file name extension.
func ReadSpreadsheet(filename string, r io.Reader) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(r)
	case ".csv":
		return ReadCSV(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// IngestSpreadsheet reads and parses a spreadsheet file in one step.
func IngestSpreadsheet(filename string, r io.Reader) ([]models.Server, SheetResult, error) {
	rows, err := ReadSpreadsheet(filename, r)
	if err != nil {
		return nil, SheetResult{}, err
	}
	return ParseSheet(rows)
}
