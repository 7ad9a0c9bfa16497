package tabular

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Load reads path into rows after checking that every required column is in
// the header. .xlsx files are read from their first sheet, anything else is
// parsed as CSV.
func Load(path string, required []string) ([]RawRow, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, inputError(path, "file not found", nil)
		}
		return nil, inputError(path, "cannot stat file", err)
	}
	if info.IsDir() {
		return nil, inputError(path, "is a directory", nil)
	}
	if info.Size() == 0 {
		return nil, inputError(path, "file is empty", nil)
	}

	var records [][]string
	if isWorkbook(path) {
		records, err = readXLSX(path)
	} else {
		records, err = readCSV(path)
	}
	if err != nil {
		var ie *InputError
		if errors.As(err, &ie) {
			return nil, ie
		}
		return nil, inputError(path, "cannot read file", err)
	}
	return buildRows(path, records, required)
}

// isWorkbook trusts the .xlsx extension and otherwise sniffs the content, so a
// workbook saved under another name is still read as one.
func isWorkbook(path string) bool {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return true
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return false
	}
	return mt.Is(xlsxMIME)
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	// BOMOverride switches to UTF-16 when a UTF-16 BOM is present and drops a UTF-8 BOM.
	dec := transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	r := csv.NewReader(bufio.NewReader(dec))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "parse csv")
		}
		records = append(records, rec)
	}
	return records, nil
}

func buildRows(path string, records [][]string, required []string) ([]RawRow, error) {
	if len(records) == 0 || blank(records[0]) {
		return nil, inputError(path, "missing header row", nil)
	}
	header := make([]string, len(records[0]))
	present := make(map[string]struct{}, len(header))
	for i, h := range records[0] {
		h = strings.TrimSpace(h)
		if !utf8.ValidString(h) {
			return nil, inputError(path, "invalid header encoding", nil)
		}
		header[i] = h
		present[columnKey(h)] = struct{}{}
	}

	var missing []string
	for _, col := range required {
		if _, ok := present[columnKey(col)]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &InputError{
			Path:        path,
			Reason:      "missing required columns",
			Missing:     missing,
			Suggestions: suggestColumns(missing, header),
		}
	}

	rows := make([]RawRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		rows = append(rows, rowFromRecord(i+2, header, rec))
	}
	if len(rows) == 0 {
		return nil, inputError(path, "no data rows", nil)
	}
	return rows, nil
}
