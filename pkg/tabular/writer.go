package tabular

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// WriteCSV renders header and records in memory and writes the file once.
func WriteCSV(path string, header []string, records [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return errors.Wrap(err, "write header")
	}
	if err := w.WriteAll(records); err != nil {
		return errors.Wrap(err, "write records")
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}
