package tabular

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func requireInputError(t *testing.T, err error, reason string) *InputError {
	t.Helper()
	var ie *InputError
	require.True(t, errors.As(err, &ie), "expected *InputError, got %T: %v", err, err)
	require.Equal(t, reason, ie.Reason)
	return ie
}

func TestLoad_CSVCaseInsensitiveHeader(t *testing.T) {
	p := writeFile(t, "in.csv", " email ,NAME,Extra\na@x.com,Alice,1\n,,\nb@x.com,Bob\n")

	rows, err := Load(p, []string{"Email"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Equal(t, 2, rows[0].Line)
	require.Equal(t, "a@x.com", rows[0].Get("Email"))
	require.Equal(t, "Alice", rows[0].Get("name"))

	require.Equal(t, 4, rows[1].Line)
	require.Equal(t, "Bob", rows[1].Get("Name"))
	require.Equal(t, "", rows[1].Get("Extra"))
	require.True(t, rows[1].Has("extra"))
	require.False(t, rows[1].Has("GroupId"))
}

func TestLoad_StripsUTF8BOM(t *testing.T) {
	p := writeFile(t, "bom.csv", "\xEF\xBB\xBFEmail\na@x.com\n")

	rows, err := Load(p, []string{"Email"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "a@x.com", rows[0].Get("Email"))
}

func TestLoad_DecodesUTF16WithBOM(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	content, err := enc.String("\"Email\",\"DisplayName\"\r\n\"zoë@x.com\",\"Zoë\"\r\n")
	require.NoError(t, err)
	p := writeFile(t, "ps.csv", content)

	rows, err := Load(p, []string{"Email"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "zoë@x.com", rows[0].Get("Email"))
	require.Equal(t, "Zoë", rows[0].Get("DisplayName"))
}

func TestLoad_InputErrors(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		name   string
		path   string
		reason string
	}{
		{name: "missing", path: filepath.Join(dir, "nope.csv"), reason: "file not found"},
		{name: "directory", path: dir, reason: "is a directory"},
		{name: "zero bytes", path: writeFile(t, "empty.csv", ""), reason: "file is empty"},
		{name: "header only", path: writeFile(t, "header.csv", "Email,Name\n"), reason: "no data rows"},
		{name: "blank rows only", path: writeFile(t, "blank.csv", "Email\n\n , \n"), reason: "no data rows"},
		{name: "blank header", path: writeFile(t, "blankhdr.csv", " , \na@x.com\n"), reason: "missing header row"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(tc.path, []string{"Email"})
			requireInputError(t, err, tc.reason)
		})
	}
}

func TestLoad_MissingRequiredColumns(t *testing.T) {
	p := writeFile(t, "in.csv", "DisplayName\nA\n")

	_, err := Load(p, []string{"UserPrincipalName", "DisplayName"})
	ie := requireInputError(t, err, "missing required columns")
	require.Equal(t, []string{"UserPrincipalName"}, ie.Missing)
	require.Contains(t, ie.Error(), "UserPrincipalName")
}

func TestLoad_XLSXFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "UserPrincipalName"))
	require.NoError(t, f.SetCellValue(sheet, "B1", "DisplayName"))
	require.NoError(t, f.SetCellValue(sheet, "A2", "a@x.com"))
	require.NoError(t, f.SetCellValue(sheet, "B2", "A"))
	require.NoError(t, f.SetCellValue(sheet, "A4", "b@x.com"))

	p := filepath.Join(t.TempDir(), "users.xlsx")
	require.NoError(t, f.SaveAs(p))
	require.NoError(t, f.Close())

	rows, err := Load(p, []string{"UserPrincipalName", "DisplayName"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "a@x.com", rows[0].Get("userprincipalname"))
	require.Equal(t, "A", rows[0].Get("DisplayName"))
	require.Equal(t, 4, rows[1].Line)
	require.Equal(t, "", rows[1].Get("DisplayName"))
}

func TestWriteCSV_CreatesParentAndQuotes(t *testing.T) {
	p := filepath.Join(t.TempDir(), "logs", "out.csv")

	err := WriteCSV(p, []string{"Email", "Error"}, [][]string{
		{"a@x.com", `bad "quote", comma`},
	})
	require.NoError(t, err)

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	require.Equal(t, "Email,Error\na@x.com,\"bad \"\"quote\"\", comma\"\n", string(b))
}

func TestNewRow_GetIgnoresCase(t *testing.T) {
	r := NewRow(7, map[string]string{"GroupId": "g1"})
	require.Equal(t, 7, r.Line)
	require.Equal(t, "g1", r.Get("groupid"))
	require.Equal(t, "", r.Get("Email"))
}

func TestLoad_MissingColumnSuggestion(t *testing.T) {
	p := writeFile(t, "in.csv", "E-mail,Display Name\na@x.com,A\n")

	_, err := Load(p, []string{"Email"})
	ie := requireInputError(t, err, "missing required columns")
	require.Equal(t, map[string]string{"Email": "E-mail"}, ie.Suggestions)
	require.Contains(t, ie.Error(), `did you mean "E-mail"`)
}
