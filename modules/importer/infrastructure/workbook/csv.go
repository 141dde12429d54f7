package workbook

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/iota-uz/workbook-import/pkg/coerce"
)

// ReadCSV reads path as CSV. UTF-8 (with or without BOM) and UTF-16 with a
// BOM are decoded as such; anything else that is not valid UTF-8 is treated
// as Windows-1252.
func ReadCSV(path string) ([]coerce.Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", filepath.Base(path))
	}
	rows, err := DecodeCSV(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", filepath.Base(path))
	}
	return rows, nil
}

func DecodeCSV(data []byte) ([]coerce.Row, error) {
	r := csv.NewReader(decodingReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var out []coerce.Row
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(coerce.Row, len(record))
		for i, v := range record {
			row[i] = v
		}
		out = append(out, row)
	}
	return out, nil
}

var (
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
)

func decodingReader(data []byte) io.Reader {
	src := bytes.NewReader(data)
	switch {
	case bytes.HasPrefix(data, bomUTF8), bytes.HasPrefix(data, bomUTF16LE), bytes.HasPrefix(data, bomUTF16BE):
		return transform.NewReader(src, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	case utf8.Valid(data):
		return src
	default:
		return transform.NewReader(src, charmap.Windows1252.NewDecoder())
	}
}
