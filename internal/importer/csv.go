package importer

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/sells-group/buyer-dedupe/internal/model"
)

// ReadCSV decodes buyers from CSV. A UTF-8 or UTF-16 byte order mark is
// honored and stripped.
func ReadCSV(r io.Reader) ([]model.Buyer, error) {
	reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	buyers, err := decode(reader)
	return buyers, eris.Wrap(err, "importer: csv")
}

// ReadCSVFile opens path and calls ReadCSV.
func ReadCSVFile(path string) ([]model.Buyer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open csv")
	}
	defer f.Close() //nolint:errcheck
	return ReadCSV(f)
}
