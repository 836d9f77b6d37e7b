// Package importer reads buyer rows from CSV and XLSX spreadsheets.
//
// Header names are matched case-insensitively after trimming, and common
// aliases ("E-mail", "Company", "Property Types") map onto buyer fields.
// Unrecognized columns are ignored.
package importer

import (
	"io"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/sells-group/buyer-dedupe/internal/model"
)

// Options configures spreadsheet reading.
type Options struct {
	Sheet string // XLSX sheet name; first sheet when empty
}

// row is the decoded form of one spreadsheet line. Lists and budgets stay
// raw until toBuyer parses them.
type row struct {
	ID            string `csv:"id"`
	Name          string `csv:"name"`
	Email         string `csv:"email"`
	Phone         string `csv:"phone"`
	CompanyName   string `csv:"company_name"`
	City          string `csv:"city"`
	State         string `csv:"state"`
	Markets       string `csv:"markets"`
	PropertyTypes string `csv:"property_types"`
	Strategies    string `csv:"strategies"`
	MinBudget     string `csv:"min_budget"`
	MaxBudget     string `csv:"max_budget"`
	Notes         string `csv:"notes"`
	Source        string `csv:"source"`
	Tags          string `csv:"tags"`
	Priority      string `csv:"priority"`
}

var headerAliases = map[string]string{
	"id":             "id",
	"buyer id":       "id",
	"name":           "name",
	"full name":      "name",
	"buyer name":     "name",
	"contact":        "name",
	"email":          "email",
	"e-mail":         "email",
	"email address":  "email",
	"phone":          "phone",
	"phone number":   "phone",
	"mobile":         "phone",
	"cell":           "phone",
	"company":        "company_name",
	"company name":   "company_name",
	"company_name":   "company_name",
	"city":           "city",
	"state":          "state",
	"markets":        "markets",
	"market":         "markets",
	"property types": "property_types",
	"property_types": "property_types",
	"property type":  "property_types",
	"strategies":     "strategies",
	"strategy":       "strategies",
	"min budget":     "min_budget",
	"min_budget":     "min_budget",
	"max budget":     "max_budget",
	"max_budget":     "max_budget",
	"notes":          "notes",
	"source":         "source",
	"lead source":    "source",
	"tags":           "tags",
	"priority":       "priority",
}

// Read dispatches on the file extension.
func Read(path string, opts Options) ([]model.Buyer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return ReadCSVFile(path)
	case ".xlsx":
		return ReadXLSX(path, opts)
	default:
		return nil, eris.Errorf("importer: unsupported file type %q", filepath.Ext(path))
	}
}

// recordReader is the row source csvutil decodes from.
type recordReader interface {
	Read() ([]string, error)
}

// decode reads the header from r, maps it onto buyer columns and decodes the
// remaining records.
func decode(r recordReader) ([]model.Buyer, error) {
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "importer: read header")
	}

	dec, err := csvutil.NewDecoder(&fixedWidthReader{src: r, width: len(header)}, canonicalHeader(header)...)
	if err != nil {
		return nil, eris.Wrap(err, "importer: new decoder")
	}

	var buyers []model.Buyer
	for line := 2; ; line++ {
		var rw row
		if err := dec.Decode(&rw); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrapf(err, "importer: decode line %d", line)
		}
		if rw.empty() {
			continue
		}
		b, err := rw.toBuyer()
		if err != nil {
			return nil, eris.Wrapf(err, "importer: line %d", line)
		}
		buyers = append(buyers, b)
	}
	return buyers, nil
}

// fixedWidthReader pads short records and trims long ones to the header
// width. Spreadsheets routinely drop trailing blank cells.
type fixedWidthReader struct {
	src   recordReader
	width int
}

func (f *fixedWidthReader) Read() ([]string, error) {
	rec, err := f.src.Read()
	if err != nil {
		return nil, err
	}
	switch {
	case len(rec) > f.width:
		rec = rec[:f.width]
	case len(rec) < f.width:
		padded := make([]string, f.width)
		copy(padded, rec)
		rec = padded
	}
	return rec, nil
}

// canonicalHeader rewrites header cells to row's csv tags. Unknown and
// repeated columns get unique placeholder names so the decoder skips them.
func canonicalHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		name, ok := headerAliases[key]
		if !ok || seen[name] {
			out[i] = "_unused_" + strconv.Itoa(i)
			continue
		}
		seen[name] = true
		out[i] = name
	}
	return out
}

func (r row) empty() bool {
	return strings.TrimSpace(r.ID+r.Name+r.Email+r.Phone+r.CompanyName) == ""
}

func (r row) toBuyer() (model.Buyer, error) {
	minBudget, err := parseBudget(r.MinBudget)
	if err != nil {
		return model.Buyer{}, eris.Wrap(err, "min_budget")
	}
	maxBudget, err := parseBudget(r.MaxBudget)
	if err != nil {
		return model.Buyer{}, eris.Wrap(err, "max_budget")
	}

	return model.Buyer{
		ID:            strings.TrimSpace(r.ID),
		Name:          strings.TrimSpace(r.Name),
		Email:         strings.TrimSpace(r.Email),
		Phone:         strings.TrimSpace(r.Phone),
		CompanyName:   strings.TrimSpace(r.CompanyName),
		City:          strings.TrimSpace(r.City),
		State:         strings.TrimSpace(r.State),
		Markets:       splitList(r.Markets),
		PropertyTypes: splitList(r.PropertyTypes),
		Strategies:    splitList(r.Strategies),
		MinBudget:     minBudget,
		MaxBudget:     maxBudget,
		Notes:         strings.TrimSpace(r.Notes),
		Source:        strings.TrimSpace(r.Source),
		Tags:          splitList(r.Tags),
		Priority:      strings.ToUpper(strings.TrimSpace(r.Priority)),
	}, nil
}

var listSep = regexp.MustCompile(`[;,|]`)

// splitList splits on ';', ',' or '|' and drops blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range listSep.Split(s, -1) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var budgetSuffix = map[byte]int64{'k': 1_000, 'm': 1_000_000}

// parseBudget accepts plain integers and values like "$250,000", "250k" or
// "1.5M", rounded to whole dollars. Blank means absent. NaN, infinities,
// negative amounts and values beyond int64 are rejected.
func parseBudget(s string) (*int64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if s == "" {
		return nil, nil
	}

	mult := int64(1)
	if m, ok := budgetSuffix[s[len(s)-1]]; ok {
		mult = m
		s = s[:len(s)-1]
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, eris.Errorf("invalid budget %q", s)
	}
	f = math.Round(f * float64(mult))
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f >= math.MaxInt64 {
		return nil, eris.Errorf("invalid budget %q", s)
	}
	v := int64(f)
	return &v, nil
}
