// Package importer turns comma-separated contact exports into import rows.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/plan8/plan8-contacts/internal/domain"

	"golang.org/x/text/unicode/norm"
)

// Field is a contact attribute a CSV column can be mapped to.
type Field string

const (
	FieldFirstName   Field = "firstName"
	FieldLastName    Field = "lastName"
	FieldEmail       Field = "email"
	FieldCompany     Field = "company"
	FieldPosition    Field = "position"
	FieldURL         Field = "url"
	FieldConnectedOn Field = "connectedOn"
)

// Mapping maps a field to the header of the column holding it.
type Mapping map[Field]string

// ErrNoEmailColumn is returned when no column is mapped to email.
var ErrNoEmailColumn = errors.New("importer: email column is not mapped")

// Record is one parsed row.
type Record struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Company     string `json:"company"`
	Position    string `json:"position"`
	URL         string `json:"url"`
	ConnectedOn string `json:"connected_on"`
}

func (r *Record) set(f Field, v string) {
	switch f {
	case FieldFirstName:
		r.FirstName = v
	case FieldLastName:
		r.LastName = v
	case FieldEmail:
		r.Email = v
	case FieldCompany:
		r.Company = v
	case FieldPosition:
		r.Position = v
	case FieldURL:
		r.URL = v
	case FieldConnectedOn:
		r.ConnectedOn = v
	}
}

func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(strings.ReplaceAll(s, `"`, "")))
}

// AutoMapping detects columns from their header names. When several headers
// match the same field the last one wins.
func AutoMapping(headers []string) Mapping {
	m := Mapping{}
	for _, h := range headers {
		lower := strings.ToLower(clean(h))
		switch {
		case strings.Contains(lower, "first") && strings.Contains(lower, "name"):
			m[FieldFirstName] = h
		case strings.Contains(lower, "last") && strings.Contains(lower, "name"):
			m[FieldLastName] = h
		case strings.Contains(lower, "email"):
			m[FieldEmail] = h
		case strings.Contains(lower, "company") || strings.Contains(lower, "företag"):
			m[FieldCompany] = h
		case strings.Contains(lower, "position"):
			m[FieldPosition] = h
		case strings.Contains(lower, "url"):
			m[FieldURL] = h
		case strings.Contains(lower, "connected"):
			m[FieldConnectedOn] = h
		}
	}
	return m
}

// Parse reads a header row followed by data rows. A nil mapping is detected
// with AutoMapping. Rows without an email, or with neither name after
// guessing from the email, are dropped.
func Parse(r io.Reader, m Mapping) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = clean(header[i])
	}
	if m == nil {
		m = AutoMapping(header)
	}

	index := make(map[Field]int, len(m))
	for field, name := range m {
		name = clean(name)
		if name == "" {
			continue
		}
		for i, h := range header {
			if h == name {
				index[field] = i
				break
			}
		}
	}
	if _, ok := index[FieldEmail]; !ok {
		return nil, ErrNoEmailColumn
	}

	records := []Record{}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		var rec Record
		for field, i := range index {
			if i < len(row) {
				rec.set(field, clean(row[i]))
			}
		}
		if rec.FirstName == "" && rec.LastName == "" && rec.Email != "" {
			rec.FirstName, rec.LastName = GuessNameFromEmail(rec.Email)
		}
		if rec.Email == "" || (rec.FirstName == "" && rec.LastName == "") {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// GuessNameFromEmail derives a name from the local part: "ada.lovelace@x"
// gives Ada Lovelace, anything without a dot becomes the first name.
func GuessNameFromEmail(email string) (first, last string) {
	at := strings.Index(email, "@")
	if at < 0 {
		return "", ""
	}
	local := strings.ToLower(email[:at])
	if parts := strings.Split(local, "."); len(parts) >= 2 {
		return capitalize(parts[0]), capitalize(parts[1])
	}
	return capitalize(local), ""
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// ToImportRows converts records for a generic CSV import.
func ToImportRows(recs []Record) []domain.ImportRow {
	rows := make([]domain.ImportRow, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, domain.ImportRow{
			FirstName: r.FirstName,
			LastName:  r.LastName,
			Email:     r.Email,
			Company:   r.Company,
		})
	}
	return rows
}

// ToLinkedInRows converts records from a LinkedIn connections export.
func ToLinkedInRows(recs []Record) []domain.LinkedInRow {
	rows := make([]domain.LinkedInRow, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, domain.LinkedInRow(r))
	}
	return rows
}
