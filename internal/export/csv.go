// Package export renders lead collections as CSV and reads them back.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shpitdev/leadfinder/internal/lead"
)

// Header is the fixed CSV header, in column order.
func Header() []string {
	return []string{"Name", "Category", "Keywords", "Email", "Phone", "Website", "Address", "Maps Link"}
}

// Filename returns the download name for an export taken at now.
func Filename(now time.Time) string {
	return fmt.Sprintf("leads_export_%d.csv", now.UnixMilli())
}

// Render returns the CSV document for leads. The header is written bare; every
// data field is wrapped in double quotes with inner quotes doubled. Rows are
// separated by a single "\n" with no trailing newline.
func Render(leads []lead.Lead) string {
	var b strings.Builder
	b.WriteString(strings.Join(Header(), ","))
	for _, l := range leads {
		b.WriteByte('\n')
		for i, v := range fields(l) {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(v, `"`, `""`))
			b.WriteByte('"')
		}
	}
	return b.String()
}

// WriteCSV writes Render(leads) to w.
func WriteCSV(w io.Writer, leads []lead.Lead) error {
	_, err := io.WriteString(w, Render(leads))
	return err
}

func fields(l lead.Lead) []string {
	return []string{l.Name, l.Category, l.Keywords, l.Email, l.Phone, l.Website, l.Address, l.MapsLink}
}

// ReadCSV reads leads from a CSV with the Header() columns. Columns are
// matched case-insensitively; only "Name" is required and extra columns are
// ignored. Every lead gets a fresh ID.
func ReadCSV(r io.Reader) ([]lead.Lead, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := index["name"]; !ok {
		return nil, fmt.Errorf("missing required column %q", "Name")
	}

	var leads []lead.Lead
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return leads, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		name := get("name")
		if name == "" {
			continue
		}
		leads = append(leads, lead.Lead{
			ID:       uuid.NewString(),
			Name:     name,
			Category: get("category"),
			Keywords: get("keywords"),
			Email:    get("email"),
			Phone:    get("phone"),
			Website:  get("website"),
			Address:  get("address"),
			MapsLink: get("maps link"),
		})
	}
}
