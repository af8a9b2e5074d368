// Package roster reads attendee lists for batch rendering.
package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/youruser/lanyard/internal/identity"
)

// Attendee is one roster row.
type Attendee struct {
	Name    string
	Variant identity.Variant
}

// Identity returns the token identity of a.
func (a Attendee) Identity() identity.Identity {
	return identity.Identity{Username: a.Name, Variant: a.Variant}
}

// header aliases, lower-cased
var (
	nameColumns    = []string{"name", "username", "attendee"}
	variantColumns = []string{"variant", "theme"}
)

// LoadFile reads a roster CSV from path.
func LoadFile(path string) ([]Attendee, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	out, err := Load(fp)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return out, nil
}

// Load parses a roster CSV. The header must name a name column; the variant
// column is optional and empty cells mean dark. Blank names are skipped.
func Load(r io.Reader) ([]Attendee, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("csv has no header")
	}

	cols := map[string]int{}
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	find := func(names []string) int {
		for _, n := range names {
			if idx, ok := cols[n]; ok {
				return idx
			}
		}
		return -1
	}
	nameIdx, variantIdx := find(nameColumns), find(variantColumns)
	if nameIdx < 0 {
		return nil, fmt.Errorf("csv header has no name column")
	}

	get := func(row []string, idx int) string {
		if idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	out := []Attendee{}
	for i, row := range rows[1:] {
		name := get(row, nameIdx)
		if name == "" {
			continue
		}
		a := Attendee{Name: name, Variant: identity.Dark}
		if v := get(row, variantIdx); v != "" {
			variant, ok := identity.ParseVariant(strings.ToLower(v))
			if !ok {
				return nil, fmt.Errorf("line %d: variant %q is not dark or light", i+2, v)
			}
			a.Variant = variant
		}
		out = append(out, a)
	}
	return out, nil
}
