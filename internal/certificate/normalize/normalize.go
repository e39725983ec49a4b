// Package normalize maps roster rows with arbitrary column headers onto the
// canonical certificate record.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"certgen/internal/catalog"
	"certgen/internal/certificate/models"
)

// RawRow is one untrusted input row keyed by its original column header.
type RawRow = models.RawRow

type rule struct {
	field   models.CanonicalField
	headers []string
}

// Normalizer applies a fixed alias table. It is immutable and safe for
// concurrent use.
type Normalizer struct {
	rules []rule
}

// New builds a Normalizer from alias rules. Rules naming unknown fields are
// rejected; canonical fields without a rule are always absent.
func New(aliases []catalog.AliasRule) (*Normalizer, error) {
	seen := make(map[models.CanonicalField]bool, len(aliases))
	rules := make([]rule, 0, len(aliases))
	for _, a := range aliases {
		f, ok := models.ParseCanonicalField(a.Field)
		if !ok {
			return nil, fmt.Errorf("alias rule for unknown field %q", a.Field)
		}
		if seen[f] {
			return nil, fmt.Errorf("duplicate alias rule for field %q", a.Field)
		}
		seen[f] = true
		rules = append(rules, rule{field: f, headers: append([]string(nil), a.Headers...)})
	}
	return &Normalizer{rules: rules}, nil
}

// Normalize maps row onto a NormalizedRecord. It never fails: missing
// headers, empty cells and unparsable dates all become absent fields.
func (n *Normalizer) Normalize(row RawRow) models.NormalizedRecord {
	var rec models.NormalizedRecord
	for _, r := range n.rules {
		raw, ok := lookup(row, r.headers)
		if !ok {
			continue
		}
		v := clean(raw)
		if r.field.IsDate() {
			v = normalizeDate(v)
		}
		rec.Set(r.field, v)
	}
	return rec
}

// NormalizeAll normalizes rows in input order.
func (n *Normalizer) NormalizeAll(rows []RawRow) []models.NormalizedRecord {
	out := make([]models.NormalizedRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, n.Normalize(row))
	}
	return out
}

// lookup returns the value under the first header present in row.
func lookup(row RawRow, headers []string) (any, bool) {
	for _, h := range headers {
		if v, ok := row[h]; ok {
			return v, true
		}
	}
	return nil, false
}

func clean(v any) models.Field {
	switch t := v.(type) {
	case nil:
		return models.Absent()
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return models.Absent()
		}
		return models.Present(s)
	default:
		return models.Present(v)
	}
}

func normalizeDate(f models.Field) models.Field {
	if !f.IsPresent() {
		return f
	}
	switch v := f.Value().(type) {
	case time.Time:
		if v.IsZero() {
			return models.Absent()
		}
		return models.Present(v.Format(models.DateLayout))
	case string:
		t, ok := ParseDate(v)
		if !ok {
			return models.Absent()
		}
		return models.Present(t.Format(models.DateLayout))
	default:
		return models.Absent()
	}
}
