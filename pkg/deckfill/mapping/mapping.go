// Package mapping defines the report layout configuration: which input files
// feed which slide tables, and where each logical column lands in the
// template's grid. The mapping is data, not code - template changes only need
// a new mapping file.
package mapping

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MatchKind selects the filename resolution strategy for an input role.
type MatchKind string

const (
	// MatchExact requires filename equality.
	MatchExact MatchKind = "exact"
	// MatchSubstring requires a case-insensitive substring match. Used for
	// files whose names carry month-range tokens that vary monthly.
	MatchSubstring MatchKind = "substring"
	// MatchRegex matches the filename against a regular expression.
	MatchRegex MatchKind = "regex"
)

// InputSpec binds a logical file role to a filename resolution rule.
type InputSpec struct {
	// Role is the logical name targets refer to.
	Role string `yaml:"role"`
	// Match is the resolution strategy (exact, substring, regex).
	Match MatchKind `yaml:"match"`
	// Pattern is the filename, substring, or expression to match.
	Pattern string `yaml:"pattern"`
	// Required marks roles whose absence aborts the run. Reference-only
	// workbooks (chart sources embedded in the template) are not required.
	Required bool `yaml:"required"`
}

// SourceSpec describes how to read a target's rows out of its input file.
type SourceSpec struct {
	// Role names the input the rows come from.
	Role string `yaml:"role"`
	// Sheet is the sheet to read. Empty means the first sheet.
	Sheet string `yaml:"sheet"`
	// HeaderAnchor, when set, locates the header row by scanning for the
	// first row containing this cell text. When empty the first row is the
	// header.
	HeaderAnchor string `yaml:"header_anchor,omitempty"`
	// GroupBy, when set, switches the source into aggregation mode: rows are
	// grouped by this column, counted into the Count field, and sorted by
	// count descending.
	GroupBy string `yaml:"group_by,omitempty"`
	// MaxRows caps the dataset. Zero means no cap.
	MaxRows int `yaml:"max_rows"`
}

// ColumnSpec binds a logical field of the dataset to a template table column.
type ColumnSpec struct {
	// Field is the dataset field name. Aggregated sources expose the group
	// key column plus the synthetic Count field.
	Field string `yaml:"field"`
	// Col is the 0-based column index in the template table.
	Col int `yaml:"col"`
	// Kind controls display formatting of the written value.
	Kind ValueKind `yaml:"kind"`
}

// TargetSpec is one slide-table target: where a dataset lands in the deck.
type TargetSpec struct {
	// Role identifies the target in logs.
	Role string `yaml:"role"`
	// Source describes the rows to extract.
	Source SourceSpec `yaml:"source"`
	// Slide is the 0-based slide index in presentation order.
	Slide int `yaml:"slide"`
	// Table is the 0-based table index on the slide.
	Table int `yaml:"table"`
	// HeaderRows is the number of header rows to skip; the i-th record
	// lands at table row HeaderRows+i.
	HeaderRows int `yaml:"header_rows"`
	// Columns lists the field-to-column bindings.
	Columns []ColumnSpec `yaml:"columns"`
}

// Mapping is the full report layout: input roles plus slide-table targets.
type Mapping struct {
	Inputs  []InputSpec  `yaml:"inputs"`
	Targets []TargetSpec `yaml:"targets"`
}

// Input returns the input spec for a role.
func (m *Mapping) Input(role string) (InputSpec, bool) {
	for _, in := range m.Inputs {
		if in.Role == role {
			return in, true
		}
	}
	return InputSpec{}, false
}

// Fields returns the dataset field names a target's columns need.
func (t TargetSpec) Fields() []string {
	fields := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		fields[i] = c.Field
	}
	return fields
}

// Load reads a mapping from a YAML file and validates it.
func Load(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}
	var m Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse mapping %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("mapping %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks cross-references and strategy names.
func (m *Mapping) Validate() error {
	roles := make(map[string]bool, len(m.Inputs))
	for _, in := range m.Inputs {
		if in.Role == "" {
			return fmt.Errorf("input with empty role")
		}
		if roles[in.Role] {
			return fmt.Errorf("duplicate input role %q", in.Role)
		}
		roles[in.Role] = true
		switch in.Match {
		case MatchExact, MatchSubstring, MatchRegex:
		default:
			return fmt.Errorf("input %q: unknown match strategy %q", in.Role, in.Match)
		}
		if in.Pattern == "" {
			return fmt.Errorf("input %q: empty pattern", in.Role)
		}
	}
	for _, t := range m.Targets {
		if !roles[t.Source.Role] {
			return fmt.Errorf("target %q: unknown source role %q", t.Role, t.Source.Role)
		}
		if t.Slide < 0 || t.Table < 0 || t.HeaderRows < 0 {
			return fmt.Errorf("target %q: negative slide/table/header index", t.Role)
		}
		if len(t.Columns) == 0 {
			return fmt.Errorf("target %q: no columns", t.Role)
		}
		for _, c := range t.Columns {
			switch c.Kind {
			case KindText, KindPercent, KindInteger:
			default:
				return fmt.Errorf("target %q: column %q: unknown kind %q", t.Role, c.Field, c.Kind)
			}
		}
	}
	return nil
}
