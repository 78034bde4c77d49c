package domain

import "encoding/json"

// FieldKind tags the variant of a candidate profile field. The value shape
// of a field is part of its kind.
type FieldKind string

const (
	FieldKindSingleLine FieldKind = "single_line"
	FieldKindDropdown   FieldKind = "dropdown"
	FieldKindBoolean    FieldKind = "boolean"
)

// CandidateField is a polymorphic named custom attribute on a candidate.
// Identity is (name, kind, id); ID stays nil until the field has been
// persisted once, and create-vs-update branches on exactly that.
//
// Values stays raw JSON until a kind-specific accessor decodes it, which
// replaces the runtime type assertions the external API's shape invites.
type CandidateField struct {
	ID      *int64           `json:"id"`
	Name    string           `json:"name"`
	Kind    FieldKind        `json:"kind"`
	Values  json.RawMessage  `json:"values,omitempty"`
	Options *DropdownOptions `json:"options,omitempty"`
}

type SingleLineValue struct {
	Text string `json:"text"`
}

type DropdownValue struct {
	Value string `json:"value"`
}

type BooleanValue struct {
	Flag bool `json:"flag"`
}

// DropdownOptions is the complete set of allowed dropdown values. Writes to
// dropdown fields must carry it in full; the hiring-pipeline API rejects
// payloads that omit it.
type DropdownOptions struct {
	Values []string `json:"values"`
}

// SingleLineValues decodes the field's values as single-line texts. The
// second return is false when the field is not a single-line field.
func (f *CandidateField) SingleLineValues() ([]string, bool) {
	if f == nil || f.Kind != FieldKindSingleLine {
		return nil, false
	}
	var values []SingleLineValue
	if len(f.Values) > 0 {
		if err := json.Unmarshal(f.Values, &values); err != nil {
			return nil, false
		}
	}
	texts := make([]string, 0, len(values))
	for _, v := range values {
		texts = append(texts, v.Text)
	}
	return texts, true
}

// DropdownValues decodes the field's values as dropdown selections.
func (f *CandidateField) DropdownValues() ([]string, bool) {
	if f == nil || f.Kind != FieldKindDropdown {
		return nil, false
	}
	var values []DropdownValue
	if len(f.Values) > 0 {
		if err := json.Unmarshal(f.Values, &values); err != nil {
			return nil, false
		}
	}
	selections := make([]string, 0, len(values))
	for _, v := range values {
		selections = append(selections, v.Value)
	}
	return selections, true
}

// BooleanValues decodes the field's values as boolean flags.
func (f *CandidateField) BooleanValues() ([]bool, bool) {
	if f == nil || f.Kind != FieldKindBoolean {
		return nil, false
	}
	var values []BooleanValue
	if len(f.Values) > 0 {
		if err := json.Unmarshal(f.Values, &values); err != nil {
			return nil, false
		}
	}
	flags := make([]bool, 0, len(values))
	for _, v := range values {
		flags = append(flags, v.Flag)
	}
	return flags, true
}

// FirstSingleLineValue is the common "first value or absent" lookup used all
// over field resolution.
func (f *CandidateField) FirstSingleLineValue() (string, bool) {
	values, ok := f.SingleLineValues()
	if !ok || len(values) == 0 || values[0] == "" {
		return "", false
	}
	return values[0], true
}
