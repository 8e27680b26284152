// Package dictionary loads the data dictionary of the surveillance table and
// renders the column hints handed to the query translator.
package dictionary

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Field describes one column of the surveillance table.
type Field struct {
	Name         string `json:"field_name" mapstructure:"field_name"`
	Description  string `json:"full_description" mapstructure:"full_description"`
	Type         string `json:"type,omitempty" mapstructure:"type"`
	ValueOptions string `json:"value_options,omitempty" mapstructure:"value_options"`
}

// Option is one coded value of a categorical column.
type Option struct {
	Value string
	Label string
}

// Dictionary indexes fields by name, keeping file order.
type Dictionary struct {
	fields []Field
	index  map[string]int
}

// HintFields are the columns described to the translator by default.
var HintFields = []string{"CS_SEXO"}

// FallbackHint is used when the dictionary is unavailable.
const FallbackHint = "Coluna CS_SEXO: valores possíveis: 1=Male, 2=Female, 9=Ignored."

// Load reads a JSON dictionary file.
func Load(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data dictionary: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a JSON array of field records. Unknown keys are ignored and
// scalar values are coerced to strings.
func Parse(r io.Reader) (*Dictionary, error) {
	var raw []map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse data dictionary: %w", err)
	}

	var fields []Field
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &fields,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode data dictionary: %w", err)
	}

	return New(fields), nil
}

// New builds a dictionary from fields. Later duplicates are ignored.
func New(fields []Field) *Dictionary {
	d := &Dictionary{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		if f.Name == "" {
			continue
		}
		if _, dup := d.index[f.Name]; dup {
			continue
		}
		d.index[f.Name] = len(d.fields)
		d.fields = append(d.fields, f)
	}
	return d
}

// Fields returns every field in file order.
func (d *Dictionary) Fields() []Field {
	return append([]Field(nil), d.fields...)
}

// Field looks a column up by name.
func (d *Dictionary) Field(name string) (Field, bool) {
	i, ok := d.index[name]
	if !ok {
		return Field{}, false
	}
	return d.fields[i], true
}

// Options returns the coded values of a column, or nil when it has none.
func (d *Dictionary) Options(name string) []Option {
	f, ok := d.Field(name)
	if !ok {
		return nil
	}
	return ParseOptions(f.ValueOptions)
}

// ParseOptions splits "1-Masculino, 2-Feminino" into options. An entry
// without a dash is its own label. "N/A" and empty text mean no options.
func ParseOptions(text string) []Option {
	text = strings.TrimSpace(text)
	if text == "" || text == "N/A" {
		return nil
	}

	var out []Option
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if k, v, ok := strings.Cut(part, "-"); ok {
			out = append(out, Option{Value: strings.TrimSpace(k), Label: strings.TrimSpace(v)})
			continue
		}
		out = append(out, Option{Value: part, Label: part})
	}
	return out
}

// SchemaHint renders one line per named column that has coded values.
// With no names, HintFields are used.
func (d *Dictionary) SchemaHint(names ...string) string {
	if len(names) == 0 {
		names = HintFields
	}

	var b strings.Builder
	for _, name := range names {
		opts := d.Options(name)
		if len(opts) == 0 {
			continue
		}
		pairs := make([]string, 0, len(opts))
		for _, o := range opts {
			pairs = append(pairs, o.Value+"="+o.Label)
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "Coluna %s: valores possíveis: %s.", name, strings.Join(pairs, ", "))
	}

	if b.Len() == 0 {
		return FallbackHint
	}
	return b.String()
}
