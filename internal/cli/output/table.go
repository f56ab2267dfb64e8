package output

import (
	"fmt"
	"io"
	"reflect"
	"strings"
	"text/tabwriter"
	"time"
)

// TableFormatter formats data as aligned columns.
type TableFormatter struct {
	NoHeaders bool
}

// Format formats data as a table.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}
	if t, ok := data.(*Table); ok {
		return t.render(w, f.NoHeaders)
	}

	t, ok := toTable(reflect.ValueOf(data))
	if !ok {
		return (&YAMLFormatter{}).Format(w, data)
	}
	return t.render(w, f.NoHeaders)
}

// Table is tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Render writes the table with headers.
func (t *Table) Render(w io.Writer) error {
	return t.render(w, false)
}

func (t *Table) render(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !noHeaders && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func toTable(v reflect.Value) (*Table, bool) {
	v = deref(v)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		elem := v.Type().Elem()
		if elem.Kind() == reflect.Ptr {
			elem = elem.Elem()
		}
		if elem.Kind() != reflect.Struct {
			return nil, false
		}
		fields := columns(elem)
		t := &Table{}
		for _, f := range fields {
			t.Headers = append(t.Headers, strings.ToUpper(f.name))
		}
		for i := 0; i < v.Len(); i++ {
			row := deref(v.Index(i))
			cells := make([]string, len(fields))
			for j, f := range fields {
				if row.IsValid() {
					cells[j] = formatValue(row.Field(f.index))
				}
			}
			t.Rows = append(t.Rows, cells)
		}
		return t, true

	case reflect.Struct:
		t := &Table{Headers: []string{"FIELD", "VALUE"}}
		for _, f := range columns(v.Type()) {
			t.AddRow(f.name, formatValue(v.Field(f.index)))
		}
		return t, true
	}
	return nil, false
}

type column struct {
	name  string
	index int
}

// columns lists the exported fields of a struct type, named by their json
// tag. Fields tagged json:"-" are skipped.
func columns(t reflect.Type) []column {
	var out []column
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, _, _ := strings.Cut(f.Tag.Get("json"), ","); tag == "-" {
			continue
		} else if tag != "" {
			name = tag
		}
		out = append(out, column{name: name, index: i})
	}
	return out
}

func deref(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

var timeType = reflect.TypeOf(time.Time{})

func formatValue(v reflect.Value) string {
	v = deref(v)
	if !v.IsValid() {
		return "-"
	}
	if v.Type() == timeType {
		t := v.Interface().(time.Time)
		if t.IsZero() {
			return "-"
		}
		return t.Format("2006-01-02 15:04")
	}

	switch v.Kind() {
	case reflect.String:
		if v.Len() == 0 {
			return "-"
		}
		return v.String()
	case reflect.Slice, reflect.Array, reflect.Map:
		if v.Len() == 0 {
			return "-"
		}
		return fmt.Sprintf("%v", v.Interface())
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}
