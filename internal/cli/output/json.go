package output

import (
	"encoding/json"
	"io"
	"reflect"
)

// JSONFormatter writes indented JSON for scripts.
//
// HTML is not escaped, so message templates and deep link query strings
// print as configured. A nil slice prints as [] so an empty listing is
// still an array.
type JSONFormatter struct{}

// Format writes data as one indented JSON document.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	if v := reflect.ValueOf(data); v.Kind() == reflect.Slice && v.IsNil() {
		data = []any{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
