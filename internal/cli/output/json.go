package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter writes one indented JSON document per call. Visibility
// expressions such as A&(B|C) are written as typed, without HTML escaping.
type JSONFormatter struct{}

// Format encodes data followed by a newline.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
