package runtime

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aretw0/srag/pkg/ports"
)

// RenderRows produces the canonical text of a row set: a JSON array of
// objects with keys in lexical order. An empty or nil set renders as "[]".
// Markup characters in values are kept as they are.
func RenderRows(rows []ports.Row) string {
	if len(rows) == 0 {
		return "[]"
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rows); err != nil {
		return fmt.Sprintf("%v", rows)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}
