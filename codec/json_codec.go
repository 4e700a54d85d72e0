package codec

import (
	"bytes"
	"encoding/json"
)

// JSONCodec uses Go's standard library encoding/json for serialization.
// Output is compact and carries no trailing newline.
type JSONCodec struct {
	// EscapeHTML escapes <, > and & inside strings, as json.Marshal does.
	EscapeHTML bool
}

func (c *JSONCodec) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(c.EscapeHTML)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (c *JSONCodec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (c *JSONCodec) Name() string {
	return "json"
}
