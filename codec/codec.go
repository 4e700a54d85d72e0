// Package codec turns messages into the text handed to a transport and back.
//
// The JSON-RPC wire format is fixed, so the only implementation is JSONCodec;
// the interface exists so a connection can be given a differently configured one.
package codec

type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	Name() string
}

// Default returns the codec used when none is configured: JSON without HTML escaping.
func Default() Codec {
	return &JSONCodec{}
}
