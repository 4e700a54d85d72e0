package message

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// responseSchema describes the envelope of a single response. Presence rules
// between result, error and the error members are left to BuildResponse and
// BuildError so that their messages stay specific.
const responseSchema = `{
	"type": "object",
	"required": ["jsonrpc", "id"],
	"properties": {
		"jsonrpc": {"enum": ["2.0"]},
		"id": {"type": ["integer", "null"]},
		"error": {
			"type": ["object", "null"],
			"properties": {
				"code": {"type": "integer"},
				"message": {"type": "string"}
			}
		}
	}
}`

var responseEnvelope = mustSchema(responseSchema)

func mustSchema(schema string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic("message: invalid schema: " + err.Error())
	}
	return s
}

// validateEnvelope checks one reply element against responseSchema.
func validateEnvelope(data []byte) error {
	result, err := responseEnvelope.Validate(gojsonschema.NewStringLoader(string(data)))
	if err != nil {
		return &ResponseError{Msg: "response is not valid json", Err: err}
	}
	if !result.Valid() {
		var errMsgs []string
		for _, desc := range result.Errors() {
			errMsgs = append(errMsgs, desc.String())
		}
		return NewResponseError("invalid response: %s", strings.Join(errMsgs, "; "))
	}
	return nil
}
