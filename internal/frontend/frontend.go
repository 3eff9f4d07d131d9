// Package frontend hosts the per-format parsers that turn input documents
// into raw schema nodes. Front-ends stay thin: they carry no typing logic
// beyond mapping format keywords onto rawnode fields.
package frontend

import (
	"fmt"
	"strings"

	"github.com/typeforge/typeforge/internal/rawnode"
)

// Format tags an input document's syntax.
type Format string

const (
	FormatAuto       Format = ""
	FormatJSONSchema Format = "jsonschema"
	FormatOpenAPI    Format = "openapi"
	FormatGraphQL    Format = "graphql"
	FormatSample     Format = "sample" // infer a schema from example data
)

// Detect guesses the format from the document identity and content. An
// explicit tag always wins; Detect is the fallback for FormatAuto.
func Detect(docID string, data []byte) Format {
	lower := strings.ToLower(docID)
	switch {
	case strings.HasSuffix(lower, ".graphql"), strings.HasSuffix(lower, ".gql"):
		return FormatGraphQL
	}
	head := data
	if len(head) > 4096 {
		head = head[:4096]
	}
	text := string(head)
	if strings.Contains(text, "openapi:") || strings.Contains(text, `"openapi"`) ||
		strings.Contains(text, "swagger:") || strings.Contains(text, `"swagger"`) {
		return FormatOpenAPI
	}
	for _, kw := range []string{"$schema", "$defs", "definitions", `"type"`, "properties"} {
		if strings.Contains(text, kw) {
			return FormatJSONSchema
		}
	}
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "type ") || strings.HasPrefix(trimmed, "schema ") ||
		strings.HasPrefix(trimmed, "input ") || strings.HasPrefix(trimmed, "enum ") {
		return FormatGraphQL
	}
	return FormatSample
}

// Parse dispatches a document to its front-end and returns the ingested
// raw document.
func Parse(docID string, data []byte, format Format) (*rawnode.Document, error) {
	if format == FormatAuto {
		format = Detect(docID, data)
	}
	switch format {
	case FormatJSONSchema:
		return ParseJSONSchema(docID, data)
	case FormatOpenAPI:
		return ParseOpenAPI(docID, data)
	case FormatGraphQL:
		return ParseGraphQL(docID, data)
	case FormatSample:
		return ParseSample(docID, data)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// decodeStructured decodes JSON or YAML bytes into an ordered value,
// preferring JSON when the content starts like it.
func decodeStructured(data []byte) (Value, error) {
	trimmed := strings.TrimLeft(string(data), " \t\r\n")
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return DecodeJSON(data)
	}
	return DecodeYAML(data)
}
