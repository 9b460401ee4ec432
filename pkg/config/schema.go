package config

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed analysis_options.schema.json
var analysisOptionsSchemaFS embed.FS

// ErrSchemaInvalid wraps a non-empty gojsonschema result into a single
// error, the same two-step validate-then-join idiom the teacher's own
// `cmd/uast/validate.go` uses for its UAST schema.
var ErrSchemaInvalid = errors.New("analysis options failed schema validation")

// validateAnalysisOptionsSchema checks raw (viper's AllSettings() map, not
// the typed AnalysisOptions struct) against analysis_options.schema.json
// before UnmarshalExact runs. Schema validation catches shape mistakes
// UnmarshalExact's exact-key check can't: a mistyped enum value like
// cache_strategy: "normal" (wrong case) unmarshals fine into a string
// field but fails Validate's map lookup with a bare "unknown cache
// strategy" error; the schema instead names the valid values up front.
func validateAnalysisOptionsSchema(raw map[string]any) error {
	schemaBytes, err := analysisOptionsSchemaFS.ReadFile("analysis_options.schema.json")
	if err != nil {
		return fmt.Errorf("read embedded schema: %w", err)
	}

	schemaLoader := gojsonschema.NewBytesLoader(schemaBytes)
	inputLoader := gojsonschema.NewGoLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, inputLoader)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}

	return fmt.Errorf("%w: %s", ErrSchemaInvalid, strings.Join(msgs, "; "))
}
