package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed contracts/stats-record.schema.json
var statsRecordSchema []byte

//go:embed contracts/regression-notice.schema.json
var regressionNoticeSchema []byte

// ValidateStatsRecord validates raw per-module stats JSON against the
// stats-record contract.
func ValidateStatsRecord(raw []byte) error {
	return validateBytes(statsRecordSchema, raw)
}

// ValidateRegressionNotice validates a notice payload against the
// regression-notice contract.
func ValidateRegressionNotice(notice RegressionNotice) error {
	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return validateBytes(regressionNoticeSchema, payload)
}

// ValidateAgainstSchema validates an arbitrary payload against a JSON schema file.
func ValidateAgainstSchema(schemaPath string, payload interface{}) error {
	schemaBytes, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("read schema %s: %w", schemaPath, err)
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return validateBytes(schemaBytes, payloadBytes)
}

func validateBytes(schemaBytes []byte, payloadBytes []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewBytesLoader(payloadBytes),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if result.Valid() {
		return nil
	}

	errors := make([]string, 0, len(result.Errors()))
	for _, issue := range result.Errors() {
		errors = append(errors, issue.String())
	}
	return fmt.Errorf("payload failed schema validation: %s", strings.Join(errors, "; "))
}
