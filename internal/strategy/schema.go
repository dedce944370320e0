package strategy

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GetConfigSchema returns the JSON schema of StrategyConfig.
func GetConfigSchema() (string, error) {
	return ToJSONSchema(StrategyConfig{}) //nolint:exhaustruct // reflected only
}

// ToJSONSchema converts a struct to a JSON schema
func ToJSONSchema[T any](t T) (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	schema := r.Reflect(t)

	jsonSchemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(jsonSchemaBytes), nil
}
