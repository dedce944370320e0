package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/rxtech-lab/argo-signals/internal/strategy"
)

const (
	configDir  = "./config"
	schemaName = "strategy-config.json"
)

func main() {
	schemaPath := filepath.Join(configDir, schemaName)

	if err := generateSchemaFile(schemaPath); err != nil {
		log.Fatalf("Failed to generate schema: %v", err)
	}

	log.Printf("Schema successfully generated at %s", schemaPath)

	for _, name := range strategy.PresetNames() {
		config, err := strategy.Preset(name)
		if err != nil {
			log.Fatalf("Failed to load preset %s: %v", name, err)
		}

		samplePath := filepath.Join(configDir, name+".yaml")
		if err := validatePaths(schemaPath, samplePath); err != nil {
			log.Fatal(err)
		}

		if err := generateSampleConfig(config, samplePath, schemaName); err != nil {
			log.Fatalf("Failed to generate sample config: %v", err)
		}
	}
}

// generateSchemaFile writes the strategy config JSON schema, creating the directory.
func generateSchemaFile(schemaPath string) error {
	schemaJSON, err := strategy.GetConfigSchema()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(schemaPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0644); err != nil {
		return fmt.Errorf("failed to write schema to file: %w", err)
	}

	return nil
}

// generateSampleConfig writes config as YAML with a schema reference header.
// An existing file is left untouched.
func generateSampleConfig(config strategy.StrategyConfig, samplePath string, schema string) error {
	if err := validateSchemaName(schema); err != nil {
		return err
	}

	if _, err := os.Stat(samplePath); err == nil {
		return nil
	}

	yamlBytes, err := config.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal sample config to yaml: %w", err)
	}

	yamlBytes = append([]byte(getSchemaReference(schema)), yamlBytes...)

	if err := os.WriteFile(samplePath, yamlBytes, 0644); err != nil {
		return fmt.Errorf("failed to write sample config to file: %w", err)
	}

	log.Printf("Sample config successfully generated at %s", samplePath)

	return nil
}

func validatePaths(schemaPath, samplePath string) error {
	if schemaPath == "" {
		return fmt.Errorf("schema path cannot be empty")
	}

	if samplePath == "" {
		return fmt.Errorf("sample config path cannot be empty")
	}

	return nil
}

func validateSchemaName(name string) error {
	if name == "" {
		return fmt.Errorf("schema name cannot be empty")
	}

	if !strings.HasSuffix(name, ".json") {
		return fmt.Errorf("schema name %q must have .json extension", name)
	}

	return nil
}

func getSchemaReference(name string) string {
	return "# yaml-language-server: $schema=" + name + "\n"
}
