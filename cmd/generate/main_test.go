package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rxtech-lab/argo-signals/internal/strategy"
	"github.com/stretchr/testify/suite"
)

type GenerateCmdTestSuite struct {
	suite.Suite
	tempDir string
}

func (suite *GenerateCmdTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()

	// main writes relative to the working directory
	suite.T().Chdir(suite.tempDir)
}

func (suite *GenerateCmdTestSuite) TestSchemaGeneration() {
	main()

	configDir := filepath.Join(suite.tempDir, "config")
	suite.True(dirExists(configDir), "Config directory should exist")

	schemaPath := filepath.Join(configDir, schemaName)
	suite.True(fileExists(schemaPath), "Schema file should exist")

	content, err := os.ReadFile(schemaPath)
	suite.Require().NoError(err)

	var schema map[string]any
	suite.Require().NoError(json.Unmarshal(content, &schema))
	suite.Contains(schema, "properties")
}

func (suite *GenerateCmdTestSuite) TestSampleConfigGeneration() {
	main()

	for _, name := range strategy.PresetNames() {
		samplePath := filepath.Join(suite.tempDir, "config", name+".yaml")
		suite.True(fileExists(samplePath), "Sample config file should exist")

		content, err := os.ReadFile(samplePath)
		suite.Require().NoError(err)
		suite.True(strings.HasPrefix(string(content), "# yaml-language-server: $schema="+schemaName))

		// the header is a comment, so the sample loads as a strategy
		loaded, err := strategy.LoadConfig(samplePath)
		suite.Require().NoError(err)

		preset, err := strategy.Preset(name)
		suite.Require().NoError(err)
		suite.Equal(preset.Name, loaded.Name)
	}
}

func (suite *GenerateCmdTestSuite) TestSampleConfigNotOverwritten() {
	main()

	samplePath := filepath.Join(suite.tempDir, "config", strategy.PresetTrend+".yaml")
	originalContent, err := os.ReadFile(samplePath)
	suite.Require().NoError(err)

	main()

	newContent, err := os.ReadFile(samplePath)
	suite.Require().NoError(err)
	suite.Equal(string(originalContent), string(newContent), "Sample config should not be overwritten")
}

func (suite *GenerateCmdTestSuite) TestGenerateSchemaFileInvalidPath() {
	blocker := filepath.Join(suite.tempDir, "blocker")
	suite.Require().NoError(os.WriteFile(blocker, []byte("file"), 0644))

	err := generateSchemaFile(filepath.Join(blocker, "schema.json"))
	suite.Error(err, "Should return error when the parent is a file")
	suite.Contains(err.Error(), "failed to")
}

func (suite *GenerateCmdTestSuite) TestGenerateSampleConfigAlreadyExists() {
	samplePath := filepath.Join(suite.tempDir, "existing-config.yaml")

	originalContent := []byte("existing content")
	suite.Require().NoError(os.WriteFile(samplePath, originalContent, 0644))

	suite.Require().NoError(generateSampleConfig(strategy.MultiIndicatorConfluence(), samplePath, "test-schema.json"))

	content, err := os.ReadFile(samplePath)
	suite.Require().NoError(err)
	suite.Equal(string(originalContent), string(content), "Existing file should not be overwritten")
}

func (suite *GenerateCmdTestSuite) TestValidatePaths() {
	suite.NoError(validatePaths("/some/path/schema.json", "/some/path/config.yaml"))
	suite.ErrorContains(validatePaths("", "/some/path/config.yaml"), "schema path cannot be empty")
	suite.ErrorContains(validatePaths("/some/path/schema.json", ""), "sample config path cannot be empty")
	suite.Error(validatePaths("", ""))
}

func (suite *GenerateCmdTestSuite) TestValidateSchemaName() {
	suite.NoError(validateSchemaName("schema.json"))
	suite.NoError(validateSchemaName("my-schema-file.json"))
	suite.ErrorContains(validateSchemaName(""), "schema name cannot be empty")
	suite.ErrorContains(validateSchemaName("schema.txt"), "must have .json extension")
	suite.Error(validateSchemaName("schema"))

	err := generateSampleConfig(strategy.TrendFollowing(), filepath.Join(suite.tempDir, "x.yaml"), "schema.txt")
	suite.Error(err)
}

func (suite *GenerateCmdTestSuite) TestGetSchemaReference() {
	suite.Equal("# yaml-language-server: $schema=test-schema.json\n", getSchemaReference("test-schema.json"))
	suite.Equal("# yaml-language-server: $schema=\n", getSchemaReference(""))
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func TestGenerateCmdSuite(t *testing.T) {
	suite.Run(t, new(GenerateCmdTestSuite))
}
