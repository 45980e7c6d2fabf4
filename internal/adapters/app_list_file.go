package adapters

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"intune-store-importer/internal/ports"
	"intune-store-importer/internal/types"
)

const appListSchemaURL = "apps.schema.json"

const appListSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["apps"],
  "properties": {
    "apps": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["packageIdentifier"],
        "properties": {
          "packageIdentifier": {"type": "string", "minLength": 1},
          "isFeatured": {"type": "boolean"},
          "assignments": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["targetType", "intent"],
              "properties": {
                "targetType": {"type": "string", "minLength": 1},
                "intent": {"enum": ["required", "available", "uninstall"]},
                "groupId": {"type": "string"}
              }
            }
          }
        }
      }
    }
  }
}`

// AppListFileAdapter loads application descriptors from a YAML or JSON file.
// The file is either a mapping with an "apps" list or a bare list.
type AppListFileAdapter struct {
	schema *jsonschema.Schema
}

func NewAppListFileAdapter() (AppListFileAdapter, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(appListSchemaURL, strings.NewReader(appListSchema)); err != nil {
		return AppListFileAdapter{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to load apps schema").
			WithCause(err)
	}
	schema, err := compiler.Compile(appListSchemaURL)
	if err != nil {
		return AppListFileAdapter{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to compile apps schema").
			WithCause(err)
	}
	return AppListFileAdapter{schema: schema}, nil
}

func (a AppListFileAdapter) LoadApps(path string) ([]types.AppDescriptor, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("apps file path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("apps file not found").
			WithCause(err)
	}
	return a.ParseApps(data)
}

// ParseApps validates raw file content against the apps schema and decodes it.
func (a AppListFileAdapter) ParseApps(data []byte) ([]types.AppDescriptor, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse apps file").
			WithCause(err)
	}
	if list, ok := raw.([]interface{}); ok {
		raw = map[string]interface{}{"apps": list}
	}
	doc, err := toJSONValue(raw)
	if err != nil {
		return nil, err
	}
	if a.schema != nil {
		if err := a.schema.Validate(doc); err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("apps file does not match schema").
				WithCause(err)
		}
	}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to normalize apps file").
			WithCause(err)
	}
	var file types.AppListFile
	if err := json.Unmarshal(encoded, &file); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to decode apps file").
			WithCause(err)
	}
	return file.Apps, nil
}

// toJSONValue converts a decoded YAML document into the value shapes
// produced by encoding/json.
func toJSONValue(value interface{}) (interface{}, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("apps file contains values that are not valid JSON").
			WithCause(err)
	}
	var doc interface{}
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to normalize apps file").
			WithCause(err)
	}
	return doc, nil
}

var _ ports.AppListPort = AppListFileAdapter{}
