package ai

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
)

// Schema is the structured-output contract handed to a completer.
type Schema struct {
	Name       string
	Definition map[string]any
}

// Required lists the top level keys a conforming document must carry.
func (s *Schema) Required() []string {
	return requiredKeys(s.Definition)
}

func requiredKeys(def map[string]any) []string {
	raw, ok := def["required"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if name, ok := r.(string); ok {
			out = append(out, name)
		}
	}
	return out
}

var (
	recipeSchemaOnce sync.Once
	recipeSchema     *Schema
)

// RecipeSchema is reflected from Recipe; fields tagged jsonschema:"-" are left out.
func RecipeSchema() *Schema {
	recipeSchemaOnce.Do(func() {
		r := jsonschema.Reflector{
			DoNotReference: true,
			ExpandedStruct: true,
		}
		schemaJSON := lo.Must(json.Marshal(r.Reflect(&Recipe{})))

		var m map[string]any
		lo.Must0(json.Unmarshal(schemaJSON, &m))
		// strict structured output backends reject the draft marker
		delete(m, "$schema")
		delete(m, "$id")
		recipeSchema = &Schema{Name: "recipe", Definition: m}
	})
	return recipeSchema
}

// checkRequired reports the first schema-required value missing from doc,
// including keys of nested objects and null array elements.
func checkRequired(doc []byte, s *Schema) error {
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return err
	}
	return conforms(v, s.Definition, "")
}

func conforms(v any, def map[string]any, path string) error {
	if v == nil {
		return fmt.Errorf("missing required field %q", path)
	}
	switch def["type"] {
	case "object":
		obj, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("field %q is not an object", path)
		}
		for _, key := range requiredKeys(def) {
			if val, ok := obj[key]; !ok || val == nil {
				return fmt.Errorf("missing required field %q", joinPath(path, key))
			}
		}
		props, _ := def["properties"].(map[string]any)
		for key, val := range obj {
			pd, ok := props[key].(map[string]any)
			if !ok || val == nil {
				continue
			}
			if err := conforms(val, pd, joinPath(path, key)); err != nil {
				return err
			}
		}
	case "array":
		arr, ok := v.([]any)
		if !ok {
			return fmt.Errorf("field %q is not an array", path)
		}
		items, _ := def["items"].(map[string]any)
		for i, el := range arr {
			elemPath := fmt.Sprintf("%s[%d]", path, i)
			if el == nil {
				return fmt.Errorf("missing required field %q", elemPath)
			}
			if items != nil {
				if err := conforms(el, items, elemPath); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
