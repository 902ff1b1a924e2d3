package pathconf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/bittoy/corpuspipe/corpuserr"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ConfigParam describes one processor-declared configuration parameter, used
// to synthesize a JSON Schema for the corpus config file. Populated by the
// registry (component B) from each processor's `config=[...]` declaration.
type ConfigParam struct {
	Key         string
	Description string
	Default     interface{}
	Type        string // "string", "number", "boolean", "array"
	Choices     []string
	Min, Max    *float64
	Pattern     string
}

// Generate builds a draft-07 JSON Schema document from a flat list of
// declared config parameters, one top-level property per dotted key, per spec §4.A
// "validate(config, schema)" and §6 "schema" CLI verb.
func Generate(params []ConfigParam) ([]byte, error) {
	root := map[string]interface{}{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"type":       "object",
		"properties": map[string]interface{}{},
	}
	props := root["properties"].(map[string]interface{})

	for _, p := range params {
		node := map[string]interface{}{}
		if p.Description != "" {
			node["description"] = p.Description
		}
		switch p.Type {
		case "number":
			node["type"] = "number"
			if p.Min != nil {
				node["minimum"] = *p.Min
			}
			if p.Max != nil {
				node["maximum"] = *p.Max
			}
		case "boolean":
			node["type"] = "boolean"
		case "array":
			node["type"] = "array"
		default:
			node["type"] = "string"
			if p.Pattern != "" {
				node["pattern"] = p.Pattern
			}
			if len(p.Choices) > 0 {
				enum := make([]interface{}, len(p.Choices))
				for i, c := range p.Choices {
					enum[i] = c
				}
				node["enum"] = enum
			}
		}
		insertDotted(props, p.Key, node)
	}

	return json.MarshalIndent(root, "", "  ")
}

func insertDotted(props map[string]interface{}, key string, node map[string]interface{}) {
	// The schema is generated flat-keyed (dotted keys as property names)
	// rather than deeply nested, matching how corpus config keys are
	// addressed throughout the engine (pathconf.Config.Get("wsd.sense_model")).
	props[key] = node
}

// Validate checks raw corpus config against a generated schema document.
func Validate(schemaDoc []byte, raw map[string]interface{}) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("corpus-config.json", bytes.NewReader(schemaDoc)); err != nil {
		return err
	}
	sch, err := compiler.Compile("corpus-config.json")
	if err != nil {
		return err
	}
	flat := flatten(raw, "")
	if err := sch.Validate(flat); err != nil {
		return corpuserr.New(corpuserr.KindConfigInvalid, "corpus config", err)
	}
	return nil
}

func flatten(raw map[string]interface{}, prefix string) map[string]interface{} {
	out := map[string]interface{}{}
	for k, v := range raw {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := asGenericMap(v); ok {
			for fk, fv := range flatten(sub, key) {
				out[fk] = fv
			}
			continue
		}
		out[key] = v
	}
	return out
}

// asGenericMap detects a string- or interface-keyed map value by reflection
// rather than a type switch: Config.Raw() returns subtrees boxed as the
// package-private tree type, which a map[string]interface{} case would never
// match even though its underlying representation is identical.
func asGenericMap(v interface{}) (map[string]interface{}, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, false
	}
	out := make(map[string]interface{}, rv.Len())
	for _, k := range rv.MapKeys() {
		out[fmt.Sprintf("%v", k.Interface())] = rv.MapIndex(k).Interface()
	}
	return out, true
}
