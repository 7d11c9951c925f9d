package config

import (
	"os"
	"reflect"
	"strings"

	"gopkg.in/yaml.v2"
)

// applyEnvOverrides walks v's struct fields recursively, and for each leaf
// whose env var PREFIX_FIELD_SUBFIELD is set, YAML-unmarshals that string
// over the field's existing value. This mirrors the teacher's
// configuration.Parser.overwriteFields algorithm, trimmed to the simpler
// case of a single fixed schema version rather than a versioned migration
// chain.
func applyEnvOverrides(prefix string, v any) error {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		k, val, ok := strings.Cut(kv, "=")
		if ok {
			env[k] = val
		}
	}
	return overwriteFields(reflect.ValueOf(v), prefix, env)
}

func overwriteFields(v reflect.Value, prefix string, env map[string]string) error {
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		sf := v.Type().Field(i)
		if !field.CanSet() {
			continue
		}

		fieldPrefix := strings.ToUpper(prefix + "_" + sf.Name)
		if raw, ok := env[fieldPrefix]; ok {
			target := reflect.New(sf.Type)
			if err := yaml.Unmarshal([]byte(raw), target.Interface()); err != nil {
				return err
			}
			field.Set(target.Elem())
		}

		if err := overwriteFields(field, fieldPrefix, env); err != nil {
			return err
		}
	}
	return nil
}
