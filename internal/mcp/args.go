package mcp

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// ArgumentGetter is an interface for getting arguments from a request.
type ArgumentGetter interface {
	GetArguments() map[string]interface{}
}

// bindArguments binds tool arguments to a struct using its json tags. Some
// MCP clients send every parameter as a string, so "true" and "false" are
// accepted for booleans and JSON-encoded values for slices.
func bindArguments[T any](request ArgumentGetter, target *T) error {
	stringHook := func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		raw := strings.TrimSpace(data.(string))

		switch t.Kind() {
		case reflect.Bool:
			if raw == "true" || raw == "false" {
				return raw == "true", nil
			}
		case reflect.Slice:
			if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
				slicePtr := reflect.New(t)
				if err := json.Unmarshal([]byte(raw), slicePtr.Interface()); err == nil {
					return slicePtr.Elem().Interface(), nil
				}
			}
		}
		return data, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stringHook,
			mapstructure.StringToSliceHookFunc(","),
		),
		Result:  target,
		TagName: "json",
	})
	if err != nil {
		return err
	}

	return decoder.Decode(request.GetArguments())
}
