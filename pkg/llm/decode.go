package llm

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/aretw0/gashu/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// nullWords are string spellings of "no value" that models emit in place
// of JSON null.
var nullWords = map[string]bool{
	"null": true, "none": true, "nil": true, "undefined": true,
}

// Decode extracts the JSON object from a model reply and decodes it into T.
// Code fences and surrounding prose are tolerated; anything else yields a
// failed Parsed carrying the raw text.
func Decode[T any](content string) domain.Parsed[T] {
	obj, ok := extractObject(content)
	if !ok {
		return domain.ParseFailed[T](content)
	}

	var generic map[string]any
	if err := json.Unmarshal([]byte(obj), &generic); err != nil {
		return domain.ParseFailed[T](content)
	}

	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       nullStringHook,
		TagName:          "json",
		Result:           &out,
	})
	if err != nil {
		return domain.ParseFailed[T](content)
	}
	if err := dec.Decode(generic); err != nil {
		return domain.ParseFailed[T](content)
	}
	return domain.ParsedOK(out, content)
}

// nullStringHook maps "null"-like strings to the zero value of the target.
func nullStringHook(from, to reflect.Type, data any) (any, error) {
	s, ok := data.(string)
	if !ok || from.Kind() != reflect.String {
		return data, nil
	}
	if nullWords[strings.ToLower(strings.TrimSpace(s))] {
		return reflect.Zero(to).Interface(), nil
	}
	return data, nil
}

// extractObject returns the outermost {...} span of s.
func extractObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
