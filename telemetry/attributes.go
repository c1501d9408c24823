package telemetry

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// ClassKey holds the runtime type name of an LLM config.
const ClassKey = "class"

// llmAllowList is the only set of LLM config fields that may leave the
// process. Credentials and prompts are never on it.
var llmAllowList = map[string]struct{}{
	"name":        {},
	"model_name":  {},
	"base_url":    {},
	"model":       {},
	"top_k":       {},
	"temperature": {},
}

// SafeLLMAttributes extracts the allow-listed fields present on an LLM
// config object plus its class name. Structs (or pointers to structs) are
// matched by json tag, falling back to the snake_case field name; maps with
// string keys are matched by key. nil yields an empty map.
func SafeLLMAttributes(llm any) map[string]any {
	out := make(map[string]any)
	if llm == nil {
		return out
	}

	v := reflect.ValueOf(llm)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return out
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() || f.Anonymous {
				continue
			}
			key := fieldKey(f)
			if _, ok := llmAllowList[key]; ok {
				out[key] = v.Field(i).Interface()
			}
		}
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			break
		}
		iter := v.MapRange()
		for iter.Next() {
			key := iter.Key().String()
			if _, ok := llmAllowList[key]; ok {
				out[key] = iter.Value().Interface()
			}
		}
	}

	out[ClassKey] = className(v.Type())
	return out
}

// describeLLM renders an LLM for a log line without exposing anything
// outside the allow-list.
func describeLLM(llm any) string {
	attrs := SafeLLMAttributes(llm)
	class, ok := attrs[ClassKey]
	if !ok {
		return "none"
	}
	for _, key := range []string{"model", "model_name", "name"} {
		if m, ok := attrs[key]; ok && fmt.Sprint(m) != "" {
			return fmt.Sprintf("%v(%v)", class, m)
		}
	}
	return fmt.Sprint(class)
}

func className(t reflect.Type) string {
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}

func fieldKey(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return snakeCase(f.Name)
}

// snakeCase converts Go field names, keeping acronyms together:
// BaseURL -> base_url, TopK -> top_k.
func snakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
