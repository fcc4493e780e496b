// Package validate runs struct-tag validation over request payloads.
//
// Rules are comma-separated in the `validate` tag:
//
//	required     non-zero value; for pointers, non-nil
//	nullable     skip remaining rules when the value is empty
//	email        plausible email address
//	alpha        letters only
//	size=N       exact string length
//	min=N/max=N  string length, or numeric bound
//	gt=N/gte=N   numeric lower bound
//	lte=N        numeric upper bound
//	in=a|b|c     one of the listed values
//	dive         validate each element of a slice of structs
//
// Pointer fields are dereferenced before any rule other than required runs,
// so `*float64` with `required,gte=0` means "present and non-negative".
package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Struct validates v and returns field → message. An empty map means valid.
// Nested failures under `dive` are keyed as "field.N.child".
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)
	walk(reflect.ValueOf(v), "", errs)
	return errs
}

// HasErrors reports whether errs is non-empty.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

func walk(rv reflect.Value, prefix string, errs map[string]string) {
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" || !field.IsExported() {
			continue
		}

		name := prefix + jsonName(field)
		rules := strings.Split(tag, ",")
		value := rv.Field(i)

		if contains(rules, "nullable") && isEmpty(value) {
			continue
		}

		failed := false
		for _, rule := range rules {
			if rule == "nullable" || rule == "dive" {
				continue
			}
			if msg := apply(strings.TrimSpace(rule), name, value); msg != "" {
				errs[name] = msg
				failed = true
				break
			}
		}

		if !failed && contains(rules, "dive") && value.Kind() == reflect.Slice {
			for j := 0; j < value.Len(); j++ {
				walk(value.Index(j), fmt.Sprintf("%s.%d.", name, j), errs)
			}
		}
	}
}

func apply(rule, field string, v reflect.Value) string {
	key, param, _ := strings.Cut(rule, "=")

	if key == "required" {
		if isEmpty(v) {
			return fmt.Sprintf("The %s field is required.", field)
		}
		return ""
	}

	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	switch key {
	case "email":
		if !emailRE.MatchString(v.String()) {
			return fmt.Sprintf("The %s must be a valid email address.", field)
		}
	case "alpha":
		for _, c := range v.String() {
			if !unicode.IsLetter(c) {
				return fmt.Sprintf("The %s field must contain only letters.", field)
			}
		}
	case "size":
		if n := atoi(param); len([]rune(v.String())) != n {
			return fmt.Sprintf("The %s must be exactly %d characters.", field, n)
		}
	case "min":
		if numeric(v) {
			if toFloat(v) < atof(param) {
				return fmt.Sprintf("The %s must be at least %s.", field, param)
			}
		} else if length(v) < atoi(param) {
			return fmt.Sprintf("The %s must be at least %s characters.", field, param)
		}
	case "max":
		if numeric(v) {
			if toFloat(v) > atof(param) {
				return fmt.Sprintf("The %s must not be greater than %s.", field, param)
			}
		} else if length(v) > atoi(param) {
			return fmt.Sprintf("The %s must not exceed %s characters.", field, param)
		}
	case "gt":
		if toFloat(v) <= atof(param) {
			return fmt.Sprintf("The %s must be greater than %s.", field, param)
		}
	case "gte":
		if toFloat(v) < atof(param) {
			return fmt.Sprintf("The %s must be greater than or equal to %s.", field, param)
		}
	case "lte":
		if toFloat(v) > atof(param) {
			return fmt.Sprintf("The %s must be less than or equal to %s.", field, param)
		}
	case "in":
		raw := fmt.Sprintf("%v", v.Interface())
		for _, allowed := range strings.Split(param, "|") {
			if raw == allowed {
				return ""
			}
		}
		return fmt.Sprintf("The selected %s is invalid.", field)
	}
	return ""
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	}
	return false
}

func numeric(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func toFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	return 0
}

func length(v reflect.Value) int {
	switch v.Kind() {
	case reflect.String:
		return len([]rune(v.String()))
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len()
	}
	return 0
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func atoi(s string) int { return int(atof(s)) }

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return strings.ToLower(f.Name)
	}
	return name
}

func contains(rules []string, target string) bool {
	for _, r := range rules {
		if strings.TrimSpace(r) == target {
			return true
		}
	}
	return false
}
