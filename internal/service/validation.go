package service

import (
	"encoding/json"
	"errors"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Adam-Grimes/CINEMA/internal/model"
)

// fieldValidator applies the per-field rule tags from model.Field.
type fieldValidator struct {
	validate *validator.Validate
}

func newFieldValidator() *fieldValidator {
	return &fieldValidator{validate: validator.New()}
}

// check type-checks v against f and applies f.Rules.  It returns the value
// normalised for storage: integers as int64 and numbers as float64.
func (fv *fieldValidator) check(collection string, f model.Field, v any) (any, error) {
	norm, ok := coerce(f.Kind, v)
	if !ok {
		return nil, validationf("%s.%s must be of type %s", collection, f.Name, f.Kind)
	}
	if f.Required && f.Kind == model.KindString && strings.TrimSpace(norm.(string)) == "" {
		return nil, validationf("%s.%s must not be empty", collection, f.Name)
	}
	if f.Rules == "" {
		return norm, nil
	}
	if err := fv.validate.Var(norm, f.Rules); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, validationf("%s.%s failed %q (%v)", collection, f.Name, verrs[0].Tag()+paramSuffix(verrs[0].Param()), v)
		}
		return nil, validationf("%s.%s is invalid: %v", collection, f.Name, err)
	}
	return norm, nil
}

func paramSuffix(p string) string {
	if p == "" {
		return ""
	}
	return "=" + p
}

// coerce converts a decoded JSON value to the Go type stored for kind.
func coerce(kind model.Kind, v any) (any, bool) {
	switch kind {
	case model.KindString:
		s, ok := v.(string)
		return s, ok
	case model.KindNumber:
		return toFloat(v)
	case model.KindInteger:
		f, ok := toFloat(v)
		if !ok {
			return nil, false
		}
		x := f.(float64)
		// 1<<63 itself does not fit; int64(x) is undefined outside the range.
		if x != math.Trunc(x) || x >= 1<<63 || x < -(1<<63) {
			return nil, false
		}
		return int64(x), true
	}
	return nil, false
}

func toFloat(v any) (any, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) {
			return nil, false
		}
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return nil, false
}
