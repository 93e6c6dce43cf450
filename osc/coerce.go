package osc

import (
	"golang.org/x/exp/constraints"
)

// Number is any Go integer or floating point type.
type Number interface {
	constraints.Integer | constraints.Float
}

// Coerce converts a numeric OSC argument to T. Both int32 and float32
// arguments are accepted; floats are truncated toward zero when T is an
// integer type.
func Coerce[T Number](arg interface{}) (T, bool) {
	switch v := arg.(type) {
	case int32:
		return T(v), true
	case float32:
		return T(v), true
	}
	return 0, false
}

// CoerceString accepts string arguments and blobs holding text.
func CoerceString(arg interface{}) (string, bool) {
	switch v := arg.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	}
	return "", false
}

// CoerceBlob accepts blob arguments and strings.
func CoerceBlob(arg interface{}) ([]byte, bool) {
	switch v := arg.(type) {
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	}
	return nil, false
}
