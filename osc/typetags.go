package osc

import (
	"github.com/pkg/errors"
)

// TypeTag is one character of a message's type tag string.
type TypeTag rune

const (
	TypeString  TypeTag = 's'
	TypeInt32   TypeTag = 'i'
	TypeFloat32 TypeTag = 'f'
	TypeBlob    TypeTag = 'b'
	TypeInvalid TypeTag = 0
)

// ToTypeTag returns the OSC TypeTag for the given argument.
// Returns TypeInvalid if the argument type is unsupported.
func ToTypeTag(arg interface{}) TypeTag {
	switch arg.(type) {
	case int32:
		return TypeInt32
	case float32:
		return TypeFloat32
	case string:
		return TypeString
	case []byte:
		return TypeBlob
	default:
		return TypeInvalid
	}
}

// GetTypeTag returns the type tag string, leading comma included, for args.
func GetTypeTag(args []interface{}) (string, error) {
	tt := make([]byte, len(args)+1)
	tt[0] = ','
	for i, arg := range args {
		t := ToTypeTag(arg)
		if t == TypeInvalid {
			return "", errors.Wrapf(ErrIncorrectDataType, "argument %d has unsupported type %T", i, arg)
		}
		tt[i+1] = byte(t)
	}
	return string(tt), nil
}
