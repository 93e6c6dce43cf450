// Package subsystem provides the board's OSC subsystems over simulated
// hardware: LEDs, analog inputs, serial ports and the system itself.
//
// Each subsystem is an osc.Subsystem ready for osc.Engine.Register.
package subsystem

import (
	"time"

	"github.com/pkg/errors"

	"github.com/chabad360/oscengine/osc"
)

// Settings is the non-volatile storage subsystems keep their state in.
// *store.Store implements it.
type Settings interface {
	Int(key string, def int32) (int32, error)
	SetInt(key string, v int32) error
	String(key, def string) (string, error)
	SetString(key, v string) error
}

// AutoSender controls the engine's autosend task. *osc.Engine implements it.
type AutoSender interface {
	SetAutoSend(channel string, on bool) error
	AutoSend(channel string) bool
	SetAsyncInterval(d time.Duration) error
	AsyncInterval() time.Duration
}

var errReadOnly = errors.Wrap(osc.ErrBadData, "read-only property")

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// intArg returns the first argument as an int32.
func intArg(args []interface{}) (int32, error) {
	if len(args) == 0 {
		return 0, osc.ErrBadData
	}
	v, ok := osc.Coerce[int32](args[0])
	if !ok {
		return 0, osc.ErrIncorrectDataType
	}
	return v, nil
}
