package subsystem

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/chabad360/oscengine/osc"
)

// AppLEDCount is the number of application LEDs.
const AppLEDCount = 4

var ledProperties = []string{"active", "state"}

// ledBank holds the state of one or more LEDs.
type ledBank struct {
	mu     sync.Mutex
	active []bool
	state  []bool
}

func newLEDBank(n int) *ledBank {
	b := &ledBank{active: make([]bool, n), state: make([]bool, n)}
	for i := range b.active {
		b.active[i] = true
	}
	return b
}

func (b *ledBank) GetInt(index, property int) (int32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch property {
	case 0:
		return boolInt(b.active[index]), nil
	case 1:
		return boolInt(b.state[index]), nil
	}
	return 0, osc.ErrNoProperty
}

func (b *ledBank) SetInt(index, property int, value int32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch property {
	case 0:
		b.active[index] = value != 0
		if !b.active[index] {
			b.state[index] = false
		}
	case 1:
		if !b.active[index] {
			return errors.Wrapf(osc.ErrSubsystemInactive, "led %d", index)
		}
		b.state[index] = value != 0
	default:
		return osc.ErrNoProperty
	}
	return nil
}

// LED is the controller's status LED at /led/{active,state}.
type LED struct {
	*osc.Properties
	bank *ledBank
}

// NewLED returns the status LED subsystem, switched off.
func NewLED() *LED {
	b := newLEDBank(1)
	return &LED{
		Properties: osc.NewProperties("led", osc.IntProperties(ledProperties, b)),
		bank:       b,
	}
}

// On reports whether the LED is lit.
func (l *LED) On() bool {
	v, _ := l.bank.GetInt(0, 1)
	return v != 0
}

// AppLED is the bank of application LEDs at /appled/<n>/{active,state}.
type AppLED struct {
	*osc.Properties
	bank *ledBank
}

// NewAppLED returns the application LED subsystem.
func NewAppLED() (*AppLED, error) {
	b := newLEDBank(AppLEDCount)
	p, err := osc.NewIndexedProperties("appled", AppLEDCount, 0, osc.IntProperties(ledProperties, b))
	if err != nil {
		return nil, err
	}
	return &AppLED{Properties: p, bank: b}, nil
}

// On reports whether LED i is lit.
func (l *AppLED) On(i int) bool {
	v, _ := l.bank.GetInt(i, 1)
	return v != 0
}
