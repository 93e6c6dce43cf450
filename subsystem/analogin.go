package subsystem

import (
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/chabad360/oscengine/osc"
)

const (
	// AnalogInputs is the number of analog input channels.
	AnalogInputs = 8
	// AnalogMax is the largest value a 10-bit converter reads.
	AnalogMax = 1023

	analogAutoSendKey = "analogin.autosend"
)

// AnalogSource reads the analog converter.
type AnalogSource interface {
	ReadAnalog(index int) (int32, error)
}

// SimulatedAnalog is an AnalogSource whose values are set by the caller.
type SimulatedAnalog struct {
	mu     sync.Mutex
	values [AnalogInputs]int32
}

// Set stores v, clamped to 0..AnalogMax, as the reading of input i.
func (s *SimulatedAnalog) Set(i int, v int32) {
	v = max(0, min(v, AnalogMax))
	s.mu.Lock()
	s.values[i] = v
	s.mu.Unlock()
}

func (s *SimulatedAnalog) ReadAnalog(i int) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[i], nil
}

// AnalogIn serves /analogin/<n>/{active,value,autosend} through a dispatch
// tree and reports changed values to autosend channels.
type AnalogIn struct {
	osc.Subsystem

	src      AnalogSource
	settings Settings

	mu       sync.Mutex
	inactive uint64
	autosend uint64
	last     map[string]*[AnalogInputs]int32
}

// NewAnalogIn returns the analog input subsystem reading from src. The
// autosend mask is loaded from and saved to settings.
func NewAnalogIn(src AnalogSource, settings Settings) (*AnalogIn, error) {
	mask, err := settings.Int(analogAutoSendKey, 0)
	if err != nil {
		return nil, errors.Wrap(err, "analogin autosend")
	}
	a := &AnalogIn{
		src:      src,
		settings: settings,
		autosend: uint64(uint32(mask)),
		last:     make(map[string]*[AnalogInputs]int32),
	}
	root := &osc.Node{
		Name: "analogin",
		Children: []*osc.Node{{
			Range: &osc.IndexRange{Count: AnalogInputs},
			Children: []*osc.Node{
				{Name: "active", Method: osc.MethodFunc(a.handleActive)},
				{Name: "value", Method: osc.MethodFunc(a.handleValue)},
				{Name: "autosend", Method: osc.MethodFunc(a.handleAutoSend)},
			},
		}},
	}
	if a.Subsystem, err = osc.NewNodeSubsystem(root); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *AnalogIn) flag(mask *uint64, i int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return *mask&(1<<uint(i)) != 0
}

func (a *AnalogIn) setFlag(mask *uint64, i int, on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if on {
		*mask |= 1 << uint(i)
	} else {
		*mask &^= 1 << uint(i)
	}
}

func (a *AnalogIn) handleActive(call *osc.Call) error {
	if call.Op == osc.OpGet {
		return call.Channel.CreateMessage(call.Address, boolInt(!a.flag(&a.inactive, call.Index)))
	}
	v, err := intArg(call.Args)
	if err != nil {
		return err
	}
	a.setFlag(&a.inactive, call.Index, v == 0)
	return nil
}

func (a *AnalogIn) handleValue(call *osc.Call) error {
	if call.Op != osc.OpGet {
		return errReadOnly
	}
	if a.flag(&a.inactive, call.Index) {
		return errors.Wrapf(osc.ErrSubsystemInactive, "analogin %d", call.Index)
	}
	v, err := a.src.ReadAnalog(call.Index)
	if err != nil {
		return errors.Wrap(osc.ErrBadData, err.Error())
	}
	return call.Channel.CreateMessage(call.Address, v)
}

func (a *AnalogIn) handleAutoSend(call *osc.Call) error {
	if call.Op == osc.OpGet {
		return call.Channel.CreateMessage(call.Address, boolInt(a.flag(&a.autosend, call.Index)))
	}
	v, err := intArg(call.Args)
	if err != nil {
		return err
	}
	a.setFlag(&a.autosend, call.Index, v != 0)
	a.mu.Lock()
	mask := int32(a.autosend)
	a.mu.Unlock()
	return a.settings.SetInt(analogAutoSendKey, mask)
}

// AutoSend reports whether input i is reported by Poll.
func (a *AnalogIn) AutoSend(i int) bool { return a.flag(&a.autosend, i) }

// Poll implements osc.Poller. It sends /analogin/<n>/value for every
// active autosend input whose value changed since the last poll of ch.
func (a *AnalogIn) Poll(ch *osc.Channel) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.autosend == 0 {
		return 0
	}
	last, ok := a.last[ch.Name()]
	if !ok {
		last = new([AnalogInputs]int32)
		for i := range last {
			last[i] = -1
		}
		a.last[ch.Name()] = last
	}

	sent := 0
	for i := 0; i < AnalogInputs; i++ {
		bit := uint64(1) << uint(i)
		if a.autosend&bit == 0 || a.inactive&bit != 0 {
			continue
		}
		v, err := a.src.ReadAnalog(i)
		if err != nil {
			osc.LogWarn(osc.ComponentSubsystem, "analog read failed", "input", i, "err", err)
			continue
		}
		if v == last[i] {
			continue
		}
		if err := ch.CreateMessage("/analogin/"+strconv.Itoa(i)+"/value", v); err != nil {
			osc.LogDebug(osc.ComponentSubsystem, "autosend stopped", "channel", ch.Name(), "err", err)
			break
		}
		last[i] = v
		sent++
	}
	return sent
}
