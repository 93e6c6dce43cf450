package subsystem

import (
	"math"
	"runtime"
	"time"

	"github.com/pkg/errors"

	"github.com/chabad360/oscengine/osc"
)

const (
	sysName = iota
	sysSerialNumber
	sysVersion
	sysFreeMemory
	sysInfo
	sysAutoSendUDP
	sysAutoSendUSB
	sysAutoSendTCP
	sysAutoSendInterval
)

var systemProperties = []string{
	"name", "serialnumber", "version", "freememory", "info",
	"autosend-udp", "autosend-usb", "autosend-tcp", "autosend-interval",
}

// autosendChannels maps the autosend-* properties to channel names.
var autosendChannels = map[int]string{
	sysAutoSendUDP: "udp",
	sysAutoSendUSB: "usb",
	sysAutoSendTCP: "tcp",
}

const (
	systemNameKey     = "system.name"
	systemSerialKey   = "system.serialnumber"
	systemIntervalKey = "system.autosend-interval"
	defaultSystemName = "oscengine"
)

func autosendKey(channel string) string { return "system.autosend-" + channel }

// System serves /system properties of mixed types: the board's name,
// serial number and version, and the autosend controls.
type System struct {
	*osc.Properties

	engine   AutoSender
	settings Settings
	version  string
}

// NewSystem returns the system subsystem. Persisted autosend settings are
// applied to engine; channels that do not exist are skipped.
func NewSystem(engine AutoSender, settings Settings, version string) (*System, error) {
	s := &System{engine: engine, settings: settings, version: version}
	s.Properties = osc.NewProperties("system", osc.GeneralProperties(systemProperties, s))

	for _, ch := range autosendChannels {
		v, err := settings.Int(autosendKey(ch), -1)
		if err != nil {
			return nil, errors.Wrapf(err, "autosend %s", ch)
		}
		if v < 0 {
			continue
		}
		if err := engine.SetAutoSend(ch, v != 0); err != nil {
			osc.LogDebug(osc.ComponentSubsystem, "autosend channel not configured", "channel", ch)
		}
	}
	ms, err := settings.Int(systemIntervalKey, 0)
	if err != nil {
		return nil, errors.Wrap(err, "autosend interval")
	}
	if ms > 0 {
		if err := engine.SetAsyncInterval(time.Duration(ms) * time.Millisecond); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func freeMemory() int32 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	free := m.HeapIdle - m.HeapReleased
	if free > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(free)
}

func (s *System) name() (string, error) {
	return s.settings.String(systemNameKey, defaultSystemName)
}

func (s *System) GetProperty(ch *osc.Channel, address string, _, property int) error {
	switch property {
	case sysName:
		name, err := s.name()
		if err != nil {
			return err
		}
		return ch.CreateMessage(address, name)
	case sysSerialNumber:
		sn, err := s.settings.Int(systemSerialKey, 0)
		if err != nil {
			return err
		}
		return ch.CreateMessage(address, sn)
	case sysVersion:
		return ch.CreateMessage(address, s.version)
	case sysFreeMemory:
		return ch.CreateMessage(address, freeMemory())
	case sysInfo:
		name, err := s.name()
		if err != nil {
			return err
		}
		sn, err := s.settings.Int(systemSerialKey, 0)
		if err != nil {
			return err
		}
		return ch.CreateMessage(address, name, sn, s.version, freeMemory())
	case sysAutoSendUDP, sysAutoSendUSB, sysAutoSendTCP:
		return ch.CreateMessage(address, boolInt(s.engine.AutoSend(autosendChannels[property])))
	case sysAutoSendInterval:
		return ch.CreateMessage(address, int32(s.engine.AsyncInterval()/time.Millisecond))
	}
	return osc.ErrNoProperty
}

func (s *System) SetProperty(_, property int, args []interface{}) error {
	switch property {
	case sysName:
		if len(args) == 0 {
			return osc.ErrBadData
		}
		name, ok := osc.CoerceString(args[0])
		if !ok {
			return osc.ErrIncorrectDataType
		}
		return s.settings.SetString(systemNameKey, name)
	case sysSerialNumber:
		v, err := intArg(args)
		if err != nil {
			return err
		}
		return s.settings.SetInt(systemSerialKey, v)
	case sysVersion, sysFreeMemory, sysInfo:
		return errReadOnly
	case sysAutoSendUDP, sysAutoSendUSB, sysAutoSendTCP:
		v, err := intArg(args)
		if err != nil {
			return err
		}
		ch := autosendChannels[property]
		if err := s.engine.SetAutoSend(ch, v != 0); err != nil {
			return errors.Wrap(osc.ErrSubsystemInactive, err.Error())
		}
		return s.settings.SetInt(autosendKey(ch), boolInt(v != 0))
	case sysAutoSendInterval:
		v, err := intArg(args)
		if err != nil {
			return err
		}
		if err := s.engine.SetAsyncInterval(time.Duration(v) * time.Millisecond); err != nil {
			return err
		}
		return s.settings.SetInt(systemIntervalKey, v)
	}
	return osc.ErrNoProperty
}
