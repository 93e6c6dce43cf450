package main

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/chabad360/oscengine/config"
	"github.com/chabad360/oscengine/osc"
	"github.com/chabad360/oscengine/store"
	"github.com/chabad360/oscengine/subsystem"
	"github.com/chabad360/oscengine/transport"
)

const version = "oscd 1.0.0"

type daemon struct {
	engine *osc.Engine
	store  *store.Store
	analog *subsystem.SimulatedAnalog
}

// build opens the store and transports named by cfg and registers every
// subsystem. On failure everything opened so far is closed.
func build(cfg config.Config) (_ *daemon, err error) {
	if err := cfg.Validate(config.Schema); err != nil {
		return nil, err
	}
	if err := setupLogging(cfg); err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Optional(config.StorePathKey, config.StorePathDefault))
	if err != nil {
		return nil, err
	}
	e := osc.NewEngine(
		osc.WithMaxDepth(cfg.OptionalInt(config.BundleDepthKey, config.BundleDepthDef)),
		osc.WithReceiveBufferSize(cfg.OptionalInt(config.InSizeKey, config.InSizeDefault)),
		osc.WithReadTimeout(cfg.OptionalDuration(config.ReadTimeoutKey, osc.DefaultReadTimeout)),
		osc.WithAsyncInterval(cfg.OptionalDuration(config.AsyncIntervalKey, osc.DefaultAsyncInterval)),
	)
	dm := &daemon{engine: e, store: st, analog: &subsystem.SimulatedAnalog{}}
	defer func() {
		if err != nil {
			dm.Close()
		}
	}()

	if err = dm.openChannels(cfg); err != nil {
		return nil, err
	}
	if len(e.Channels()) == 0 {
		return nil, errors.New("no transport configured")
	}
	for _, name := range strings.Split(cfg.Optional(config.AsyncChannelsKey, ""), ",") {
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		if err = e.SetAutoSend(name, true); err != nil {
			return nil, errors.Wrap(err, config.AsyncChannelsKey)
		}
	}
	if err = dm.registerSubsystems(); err != nil {
		return nil, err
	}
	return dm, nil
}

func setupLogging(cfg config.Config) error {
	level, err := osc.ParseLogLevel(cfg.Optional(config.LogLevelKey, config.LogLevelDefault))
	if err != nil {
		return err
	}
	format, err := osc.ParseLogFormat(cfg.Optional(config.LogFormatKey, config.LogFormatDefault))
	if err != nil {
		return err
	}
	osc.SetLogFormat(format)
	osc.SetLogLevel(level)
	return nil
}

func (d *daemon) openChannels(cfg config.Config) error {
	opts := []osc.ChannelOption{
		osc.WithBufferSize(cfg.OptionalInt(config.BufferSizeKey, config.BufferSizeDefault)),
		osc.WithLockTimeout(cfg.OptionalDuration(config.LockTimeoutKey, osc.DefaultLockTimeout)),
	}

	if addr := cfg.Optional(config.UDPAddrKey, config.UDPAddrDefault); addr != "" {
		t, err := transport.ListenUDP(addr, cfg.OptionalInt(config.InSizeKey, config.InSizeDefault))
		if err != nil {
			return err
		}
		udpOpts := opts
		if port := cfg.OptionalInt(config.UDPReplyPortKey, 0); port > 0 {
			udpOpts = append(udpOpts[:len(udpOpts):len(udpOpts)], osc.WithReplyPort(port))
		}
		if err := d.engine.AddChannel(osc.NewChannel("udp", t, udpOpts...)); err != nil {
			t.Close()
			return err
		}
		osc.LogInfo(osc.ComponentTransport, "listening", "channel", "udp", "addr", t.LocalAddr())
	}

	if addr := cfg.Optional(config.TCPAddrKey, ""); addr != "" {
		t, err := transport.ListenTCP(addr)
		if err != nil {
			return err
		}
		if err := d.engine.AddChannel(osc.NewChannel("tcp", t, opts...)); err != nil {
			t.Close()
			return err
		}
		osc.LogInfo(osc.ComponentTransport, "listening", "channel", "tcp", "addr", addr)
	}

	if dev := cfg.Optional(config.SerialDeviceKey, ""); dev != "" {
		t, err := transport.OpenSerial(dev)
		if err != nil {
			return err
		}
		if err := d.engine.AddChannel(osc.NewChannel("usb", t, opts...)); err != nil {
			t.Close()
			return err
		}
		osc.LogInfo(osc.ComponentTransport, "opened", "channel", "usb", "device", dev)
	}
	return nil
}

func (d *daemon) registerSubsystems() error {
	appled, err := subsystem.NewAppLED()
	if err != nil {
		return err
	}
	analog, err := subsystem.NewAnalogIn(d.analog, d.store)
	if err != nil {
		return err
	}
	serial, err := subsystem.NewSerial()
	if err != nil {
		return err
	}
	sys, err := subsystem.NewSystem(d.engine, d.store, version)
	if err != nil {
		return err
	}
	for _, sub := range []osc.Subsystem{subsystem.NewLED(), appled, analog, serial, sys} {
		if err := d.engine.Register(sub); err != nil {
			return err
		}
	}
	return nil
}

// run serves until ctx is done, moving the simulated analog inputs so
// that autosend has something to report.
func (d *daemon) run(ctx context.Context) error {
	go d.simulate(ctx)
	return d.engine.Run(ctx)
}

func (d *daemon) simulate(ctx context.Context) {
	t := time.NewTicker(100 * time.Millisecond)
	defer t.Stop()
	var step int32
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		step++
		for i := 0; i < subsystem.AnalogInputs; i++ {
			// Each input ramps at its own rate.
			d.analog.Set(i, (step*int32(i+1))%(subsystem.AnalogMax+1))
		}
	}
}

func (d *daemon) Close() error {
	err := d.engine.Close()
	if serr := d.store.Close(); serr != nil && err == nil {
		err = serr
	}
	return err
}
