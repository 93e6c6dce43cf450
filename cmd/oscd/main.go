// Command oscd serves the board's subsystems over OSC on UDP, TCP and a
// serial line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"github.com/chabad360/oscengine/config"
)

func main() {
	myApp := cli.NewApp()
	myApp.Name = "oscd"
	myApp.Usage = "OSC subsystem server"
	myApp.Version = version
	myApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "YAML configuration file",
		},
		cli.StringFlag{
			Name:  "udp",
			Value: config.UDPAddrDefault,
			Usage: "UDP listen address, empty to disable",
		},
		cli.IntFlag{
			Name:  "reply-port",
			Usage: "send UDP replies to this port instead of the sender's",
		},
		cli.StringFlag{
			Name:  "tcp",
			Usage: "TCP listen address",
		},
		cli.StringFlag{
			Name:  "serial",
			Usage: "serial device carrying SLIP framed packets",
		},
		cli.StringFlag{
			Name:  "store",
			Value: config.StorePathDefault,
			Usage: "settings database",
		},
		cli.StringFlag{
			Name:  "log-level",
			Value: config.LogLevelDefault,
			Usage: "debug, info, warn or error",
		},
		cli.StringFlag{
			Name:  "log-format",
			Value: config.LogFormatDefault,
			Usage: "text or json",
		},
	}
	myApp.Action = func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		d, err := build(cfg)
		if err != nil {
			return err
		}
		defer d.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return d.run(ctx)
	}

	if err := myApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "oscd:", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, if any, and applies the flags the
// user set on top of it.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Empty()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	strFlags := map[string]string{
		"udp":        config.UDPAddrKey,
		"tcp":        config.TCPAddrKey,
		"serial":     config.SerialDeviceKey,
		"store":      config.StorePathKey,
		"log-level":  config.LogLevelKey,
		"log-format": config.LogFormatKey,
	}
	for flag, key := range strFlags {
		if c.IsSet(flag) {
			cfg.Set(key, c.String(flag))
		}
	}
	if c.IsSet("reply-port") {
		cfg.Set(config.UDPReplyPortKey, c.Int("reply-port"))
	}
	return cfg, nil
}
