package main

import (
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/outofforest/rendezvous"
	"github.com/outofforest/rendezvous/ws"
)

const (
	envPort       = "PORT"
	envNativePort = "NATIVE_PORT"
)

// Config is the configuration of the server process.
type Config struct {
	HTTPAddr        string
	NativeAddr      string
	MaxMessageSize  uint64
	QueueSize       int
	PingPeriod      time.Duration
	PongWait        time.Duration
	WriteWait       time.Duration
	ShutdownTimeout time.Duration
}

// LoadConfig parses command line arguments. Port set in the environment overrides the port of the address.
func LoadConfig(args []string, getenv func(string) string) (Config, error) {
	wsDefaults := ws.DefaultConfig()

	var config Config
	flags := pflag.NewFlagSet("rendezvous", pflag.ContinueOnError)
	flags.StringVar(&config.HTTPAddr, "http-addr", ":3000", "Address to serve HTTP and websocket peers on")
	flags.StringVar(&config.NativeAddr, "native-addr", ":3001",
		"Address to serve native peers on, empty disables native transport")
	flags.Uint64Var(&config.MaxMessageSize, "max-message-size", uint64(wsDefaults.MaxMessageSize),
		"Maximum size of the message accepted from the peer")
	flags.IntVar(&config.QueueSize, "queue-size", rendezvous.DefaultQueueSize,
		"Capacity of the outbound queue of each session")
	flags.DurationVar(&config.PingPeriod, "ping-period", wsDefaults.PingPeriod, "Period of websocket pings")
	flags.DurationVar(&config.PongWait, "pong-wait", wsDefaults.PongWait, "Time allowed to receive websocket pong")
	flags.DurationVar(&config.WriteWait, "write-wait", wsDefaults.WriteWait, "Time allowed to write a websocket frame")
	flags.DurationVar(&config.ShutdownTimeout, "shutdown-timeout", 5*time.Second, "Time allowed for graceful shutdown")

	if err := flags.Parse(args); err != nil {
		return Config{}, errors.WithStack(err)
	}

	var err error
	if config.HTTPAddr, err = overridePort(config.HTTPAddr, getenv(envPort)); err != nil {
		return Config{}, err
	}
	if config.NativeAddr != "" {
		if config.NativeAddr, err = overridePort(config.NativeAddr, getenv(envNativePort)); err != nil {
			return Config{}, err
		}
	}

	if config.MaxMessageSize == 0 {
		return Config{}, errors.New("max message size must be positive")
	}
	if config.QueueSize <= 0 {
		return Config{}, errors.New("queue size must be positive")
	}
	if config.PingPeriod <= 0 || config.PingPeriod >= config.PongWait {
		return Config{}, errors.Errorf("ping period %s must be positive and less than pong wait %s",
			config.PingPeriod, config.PongWait)
	}

	return config, nil
}

// WebSocket returns configuration of websocket connections.
func (c Config) WebSocket() ws.Config {
	return ws.Config{
		MaxMessageSize: int64(c.MaxMessageSize),
		WriteWait:      c.WriteWait,
		PongWait:       c.PongWait,
		PingPeriod:     c.PingPeriod,
	}
}

func overridePort(addr, port string) (string, error) {
	if port == "" {
		return addr, nil
	}

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return "", errors.Wrapf(err, "invalid address %q", addr)
	}
	return net.JoinHostPort(host, port), nil
}
