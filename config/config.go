// Package config holds runtime settings as a flat map of dotted keys,
// loaded from YAML and overridden from the command line.
//
// Durations are stored as plain integers and read as milliseconds. The
// Optional readers return the default for a missing key and panic on a
// value of the wrong type; call Validate first to turn that into an error.
package config

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ConfigType names the type a key is expected to hold.
type ConfigType string

const (
	String   ConfigType = "string"
	Bool     ConfigType = "bool"
	Int      ConfigType = "int"
	Duration ConfigType = "int(milliseconds)"
)

type ConfigMissingError struct {
	key string
}

func (c ConfigMissingError) Error() string {
	return fmt.Sprintf("Config is missing key [%s]", c.key)
}

type ConfigParsingError struct {
	expected ConfigType
	key      string
	val      interface{}
}

func (c ConfigParsingError) Error() string {
	return fmt.Sprintf("Error parsing config key [%s].  Expected type [%s], which can't be converted from [%v]", c.key, c.expected, c.val)
}

// Config is a set of settings.
type Config interface {
	Optional(key string, def string) string
	OptionalInt(key string, def int) int
	OptionalBool(key string, def bool) bool
	OptionalDuration(key string, def time.Duration) time.Duration

	// Set overrides a key.
	Set(key string, val interface{})
	// Keys returns the keys present, sorted.
	Keys() []string
	// Validate checks that every present key named in schema has the
	// expected type.
	Validate(schema map[string]ConfigType) error
}

// Empty returns a config with no keys.
func Empty() Config {
	return New(nil)
}

// New wraps a flat map of dotted keys.
func New(internal map[string]interface{}) Config {
	if internal == nil {
		internal = make(map[string]interface{})
	}
	return &config{internal: internal}
}

// Load reads a YAML file. Nested maps are flattened into dotted keys, so
// osc: {udp: {addr: ":10000"}} becomes osc.udp.addr.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	return Parse(data)
}

// Parse reads YAML from data.
func Parse(data []byte) (Config, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	flat := make(map[string]interface{})
	flatten("", raw, flat)
	return New(flat), nil
}

func flatten(prefix string, in map[string]interface{}, out map[string]interface{}) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if m, ok := v.(map[string]interface{}); ok {
			flatten(key, m, out)
			continue
		}
		out[key] = v
	}
}

type config struct {
	lock     sync.RWMutex
	internal map[string]interface{}
}

func (c *config) Set(key string, val interface{}) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.internal[key] = val
}

func (c *config) Keys() []string {
	c.lock.RLock()
	defer c.lock.RUnlock()
	keys := make([]string, 0, len(c.internal))
	for k := range c.internal {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *config) Validate(schema map[string]ConfigType) error {
	c.lock.RLock()
	defer c.lock.RUnlock()
	for key, typ := range schema {
		var err error
		switch typ {
		case String:
			_, err = readString(c.internal, key)
		case Bool:
			_, err = readBool(c.internal, key)
		case Int:
			_, err = readInt(c.internal, key)
		case Duration:
			_, err = readDuration(c.internal, key)
		}
		if _, missing := err.(ConfigMissingError); err != nil && !missing {
			return err
		}
	}
	return nil
}

func (c *config) Optional(key string, def string) string {
	c.lock.RLock()
	defer c.lock.RUnlock()
	val, err := readString(c.internal, key)
	if err == nil {
		return val
	}

	switch err.(type) {
	case ConfigMissingError:
		return def
	}

	panic(err)
}

func (c *config) OptionalInt(key string, def int) int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	val, err := readInt(c.internal, key)
	if err == nil {
		return val
	}

	switch err.(type) {
	case ConfigMissingError:
		return def
	}

	panic(err)
}

func (c *config) OptionalBool(key string, def bool) bool {
	c.lock.RLock()
	defer c.lock.RUnlock()
	val, err := readBool(c.internal, key)
	if err == nil {
		return val
	}

	switch err.(type) {
	case ConfigMissingError:
		return def
	}

	panic(err)
}

func (c *config) OptionalDuration(key string, def time.Duration) time.Duration {
	c.lock.RLock()
	defer c.lock.RUnlock()
	val, err := readDuration(c.internal, key)
	if err == nil {
		return val
	}

	switch err.(type) {
	case ConfigMissingError:
		return def
	}

	panic(err)
}

func readString(m map[string]interface{}, key string) (string, error) {
	val, ok := m[key]
	if !ok {
		return "", ConfigMissingError{key}
	}

	switch v := val.(type) {
	case string:
		return v, nil
	case int, bool:
		return fmt.Sprint(v), nil
	}
	return "", ConfigParsingError{String, key, val}
}

func readInt(m map[string]interface{}, key string) (int, error) {
	val, ok := m[key]
	if !ok {
		return 0, ConfigMissingError{key}
	}

	ret, ok := val.(int)
	if !ok {
		return 0, ConfigParsingError{Int, key, val}
	}

	return ret, nil
}

func readBool(m map[string]interface{}, key string) (bool, error) {
	val, ok := m[key]
	if !ok {
		return false, ConfigMissingError{key}
	}

	ret, ok := val.(bool)
	if !ok {
		return false, ConfigParsingError{Bool, key, val}
	}

	return ret, nil
}

func readDuration(m map[string]interface{}, key string) (time.Duration, error) {
	val, ok := m[key]
	if !ok {
		return 0, ConfigMissingError{key}
	}

	switch v := val.(type) {
	case int:
		return time.Duration(v) * time.Millisecond, nil
	case time.Duration:
		return v, nil
	}
	return 0, ConfigParsingError{Duration, key, val}
}
