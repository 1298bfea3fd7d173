package discovery

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"go.uber.org/multierr"
)

const (
	// DefaultPort is the UDP port used to send and receive announcements
	DefaultPort = 1993

	// DefaultAdvertise is the default interval between announcements
	DefaultAdvertise = 10 * time.Second

	// DefaultPurge is the default age after which a discovered service is dropped.
	// It should be a multiple of the advertise interval.
	DefaultPurge = 60 * time.Second

	// MinAdvertise bounds the broadcast rate on the local network
	MinAdvertise = 5 * time.Second
)

// Recognized option keys for ParseConfig
const (
	OptionPort      = "port"
	OptionAdvertise = "advertise"
	OptionPurge     = "purge"
	OptionScope     = "scope"
	OptionLoopback  = "loopback"
	OptionService   = "service"
	OptionError     = "error"
	OptionChange    = "change"
)

var knownOptions = map[string]bool{
	OptionPort:      true,
	OptionAdvertise: true,
	OptionPurge:     true,
	OptionScope:     true,
	OptionLoopback:  true,
	OptionService:   true,
	OptionError:     true,
	OptionChange:    true,
}

// Config holds the engine configuration. It is copied when the engine
// starts and never changes while the engine runs.
type Config struct {
	// Port is the UDP port to bind and to broadcast to. 0 binds an
	// ephemeral port and broadcasts to whatever port was assigned.
	Port int

	// Advertise is the interval between announcements, floored to whole
	// seconds and clamped to at least MinAdvertise.
	Advertise time.Duration

	// Purge is the maximum age of a discovered service, floored to whole
	// seconds. Zero or negative disables expiry.
	Purge time.Duration

	// Scope is a free-form label grouping related hosts
	Scope string

	// Loopback includes loopback/internal interfaces when advertising
	Loopback bool

	// Services are advertised on every tick
	Services []ServiceDescriptor

	// OnError receives runtime errors (send faults, malformed datagrams,
	// skipped interfaces, socket faults)
	OnError func(error)

	// OnChange receives the registry snapshot whenever it changes
	OnChange func([]Service)
}

// DefaultConfig returns the configuration used for unset options.
func DefaultConfig() Config {
	return Config{
		Port:      DefaultPort,
		Advertise: DefaultAdvertise,
		Purge:     DefaultPurge,
		Loopback:  true,
	}
}

// Validate checks value ranges. Unknown keys are caught by ParseConfig.
func (c *Config) Validate() error {
	var errs error
	if c.Port < 0 || c.Port > 65535 {
		errs = multierr.Append(errs, newInvalidOptionError(OptionPort, fmt.Sprintf("port %d out of range", c.Port)))
	}
	for _, svc := range c.Services {
		if err := svc.Validate(); err != nil {
			errs = multierr.Append(errs, newInvalidOptionError(OptionService, err.Error()))
		}
	}
	return errs
}

// AdvertiseInterval returns the effective advertise interval.
func (c *Config) AdvertiseInterval() time.Duration {
	d := c.Advertise.Truncate(time.Second)
	if d < MinAdvertise {
		return MinAdvertise
	}
	return d
}

// PurgeWindow returns the effective purge window (0 when disabled).
func (c *Config) PurgeWindow() time.Duration {
	d := c.Purge.Truncate(time.Second)
	if d <= 0 {
		return 0
	}
	return d
}

// frozen returns a copy that shares no mutable state with c.
func (c Config) frozen() Config {
	c.Services = append([]ServiceDescriptor(nil), c.Services...)
	return c
}

// ParseConfig merges raw options over DefaultConfig.
//
// Any key outside the recognized set fails with an unknown option error
// before values are looked at. Values may come from Go code or from a
// JSON/YAML decoder: seconds may be given as numbers, numeric strings,
// duration strings ("15s") or time.Duration.
func ParseConfig(raw map[string]any) (Config, error) {
	cfg := DefaultConfig()

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var errs error
	for _, key := range keys {
		if !knownOptions[key] {
			errs = multierr.Append(errs, newUnknownOptionError(key))
		}
	}
	if errs != nil {
		return Config{}, errs
	}

	for _, key := range keys {
		if err := applyOption(&cfg, key, raw[key]); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		return Config{}, errs
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyOption(cfg *Config, key string, value any) error {
	var err error
	switch key {
	case OptionPort:
		cfg.Port, err = toInt(value)
	case OptionAdvertise:
		cfg.Advertise, err = toSeconds(value)
	case OptionPurge:
		cfg.Purge, err = toSeconds(value)
	case OptionScope:
		s, ok := value.(string)
		if !ok {
			err = fmt.Errorf("want string, got %T", value)
		}
		cfg.Scope = s
	case OptionLoopback:
		b, ok := value.(bool)
		if !ok {
			err = fmt.Errorf("want bool, got %T", value)
		}
		cfg.Loopback = b
	case OptionService:
		cfg.Services, err = toServices(value)
	case OptionError:
		switch fn := value.(type) {
		case nil:
			cfg.OnError = nil
		case func(error):
			cfg.OnError = fn
		default:
			err = fmt.Errorf("want func(error), got %T", value)
		}
	case OptionChange:
		switch fn := value.(type) {
		case nil:
			cfg.OnChange = nil
		case func([]Service):
			cfg.OnChange = fn
		default:
			err = fmt.Errorf("want func([]Service), got %T", value)
		}
	}
	if err != nil {
		return newInvalidOptionError(key, err.Error())
	}
	return nil
}

func toInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case uint64:
		if v > math.MaxInt32 {
			return 0, fmt.Errorf("value %d too large", v)
		}
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("want integer, got %v", v)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("want integer, got %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("want integer, got %T", value)
	}
}

func toSeconds(value any) (time.Duration, error) {
	switch v := value.(type) {
	case time.Duration:
		return v, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d, nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("want seconds or duration, got %q", v)
		}
		return time.Duration(f * float64(time.Second)), nil
	default:
		n, err := toInt(value)
		if err != nil {
			return 0, fmt.Errorf("want seconds or duration, got %T", value)
		}
		return time.Duration(n) * time.Second, nil
	}
}

func toServices(value any) ([]ServiceDescriptor, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []ServiceDescriptor:
		return append([]ServiceDescriptor(nil), v...), nil
	case []map[string]any:
		out := make([]ServiceDescriptor, 0, len(v))
		for i, m := range v {
			svc, err := serviceFromMap(m)
			if err != nil {
				return nil, fmt.Errorf("service[%d]: %w", i, err)
			}
			out = append(out, svc)
		}
		return out, nil
	case []any:
		out := make([]ServiceDescriptor, 0, len(v))
		for i, item := range v {
			switch s := item.(type) {
			case ServiceDescriptor:
				out = append(out, s)
			case map[string]any:
				svc, err := serviceFromMap(s)
				if err != nil {
					return nil, fmt.Errorf("service[%d]: %w", i, err)
				}
				out = append(out, svc)
			default:
				return nil, fmt.Errorf("service[%d]: want object, got %T", i, item)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("want service list, got %T", value)
	}
}

func serviceFromMap(m map[string]any) (ServiceDescriptor, error) {
	var svc ServiceDescriptor
	for key, value := range m {
		switch key {
		case "name":
			s, ok := value.(string)
			if !ok {
				return svc, fmt.Errorf("name: want string, got %T", value)
			}
			svc.Name = s
		case "port":
			n, err := toInt(value)
			if err != nil {
				return svc, fmt.Errorf("port: %w", err)
			}
			svc.Port = n
		case "secure":
			b, ok := value.(bool)
			if !ok {
				return svc, fmt.Errorf("secure: want bool, got %T", value)
			}
			svc.Secure = b
		case "path":
			s, ok := value.(string)
			if !ok {
				return svc, fmt.Errorf("path: want string, got %T", value)
			}
			svc.Path = s
		default:
			return svc, fmt.Errorf("unknown service field %q", key)
		}
	}
	return svc, nil
}
