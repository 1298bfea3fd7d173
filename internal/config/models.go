package config

import (
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/muurk/nsd/internal/discovery"
)

// CurrentVersion is the configuration file format version
const CurrentVersion = 1

// DefaultPrintInterval is how often `nsd run` prints the registry, in seconds
const DefaultPrintInterval = 60

// File represents the entire launcher configuration file.
type File struct {
	Version     int                           `yaml:"version"`
	Port        int                           `yaml:"port"`              // UDP discovery port
	Advertise   int                           `yaml:"advertise"`         // Seconds between announcements
	Purge       int                           `yaml:"purge"`             // Seconds before a silent service is dropped (0 = never)
	Scope       string                        `yaml:"scope,omitempty"`   // Free-form label sent with announcements
	Loopback    bool                          `yaml:"loopback"`          // Also advertise on loopback interfaces
	Services    []discovery.ServiceDescriptor `yaml:"service,omitempty"` // Services this host advertises
	Preferences *Preferences                  `yaml:"preferences,omitempty"`
}

// Preferences represents launcher settings that do not reach the engine.
type Preferences struct {
	PrintInterval int    `yaml:"print_interval"`        // Seconds between registry printouts
	StatusAddr    string `yaml:"status_addr,omitempty"` // Listen address of the HTTP status server, empty disables it
	LogLevel      string `yaml:"log_level,omitempty"`   // debug, info, warn, error
}

// NewFile creates a File holding the engine defaults.
func NewFile() *File {
	def := discovery.DefaultConfig()
	return &File{
		Version:     CurrentVersion,
		Port:        def.Port,
		Advertise:   int(def.Advertise / time.Second),
		Purge:       int(def.Purge / time.Second),
		Loopback:    def.Loopback,
		Preferences: defaultPreferences(),
	}
}

func defaultPreferences() *Preferences {
	return &Preferences{
		PrintInterval: DefaultPrintInterval,
	}
}

// EngineConfig converts the file into a discovery engine configuration.
// Callbacks are left unset for the caller to fill in.
func (f *File) EngineConfig() discovery.Config {
	cfg := discovery.DefaultConfig()
	cfg.Port = f.Port
	cfg.Advertise = time.Duration(f.Advertise) * time.Second
	cfg.Purge = time.Duration(f.Purge) * time.Second
	cfg.Scope = f.Scope
	cfg.Loopback = f.Loopback
	cfg.Services = append([]discovery.ServiceDescriptor(nil), f.Services...)
	return cfg
}

// PrintInterval returns the registry print interval
func (f *File) PrintInterval() time.Duration {
	if f.Preferences == nil || f.Preferences.PrintInterval <= 0 {
		return DefaultPrintInterval * time.Second
	}
	return time.Duration(f.Preferences.PrintInterval) * time.Second
}

// Validate checks the file for values the engine would reject.
// All problems are reported together.
func (f *File) Validate() error {
	var errs error
	if f.Version != CurrentVersion {
		errs = multierr.Append(errs, fmt.Errorf("unsupported config version: %d (expected %d)", f.Version, CurrentVersion))
	}
	cfg := f.EngineConfig()
	errs = multierr.Append(errs, cfg.Validate())
	return errs
}

// AddService appends a service, replacing any existing one with the same name.
func (f *File) AddService(svc discovery.ServiceDescriptor) {
	for i := range f.Services {
		if f.Services[i].Name == svc.Name {
			f.Services[i] = svc
			return
		}
	}
	f.Services = append(f.Services, svc)
}
