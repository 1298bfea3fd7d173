package discovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceDescriptor is a service this host advertises.
type ServiceDescriptor struct {
	// Name identifies the service (e.g., "WarehouseCatalog")
	Name string `json:"name" yaml:"name"`

	// Port is the port the service listens on
	Port int `json:"port" yaml:"port"`

	// Secure is true when the service expects TLS
	Secure bool `json:"secure" yaml:"secure"`

	// Path is the base path of the service API (e.g., "/api/whc/V01/")
	Path string `json:"path" yaml:"path"`
}

// Validate checks the descriptor can be put on the wire
func (d ServiceDescriptor) Validate() error {
	if d.Name == "" {
		return errors.New("service name is empty")
	}
	if d.Port < 0 || d.Port > 65535 {
		return fmt.Errorf("service %q: port %d out of range", d.Name, d.Port)
	}
	return nil
}

// Announcement is the payload broadcast on every advertise tick.
type Announcement struct {
	Hostname   string              `json:"hostname"`
	Scope      string              `json:"scope"`
	OSUptime   int64               `json:"uptime_os"`
	ProcUptime int64               `json:"uptime_proc"`
	Services   []ServiceDescriptor `json:"service"`
}

// Encode serializes the announcement as UTF-8 JSON
func (a *Announcement) Encode() ([]byte, error) {
	out := *a
	if out.Services == nil {
		out.Services = []ServiceDescriptor{}
	}
	return json.Marshal(&out)
}

// DecodeAnnouncement parses and validates an inbound payload.
//
// The whole payload is rejected when it is not JSON, when the service list
// is missing, or when any entry lacks a name or carries an out-of-range
// port. Unknown fields are ignored.
func DecodeAnnouncement(data []byte) (*Announcement, error) {
	var a Announcement
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if a.Services == nil {
		return nil, errors.New("missing service list")
	}
	for i, svc := range a.Services {
		if err := svc.Validate(); err != nil {
			return nil, fmt.Errorf("service[%d]: %w", i, err)
		}
	}
	return &a, nil
}

// Service is a service discovered on the network.
type Service struct {
	// Hostname is the announcing host's name
	Hostname string `json:"hostname"`

	// Name is the service name
	Name string `json:"service"`

	// Scope is the announcing host's scope label
	Scope string `json:"scope"`

	// Address is the sender's IPv4 address
	Address string `json:"address"`

	// Port is the service port
	Port int `json:"port"`

	// Secure is true when the service expects TLS
	Secure bool `json:"secure"`

	// Path is the service base path
	Path string `json:"path"`

	// OSUptime and ProcUptime are the sender's uptimes in seconds
	OSUptime   int64 `json:"uptime_os"`
	ProcUptime int64 `json:"uptime_proc"`

	// LastSeen is when the latest announcement for this service arrived
	LastSeen time.Time `json:"last_seen"`
}

// Key returns the registry identity of the service
func (s *Service) Key() string {
	return s.Address + "/" + s.Name
}

// String returns a human-readable string representation of the service
func (s *Service) String() string {
	return fmt.Sprintf("%s on %s at %s:%d", s.Name, s.Hostname, s.Address, s.Port)
}

// URL returns the base URL of the service
func (s *Service) URL() string {
	scheme := "http"
	if s.Secure {
		scheme = "https"
	}
	path := s.Path
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return fmt.Sprintf("%s://%s:%d%s", scheme, s.Address, s.Port, path)
}

// sameAdvertisement reports whether two entries advertise the same thing,
// ignoring uptimes and last-seen time.
func (s *Service) sameAdvertisement(o *Service) bool {
	return s.Hostname == o.Hostname &&
		s.Scope == o.Scope &&
		s.Port == o.Port &&
		s.Secure == o.Secure &&
		s.Path == o.Path
}

// servicesFrom expands an announcement into registry entries.
func servicesFrom(a *Announcement, address string, seen time.Time) []Service {
	out := make([]Service, 0, len(a.Services))
	for _, svc := range a.Services {
		out = append(out, Service{
			Hostname:   a.Hostname,
			Name:       svc.Name,
			Scope:      a.Scope,
			Address:    address,
			Port:       svc.Port,
			Secure:     svc.Secure,
			Path:       svc.Path,
			OSUptime:   a.OSUptime,
			ProcUptime: a.ProcUptime,
			LastSeen:   seen,
		})
	}
	return out
}
