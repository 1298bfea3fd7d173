package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/muurk/nsd/internal/discovery"
)

// parseServiceFlag parses a --service value of the form
// name:port[:secure][:path], e.g. "WarehouseCatalog:8443:secure:/api/whc/V01/".
func parseServiceFlag(value string) (discovery.ServiceDescriptor, error) {
	parts := strings.SplitN(value, ":", 3)
	if len(parts) < 2 {
		return discovery.ServiceDescriptor{}, fmt.Errorf("invalid service %q: want name:port[:secure][:path]", value)
	}

	port, err := strconv.Atoi(parts[1])
	if err != nil {
		return discovery.ServiceDescriptor{}, fmt.Errorf("invalid service %q: port %q is not a number", value, parts[1])
	}

	svc := discovery.ServiceDescriptor{Name: parts[0], Port: port}
	if len(parts) == 3 {
		rest := parts[2]
		switch {
		case rest == "secure":
			svc.Secure = true
		case strings.HasPrefix(rest, "secure:"):
			svc.Secure = true
			svc.Path = strings.TrimPrefix(rest, "secure:")
		default:
			svc.Path = rest
		}
	}

	if err := svc.Validate(); err != nil {
		return discovery.ServiceDescriptor{}, fmt.Errorf("invalid service %q: %w", value, err)
	}
	return svc, nil
}

// parseServiceFlags parses every --service value in order.
func parseServiceFlags(values []string) ([]discovery.ServiceDescriptor, error) {
	out := make([]discovery.ServiceDescriptor, 0, len(values))
	for _, v := range values {
		svc, err := parseServiceFlag(v)
		if err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, nil
}
