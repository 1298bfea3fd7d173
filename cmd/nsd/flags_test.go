package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/nsd/internal/discovery"
)

func TestParseServiceFlag(t *testing.T) {
	tests := []struct {
		in      string
		want    discovery.ServiceDescriptor
		wantErr string
	}{
		{in: "Catalog:8080", want: discovery.ServiceDescriptor{Name: "Catalog", Port: 8080}},
		{in: "Catalog:8443:secure", want: discovery.ServiceDescriptor{Name: "Catalog", Port: 8443, Secure: true}},
		{in: "Catalog:8080:/api/whc/V01/", want: discovery.ServiceDescriptor{Name: "Catalog", Port: 8080, Path: "/api/whc/V01/"}},
		{in: "Catalog:8443:secure:/api/", want: discovery.ServiceDescriptor{Name: "Catalog", Port: 8443, Secure: true, Path: "/api/"}},
		{in: "Catalog:8080:/a:b", want: discovery.ServiceDescriptor{Name: "Catalog", Port: 8080, Path: "/a:b"}},
		{in: "Catalog", wantErr: "want name:port"},
		{in: "Catalog:http", wantErr: "not a number"},
		{in: ":8080", wantErr: "name is empty"},
		{in: "Catalog:70000", wantErr: "out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseServiceFlag(tt.in)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseServiceFlags(t *testing.T) {
	got, err := parseServiceFlags([]string{"A:1", "B:2:secure"})
	require.NoError(t, err)
	assert.Equal(t, []discovery.ServiceDescriptor{
		{Name: "A", Port: 1},
		{Name: "B", Port: 2, Secure: true},
	}, got)

	_, err = parseServiceFlags([]string{"A:1", "bad"})
	assert.Error(t, err)
}
