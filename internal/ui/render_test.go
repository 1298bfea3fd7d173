package ui

import (
	"bytes"
	"errors"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/nsd/internal/addrinfo"
	"github.com/muurk/nsd/internal/discovery"
	"github.com/muurk/nsd/internal/netif"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testServices() []discovery.Service {
	return []discovery.Service{
		{
			Hostname: "alpha",
			Name:     "WarehouseCatalog",
			Scope:    "default",
			Address:  "192.168.1.20",
			Port:     8080,
			Path:     "/api/whc/V01/",
			LastSeen: testNow.Add(-5 * time.Second),
		},
		{
			Hostname: "beta",
			Name:     "Billing",
			Scope:    "prod",
			Address:  "192.168.1.30",
			Port:     443,
			Secure:   true,
			LastSeen: testNow.Add(-90 * time.Second),
		},
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{-time.Second, "0s"},
		{1500 * time.Millisecond, "1s"},
		{59 * time.Second, "59s"},
		{time.Minute, "1m00s"},
		{125 * time.Second, "2m05s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAge(tt.in), "FormatAge(%v)", tt.in)
	}
}

func TestServiceRow(t *testing.T) {
	services := testServices()

	row := ServiceRow(&services[0], testNow)
	assert.Equal(t, []string{
		"192.168.1.20", "WarehouseCatalog", "alpha",
		"http://192.168.1.20:8080/api/whc/V01/", "default", "5s",
	}, row)

	row = ServiceRow(&services[1], testNow)
	assert.Equal(t, "https://192.168.1.30:443", row[3])
	assert.Equal(t, "1m30s", row[5])
}

func TestRenderServices(t *testing.T) {
	out := RenderServices(testServices(), testNow)

	for _, col := range ServiceColumns {
		assert.Contains(t, out, col)
	}
	assert.Contains(t, out, "WarehouseCatalog")
	assert.Contains(t, out, "http://192.168.1.20:8080/api/whc/V01/")
	assert.Contains(t, out, "https://192.168.1.30:443")
	assert.Less(t, strings.Index(out, "WarehouseCatalog"), strings.Index(out, "Billing"))
}

func TestRenderServicesEmpty(t *testing.T) {
	assert.Contains(t, RenderServices(nil, testNow), "No services discovered")
}

func TestRenderInterfaces(t *testing.T) {
	out := RenderInterfaces([]netif.Interface{
		{Name: "lo", Address: netip.MustParseAddr("127.0.0.1"), Prefix: 8, Internal: true},
		{Name: "eth0", Address: netip.MustParseAddr("192.168.1.10"), Prefix: 24},
		{Name: "ptp0", Address: netip.MustParseAddr("10.0.0.1"), Prefix: 32},
	})

	assert.Contains(t, out, "127.0.0.1/8")
	assert.Contains(t, out, "127.255.255.255")
	assert.Contains(t, out, "192.168.1.10/24")
	assert.Contains(t, out, "192.168.1.255")
	assert.Contains(t, out, "yes")

	// /32 has no broadcast address
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "ptp0") {
			assert.Contains(t, line, "-")
			assert.NotContains(t, line, "10.0.0.255")
		}
	}
}

func TestRenderInterfacesEmpty(t *testing.T) {
	assert.Contains(t, RenderInterfaces(nil), "No IPv4 interfaces found")
}

func TestAddrInfoFields(t *testing.T) {
	t.Run("masked", func(t *testing.T) {
		info, err := addrinfo.Compute("192.168.1.10/24")
		require.NoError(t, err)

		got := map[string]string{}
		keys := []string{}
		for _, f := range AddrInfoFields(info) {
			got[f.Key] = f.Value
			keys = append(keys, f.Key)
		}
		assert.Equal(t, []string{"Address", "Netmask", "CIDR", "Hostmask", "Network", "Class", "Broadcast", "Size", "Hosts"}, keys)
		assert.Equal(t, "255.255.255.0", got["Netmask"])
		assert.Equal(t, "/24", got["CIDR"])
		assert.Equal(t, "0.0.0.255", got["Hostmask"])
		assert.Equal(t, "192.168.1.0", got["Network"])
		assert.Equal(t, "C", got["Class"])
		assert.Equal(t, "192.168.1.255", got["Broadcast"])
		assert.Equal(t, "256", got["Size"])
		assert.Equal(t, "192.168.1.1 - 192.168.1.254", got["Hosts"])
	})

	t.Run("bare address", func(t *testing.T) {
		info, err := addrinfo.Compute("10.1.2.3")
		require.NoError(t, err)

		fields := AddrInfoFields(info)
		assert.Equal(t, []Field{{"Address", "10.1.2.3"}, {"Class", "A"}}, fields)
	})

	t.Run("no broadcast", func(t *testing.T) {
		info, err := addrinfo.Compute("10.0.0.1/31")
		require.NoError(t, err)

		for _, f := range AddrInfoFields(info) {
			if f.Key == "Broadcast" {
				assert.Equal(t, "none", f.Value)
			}
		}
	})

	t.Run("classless", func(t *testing.T) {
		info, err := addrinfo.Compute("230.1.1.1")
		require.NoError(t, err)
		assert.Contains(t, AddrInfoFields(info), Field{"Class", "none"})
	})
}

func TestRenderAddrInfo(t *testing.T) {
	info, err := addrinfo.Compute("172.16.5.4/255.255.0.0")
	require.NoError(t, err)

	out := RenderAddrInfo(info)
	assert.Contains(t, out, "Network:")
	assert.Contains(t, out, "172.16.0.0")
	assert.Contains(t, out, "172.16.255.255")
	assert.Len(t, strings.Split(out, "\n"), len(AddrInfoFields(info)))
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf).SetWidth(80)
	assert.Equal(t, 80, p.Width())

	p.PrintHeader("Address Info", "nsd addr 10.0.0.1/8", Field{"Input", "10.0.0.1/8"})
	p.PrintSuccess("Configuration written", Field{"Path", "/tmp/nsd/config.yaml"})
	p.PrintWarning("No interfaces")
	p.PrintError("Bind failed", errors.New("address already in use"), "Check for another nsd instance")

	out := buf.String()
	assert.Contains(t, out, "ADDRESS INFO")
	assert.Contains(t, out, "nsd addr 10.0.0.1/8")
	assert.Contains(t, out, "Input:")
	assert.Contains(t, out, "SUCCESS")
	assert.Contains(t, out, "/tmp/nsd/config.yaml")
	assert.Contains(t, out, "WARNING")
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "address already in use")
	assert.Contains(t, out, "Troubleshooting:")
	assert.Contains(t, out, "Check for another nsd instance")
}

func TestPrinterWidthClamped(t *testing.T) {
	p := NewPrinter(&bytes.Buffer{})
	assert.Equal(t, MinTerminalWidth, p.SetWidth(10).Width())
	assert.Equal(t, MaxContentWidth, p.SetWidth(500).Width())
}
