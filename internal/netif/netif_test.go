package netif

import (
	"net/netip"
	"testing"
)

func TestStatic_IPv4Interfaces(t *testing.T) {
	s := Static{
		{Name: "lo", Address: netip.MustParseAddr("127.0.0.1"), Prefix: 8, Internal: true},
		{Name: "eth0", Address: netip.MustParseAddr("192.168.1.10"), Prefix: 24},
	}

	if got := s.IPv4Interfaces(false); len(got) != 2 {
		t.Errorf("IPv4Interfaces(false) returned %d interfaces, want 2", len(got))
	}

	got := s.IPv4Interfaces(true)
	if len(got) != 1 || got[0].Name != "eth0" {
		t.Errorf("IPv4Interfaces(true) = %v, want only eth0", got)
	}
}

func TestInterface_CIDR(t *testing.T) {
	iface := Interface{Address: netip.MustParseAddr("10.1.2.3"), Prefix: 16}
	if got := iface.CIDR(); got != "10.1.2.3/16" {
		t.Errorf("CIDR() = %q, want 10.1.2.3/16", got)
	}
}

func TestSystem_IPv4Interfaces(t *testing.T) {
	// Host dependent: only check invariants of whatever is returned
	for _, iface := range (System{}).IPv4Interfaces(false) {
		if !iface.Address.Is4() {
			t.Errorf("%s: non-IPv4 address %v", iface.Name, iface.Address)
		}
		if iface.Prefix < 0 || iface.Prefix > 32 {
			t.Errorf("%s: prefix %d out of range", iface.Name, iface.Prefix)
		}
	}

	for _, iface := range (System{}).IPv4Interfaces(true) {
		if iface.Internal {
			t.Errorf("%s: internal interface returned with excludeInternal", iface.Name)
		}
	}
}

func TestFunc_IPv4Interfaces(t *testing.T) {
	var gotExclude bool
	f := Func(func(excludeInternal bool) []Interface {
		gotExclude = excludeInternal
		return nil
	})
	f.IPv4Interfaces(true)
	if !gotExclude {
		t.Error("Func should forward excludeInternal")
	}
}
