package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/muurk/nsd/internal/addrinfo"
	"github.com/muurk/nsd/internal/discovery"
	"github.com/muurk/nsd/internal/netif"
)

// ServiceColumns are the column titles of service tables
var ServiceColumns = []string{"ADDRESS", "SERVICE", "HOST", "URL", "SCOPE", "AGE"}

// ServiceRow returns the table cells for one service.
func ServiceRow(svc *discovery.Service, now time.Time) []string {
	return []string{
		svc.Address,
		svc.Name,
		svc.Hostname,
		svc.URL(),
		svc.Scope,
		FormatAge(now.Sub(svc.LastSeen)),
	}
}

// FormatAge renders a last-seen age in whole seconds or minutes
func FormatAge(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return strconv.Itoa(int(d/time.Second)) + "s"
	}
	return fmt.Sprintf("%dm%02ds", int(d/time.Minute), int(d%time.Minute/time.Second))
}

// RenderServices renders a registry snapshot as a bordered table.
func RenderServices(services []discovery.Service, now time.Time) string {
	if len(services) == 0 {
		return EmptyStyle.Render("No services discovered")
	}

	rows := make([][]string, 0, len(services))
	for i := range services {
		rows = append(rows, ServiceRow(&services[i], now))
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(PrimaryColor)).
		Headers(ServiceColumns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case col == 2 || col == 4:
				return TableMutedCellStyle
			default:
				return TableCellStyle
			}
		}).
		Render()
}

// RenderInterfaces renders enumerated interfaces with the broadcast address
// announcements for each would go to.
func RenderInterfaces(ifaces []netif.Interface) string {
	if len(ifaces) == 0 {
		return EmptyStyle.Render("No IPv4 interfaces found")
	}

	rows := make([][]string, 0, len(ifaces))
	for _, iface := range ifaces {
		broadcast := "-"
		if info, err := addrinfo.Compute(iface.CIDR()); err != nil {
			broadcast = "invalid"
		} else if info.HasBroadcast() {
			broadcast = info.Broadcast.String()
		}
		internal := ""
		if iface.Internal {
			internal = "yes"
		}
		rows = append(rows, []string{iface.Name, iface.CIDR(), broadcast, internal})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(PrimaryColor)).
		Headers("NAME", "ADDRESS", "BROADCAST", "INTERNAL").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableCellStyle
		}).
		Render()
}

// AddrInfoFields lists the fields of an address record in display order.
// Fields that do not apply to the record are left out.
func AddrInfoFields(info *addrinfo.Info) []Field {
	fields := []Field{{"Address", info.Address.String()}}
	if info.Masked() {
		fields = append(fields,
			Field{"Netmask", info.Netmask.String()},
			Field{"CIDR", "/" + strconv.Itoa(info.Prefix)},
			Field{"Hostmask", info.Hostmask.String()},
			Field{"Network", info.Network.String()},
		)
	}

	class := string(info.Class)
	if class == "" {
		class = "none"
	}
	fields = append(fields, Field{"Class", class})

	if info.Masked() {
		broadcast := "none"
		if info.HasBroadcast() {
			broadcast = info.Broadcast.String()
		}
		fields = append(fields, Field{"Broadcast", broadcast}, Field{"Size", strconv.FormatUint(info.Size, 10)})
		if info.First.IsValid() && info.Last.IsValid() {
			fields = append(fields, Field{"Hosts", info.First.String() + " - " + info.Last.String()})
		}
	}
	return fields
}

// RenderAddrInfo renders an address record as aligned key/value lines
func RenderAddrInfo(info *addrinfo.Info) string {
	fields := AddrInfoFields(info)
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, ResultKeyStyle.Render("  "+f.Key+":")+" "+ResultValueStyle.Render(f.Value))
	}
	return strings.Join(lines, "\n")
}
