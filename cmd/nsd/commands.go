package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/nsd/internal/addrinfo"
	"github.com/muurk/nsd/internal/config"
	"github.com/muurk/nsd/internal/discovery"
	"github.com/muurk/nsd/internal/logging"
	"github.com/muurk/nsd/internal/netif"
	"github.com/muurk/nsd/internal/status"
	"github.com/muurk/nsd/internal/ui"
)

// shutdownTimeout bounds how long the status server may take to drain
const shutdownTimeout = 5 * time.Second

// Run command flags
var (
	runPort          int
	runAdvertise     int
	runPurge         int
	runScope         string
	runLoopback      bool
	runServices      []string
	runPrintInterval int
	runTUI           bool
	runStatusAddr    string
)

// runCmd starts the discovery engine
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Advertise services and discover peers",
	Long: `Start the discovery engine.

Settings come from the config file and are overridden by flags. Services
given with --service are added to those in the file, replacing any with the
same name.

The registry is printed every --print-interval seconds, or shown live with
--tui when stdout is a terminal. --status-addr serves the registry, health
and Prometheus metrics over HTTP, with a WebSocket stream at /ws.`,
	Example: `  # Advertise one service with the default settings
  nsd run --service WarehouseCatalog:8080:/api/whc/V01/

  # TLS service, faster announcements, live view
  nsd run --service Billing:8443:secure --advertise 5 --tui

  # Discovery only, with the status server on localhost
  nsd run --status-addr 127.0.0.1:9193`,
	RunE: runRun,
}

func init() {
	def := discovery.DefaultConfig()
	runCmd.Flags().IntVar(&runPort, "port", def.Port, "UDP port to bind and broadcast to")
	runCmd.Flags().IntVar(&runAdvertise, "advertise", int(def.Advertise/time.Second), "Seconds between announcements (minimum 5)")
	runCmd.Flags().IntVar(&runPurge, "purge", int(def.Purge/time.Second), "Seconds before a silent service is dropped (0 = never)")
	runCmd.Flags().StringVar(&runScope, "scope", "", "Scope label sent with announcements")
	runCmd.Flags().BoolVar(&runLoopback, "loopback", def.Loopback, "Also advertise on loopback interfaces")
	runCmd.Flags().StringArrayVar(&runServices, "service", nil, "Service to advertise as name:port[:secure][:path] (repeatable)")
	runCmd.Flags().IntVar(&runPrintInterval, "print-interval", config.DefaultPrintInterval, "Seconds between registry printouts")
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "Show the registry in a live terminal view")
	runCmd.Flags().StringVar(&runStatusAddr, "status-addr", "", "Listen address of the HTTP status server (disabled if empty)")
}

// loadRunConfig reads the config file and applies explicitly set flags.
func loadRunConfig(cmd *cobra.Command) (*config.File, error) {
	f, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		f.Port = runPort
	}
	if flags.Changed("advertise") {
		f.Advertise = runAdvertise
	}
	if flags.Changed("purge") {
		f.Purge = runPurge
	}
	if flags.Changed("scope") {
		f.Scope = runScope
	}
	if flags.Changed("loopback") {
		f.Loopback = runLoopback
	}
	if flags.Changed("print-interval") {
		f.Preferences.PrintInterval = runPrintInterval
	}
	if flags.Changed("status-addr") {
		f.Preferences.StatusAddr = runStatusAddr
	}

	services, err := parseServiceFlags(runServices)
	if err != nil {
		return nil, err
	}
	for _, svc := range services {
		f.AddService(svc)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	f, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	if logLevel == "" && f.Preferences.LogLevel != "" {
		if err := logging.Initialize(f.Preferences.LogLevel); err != nil {
			return err
		}
	}
	logger := logging.Named("nsd")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	engine := discovery.New(
		discovery.WithLogger(logging.Named("discovery")),
		discovery.WithMetrics(discovery.NewMetrics(reg)),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var srv *status.Server
	if addr := f.Preferences.StatusAddr; addr != "" {
		srv = status.New(engine, status.WithLogger(logging.Named("status")), status.WithGatherer(reg))
		if err := srv.Start(addr); err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				logger.Warn("Status server shutdown failed", zap.Error(err))
			}
		}()
	}

	live := runTUI && ui.IsTerminal(os.Stdout)
	if runTUI && !live {
		logger.Warn("stdout is not a terminal, falling back to periodic output")
	}

	changes := make(chan []discovery.Service, 1)
	errs := make(chan error, 8)
	fatal := make(chan error, 1)

	cfg := f.EngineConfig()
	cfg.OnChange = func(services []discovery.Service) {
		if srv != nil {
			srv.Publish(services)
		}
		if live {
			sendLatest(changes, services)
		}
	}
	cfg.OnError = func(err error) {
		if live {
			select {
			case errs <- err:
			default:
			}
		} else {
			logger.Warn("Discovery error", zap.Error(err))
		}
		// A receive fault leaves the engine idle
		if discovery.IsSocketError(err) && !engine.Running() {
			select {
			case fatal <- err:
			default:
			}
			stop()
		}
	}

	if err := engine.Start(cfg); err != nil {
		if discovery.IsBindError(err) {
			ui.NewPrinter(cmd.ErrOrStderr()).PrintError("Discovery failed to start", err,
				"Another process may hold the port without SO_REUSEPORT",
				"Choose a different port with --port",
			)
		}
		return err
	}
	defer func() {
		if err := engine.Stop(); err != nil {
			logger.Warn("Engine stop failed", zap.Error(err))
		}
	}()

	if live {
		m := ui.NewLiveModel("nsd discovery", engine.Services(), changes, errs)
		if err := ui.RunLive(ctx, m); err != nil {
			return err
		}
	} else {
		printRunHeader(cmd, f, engine, srv)
		printLoop(ctx, cmd, engine, f.PrintInterval())
	}

	select {
	case err := <-fatal:
		return err
	default:
		return nil
	}
}

// sendLatest delivers v, replacing any value still waiting in ch.
func sendLatest(ch chan []discovery.Service, v []discovery.Service) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func printRunHeader(cmd *cobra.Command, f *config.File, engine *discovery.Engine, srv *status.Server) {
	names := make([]string, 0, len(f.Services))
	for _, svc := range f.Services {
		names = append(names, svc.Name+":"+strconv.Itoa(svc.Port))
	}
	if len(names) == 0 {
		names = append(names, "none (discovery only)")
	}

	purge := "never"
	if f.Purge > 0 {
		purge = strconv.Itoa(f.Purge) + "s"
	}

	listening := "-"
	if addr := engine.LocalAddr(); addr != nil {
		listening = addr.String()
	}

	params := []ui.Field{
		{Key: "Listening", Value: listening},
		{Key: "Advertise", Value: engine.AdvertiseInterval().String()},
		{Key: "Purge", Value: purge},
		{Key: "Scope", Value: f.Scope},
		{Key: "Services", Value: strings.Join(names, ", ")},
	}
	if srv != nil {
		params = append(params, ui.Field{Key: "Status", Value: "http://" + srv.Addr().String()})
	}

	ui.NewPrinter(cmd.OutOrStdout()).PrintHeader("Discovery", "nsd run", params...)
}

// printLoop prints the registry every interval until ctx is done.
func printLoop(ctx context.Context, cmd *cobra.Command, engine *discovery.Engine, interval time.Duration) {
	p := ui.NewPrinter(cmd.OutOrStdout())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			p.Println(ui.RenderServices(engine.Services(), now))
		}
	}
}

// Addr command flags
var addrJSON bool

// addrCmd prints subnet details for addresses
var addrCmd = &cobra.Command{
	Use:   "addr <address[/mask]>...",
	Short: "Show subnet details for an IPv4 address",
	Long: `Compute netmask, network, broadcast and host range for IPv4 addresses.

The mask may be a prefix length or a dotted netmask. Addresses may also be
given as a single unsigned integer.`,
	Example: `  nsd addr 192.168.1.10/24
  nsd addr 10.0.0.1/255.255.0.0
  nsd addr 3232235786/24 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAddr,
}

func init() {
	addrCmd.Flags().BoolVar(&addrJSON, "json", false, "Output JSON")
}

func runAddr(cmd *cobra.Command, args []string) error {
	p := ui.NewPrinter(cmd.OutOrStdout())

	var infos []*addrinfo.Info
	for _, arg := range args {
		info, err := addrinfo.Compute(arg)
		if err != nil {
			if !addrJSON {
				p.PrintError("Invalid address", err,
					"Use a.b.c.d, a.b.c.d/len or a.b.c.d/m.m.m.m",
					"Prefix length must be 0 to 32",
					"Netmask bits must be contiguous",
				)
			}
			return err
		}
		infos = append(infos, info)
	}

	if addrJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if len(infos) == 1 {
			return enc.Encode(infos[0])
		}
		return enc.Encode(infos)
	}

	for _, info := range infos {
		p.PrintHeader("Address Info", "nsd addr "+info.Address.String())
		p.Println(ui.RenderAddrInfo(info))
		p.Newline()
	}
	return nil
}

// Interfaces command flags
var excludeInternal bool

// interfacesCmd lists the interfaces announcements go out on
var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List IPv4 interfaces and their broadcast addresses",
	RunE: func(cmd *cobra.Command, args []string) error {
		ifaces := netif.System{}.IPv4Interfaces(excludeInternal)
		p := ui.NewPrinter(cmd.OutOrStdout())
		p.PrintHeader("Interfaces", "nsd interfaces")
		p.Println(ui.RenderInterfaces(ifaces))
		return nil
	},
}

func init() {
	interfacesCmd.Flags().BoolVar(&excludeInternal, "exclude-internal", false, "Leave out loopback interfaces")
}

// Init command flags
var initForce bool

// initCmd writes a default config file
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := ui.NewPrinter(cmd.OutOrStdout())
		path, err := config.CreateDefaultConfig(configPath, initForce)
		if errors.Is(err, config.ErrExists) {
			p.PrintWarning("Config file already exists",
				ui.Field{Key: "Path", Value: path},
				ui.Field{Key: "Hint", Value: "use --force to overwrite"},
			)
			return err
		}
		if err != nil {
			return err
		}
		p.PrintSuccess("Configuration written", ui.Field{Key: "Path", Value: path})
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}
