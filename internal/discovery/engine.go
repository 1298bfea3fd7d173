package discovery

import (
	"context"
	"errors"
	"net"
	"os"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/muurk/nsd/internal/addrinfo"
	"github.com/muurk/nsd/internal/logging"
	"github.com/muurk/nsd/internal/netif"
	"github.com/muurk/nsd/internal/uptime"
)

// maxDatagramSize is the largest UDP payload over IPv4
const maxDatagramSize = 65507

// Engine advertises the configured services to every local broadcast
// domain and maintains a registry of services announced by peers.
//
// An Engine is Idle until Start succeeds and returns to Idle on Stop or on
// a socket fault. Advertise ticks and inbound datagrams are handled on a
// single goroutine; Services may be called concurrently from any goroutine.
type Engine struct {
	clock      clock.Clock
	enumerator netif.Enumerator
	listen     ListenFunc
	logger     *zap.Logger
	metrics    *Metrics
	hostname   func() (string, error)
	osUptime   func() (time.Duration, error)
	procUptime func() time.Duration

	mu       sync.Mutex
	run      *run      // nil while Idle
	registry *registry // nil while Idle
}

// run is the state of one Start..Stop cycle.
type run struct {
	cfg      Config
	interval time.Duration
	purge    time.Duration
	port     int // port announcements are sent to

	conn     net.PacketConn
	ticker   *clock.Ticker
	inbound  chan datagram
	readErr  chan error
	quit     chan struct{}
	notifier *notifier

	closeOnce sync.Once
	closeErr  error
	wg        sync.WaitGroup
}

type datagram struct {
	data []byte
	addr net.Addr
}

// Option configures an Engine
type Option func(*Engine)

// WithClock sets the clock driving advertise ticks and last-seen times
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithEnumerator sets the source of local interface addresses
func WithEnumerator(en netif.Enumerator) Option {
	return func(e *Engine) { e.enumerator = en }
}

// WithListenFunc sets how the UDP socket is opened
func WithListenFunc(fn ListenFunc) Option {
	return func(e *Engine) { e.listen = fn }
}

// WithLogger sets the engine logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the Prometheus collectors updated by the engine
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithHostname sets the hostname source used in announcements
func WithHostname(fn func() (string, error)) Option {
	return func(e *Engine) { e.hostname = fn }
}

// WithUptime sets the OS and process uptime sources used in announcements
func WithUptime(osFn func() (time.Duration, error), procFn func() time.Duration) Option {
	return func(e *Engine) {
		e.osUptime = osFn
		e.procUptime = procFn
	}
}

// New creates an idle engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		clock:      clock.New(),
		enumerator: netif.System{},
		listen:     ListenUDP4,
		logger:     logging.Named("discovery"),
		hostname:   os.Hostname,
		osUptime:   uptime.OS,
		procUptime: uptime.Process,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartFromMap parses raw options with ParseConfig and starts the engine.
// An unknown key fails before any socket is opened.
func (e *Engine) StartFromMap(raw map[string]any) error {
	cfg, err := ParseConfig(raw)
	if err != nil {
		return err
	}
	return e.Start(cfg)
}

// Start binds the UDP socket and begins advertising and receiving.
//
// The advertise interval is clamped to MinAdvertise. A bind failure is
// returned as a bind error and leaves the engine Idle. Calling Start on a
// running engine does nothing.
func (e *Engine) Start(cfg Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.run != nil {
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg = cfg.frozen()

	conn, err := e.listen(context.Background(), cfg.Port)
	if err != nil {
		e.logger.Error("Failed to bind discovery socket",
			zap.Int("port", cfg.Port),
			zap.Error(err),
		)
		return newBindError(cfg.Port, err)
	}

	r := &run{
		cfg:      cfg,
		interval: cfg.AdvertiseInterval(),
		purge:    cfg.PurgeWindow(),
		port:     boundPort(conn, cfg.Port),
		conn:     conn,
		inbound:  make(chan datagram),
		readErr:  make(chan error, 1),
		quit:     make(chan struct{}),
		notifier: newNotifier(),
	}
	r.ticker = e.clock.Ticker(r.interval)

	e.run = r
	e.registry = newRegistry()
	e.metrics.registrySize(0)

	r.wg.Add(2)
	go e.readLoop(r)
	go e.eventLoop(r)

	e.logger.Info("Discovery engine started",
		zap.String("local_addr", conn.LocalAddr().String()),
		zap.Duration("advertise", r.interval),
		zap.Duration("purge", r.purge),
		zap.String("scope", cfg.Scope),
		zap.Int("services", len(cfg.Services)),
	)

	return nil
}

// Stop cancels the advertise timer, closes the socket and discards the
// registry. It returns once the engine goroutines have exited. Stopping an
// idle engine does nothing.
func (e *Engine) Stop() error {
	e.mu.Lock()
	r := e.run
	e.run = nil
	e.registry = nil
	e.mu.Unlock()

	if r == nil {
		return nil
	}

	err := r.shutdown()
	r.wg.Wait()
	e.metrics.registrySize(0)

	e.logger.Info("Discovery engine stopped")
	return err
}

// Running reports whether the engine is started
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.run != nil
}

// LocalAddr returns the bound socket address, or nil while Idle
func (e *Engine) LocalAddr() net.Addr {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		return nil
	}
	return e.run.conn.LocalAddr()
}

// AdvertiseInterval returns the effective advertise interval, or 0 while Idle
func (e *Engine) AdvertiseInterval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		return 0
	}
	return e.run.interval
}

// Config returns a copy of the running configuration
func (e *Engine) Config() (Config, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		return Config{}, false
	}
	return e.run.cfg.frozen(), true
}

// Services purges expired entries and returns a snapshot of the registry,
// ordered by address and service name. It returns nil while Idle.
func (e *Engine) Services() []Service {
	e.mu.Lock()
	defer e.mu.Unlock()

	r := e.run
	if r == nil {
		return nil
	}

	diff := e.registry.purge(e.clock.Now(), r.purge)
	snapshot := e.registry.snapshot()
	e.metrics.registrySize(len(snapshot))
	e.notifyChange(r, diff, snapshot)

	return snapshot
}

// shutdown closes the socket and releases the loops; safe to call twice.
func (r *run) shutdown() error {
	r.closeOnce.Do(func() {
		close(r.quit)
		r.closeErr = r.conn.Close()
	})
	return r.closeErr
}

// detach moves the engine to Idle if r is still the current run.
func (e *Engine) detach(r *run) {
	e.mu.Lock()
	if e.run == r {
		e.run = nil
		e.registry = nil
	}
	e.mu.Unlock()
}

func (e *Engine) readLoop(r *run) {
	defer r.wg.Done()

	buf := make([]byte, maxDatagramSize)
	for {
		n, addr, err := r.conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			select {
			case r.readErr <- err:
			case <-r.quit:
			}
			return
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		select {
		case r.inbound <- datagram{data: data, addr: addr}:
		case <-r.quit:
			return
		}
	}
}

func (e *Engine) eventLoop(r *run) {
	defer r.wg.Done()
	defer r.notifier.close()
	defer r.ticker.Stop()

	for {
		select {
		case <-r.quit:
			return
		case <-r.ticker.C:
			e.advertise(r)
		case dg := <-r.inbound:
			e.receive(r, dg)
		case err := <-r.readErr:
			e.fail(r, err)
			return
		}
	}
}

// fail handles a fault on the socket: the engine closes it and goes Idle.
func (e *Engine) fail(r *run, err error) {
	e.logger.Error("Discovery socket failed", zap.Error(err))
	e.detach(r)
	_ = r.shutdown()
	e.metrics.registrySize(0)
	e.notifyError(r, newSocketError("receive", "", err))
}

// advertise sends one announcement to the broadcast address of every
// local interface, then purges the registry.
func (e *Engine) advertise(r *run) {
	if len(r.cfg.Services) == 0 {
		e.logger.Debug("No services to advertise")
	} else {
		e.broadcast(r)
	}
	e.purge(r)
}

func (e *Engine) broadcast(r *run) {
	payload, err := e.announcement(r).Encode()
	if err != nil {
		e.notifyError(r, newSocketError("encode", "", err))
		return
	}

	for _, iface := range e.enumerator.IPv4Interfaces(!r.cfg.Loopback) {
		info, err := addrinfo.Compute(iface.CIDR())
		if err != nil {
			e.logger.Warn("Skipping interface",
				zap.String("iface", iface.Name),
				zap.String("cidr", iface.CIDR()),
				zap.Error(err),
			)
			e.notifyError(r, newAddressError(iface.Name, err))
			continue
		}
		if !info.HasBroadcast() {
			e.logger.Debug("Interface has no broadcast address",
				zap.String("iface", iface.Name),
				zap.String("cidr", iface.CIDR()),
			)
			continue
		}

		dst := &net.UDPAddr{IP: info.Broadcast.AsSlice(), Port: r.port}
		if _, err := r.conn.WriteTo(payload, dst); err != nil {
			e.metrics.sendFailed()
			e.logger.Warn("Failed to send announcement",
				zap.String("iface", iface.Name),
				zap.Stringer("dst", dst),
				zap.Error(err),
			)
			e.notifyError(r, newSocketError("send", dst.String(), err))
			continue
		}

		e.metrics.sent()
		logging.LogDatagram(e.logger, "sent", dst.String(), payload)
	}
}

func (e *Engine) announcement(r *run) *Announcement {
	hostname, err := e.hostname()
	if err != nil {
		e.logger.Debug("Hostname unavailable", zap.Error(err))
	}
	osUp, err := e.osUptime()
	if err != nil {
		e.logger.Debug("OS uptime unavailable", zap.Error(err))
	}

	return &Announcement{
		Hostname:   hostname,
		Scope:      r.cfg.Scope,
		OSUptime:   uptime.Seconds(osUp),
		ProcUptime: uptime.Seconds(e.procUptime()),
		Services:   r.cfg.Services,
	}
}

// receive applies one inbound datagram to the registry.
func (e *Engine) receive(r *run, dg datagram) {
	e.metrics.received()
	remote := dg.addr.String()
	logging.LogDatagram(e.logger, "received", remote, dg.data)

	ann, err := DecodeAnnouncement(dg.data)
	if err != nil {
		e.metrics.malformed()
		e.logger.Warn("Dropping malformed datagram",
			zap.String("remote_addr", remote),
			zap.Error(err),
		)
		e.notifyError(r, newMalformedPayloadError(remote, err))
		return
	}

	now := e.clock.Now()
	incoming := servicesFrom(ann, senderIP(dg.addr), now)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.run != r {
		return
	}
	diff := e.registry.replace(incoming)
	diff.merge(e.registry.purge(now, r.purge))
	snapshot := e.registry.snapshot()
	e.metrics.registrySize(len(snapshot))
	e.notifyChange(r, diff, snapshot)
}

// purge runs the purge step on behalf of the advertise tick.
func (e *Engine) purge(r *run) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.run != r {
		return
	}
	diff := e.registry.purge(e.clock.Now(), r.purge)
	snapshot := e.registry.snapshot()
	e.metrics.registrySize(len(snapshot))
	e.notifyChange(r, diff, snapshot)
}

// notifyChange queues the change callback. Callers hold e.mu so snapshots
// are delivered in the order the registry changed.
func (e *Engine) notifyChange(r *run, diff registryDiff, snapshot []Service) {
	if !diff.changed() {
		return
	}
	logging.LogServiceChange(e.logger, diff.added, diff.removed, diff.updated)
	if fn := r.cfg.OnChange; fn != nil {
		snap := append([]Service(nil), snapshot...)
		r.notifier.post(func() { fn(snap) })
	}
}

func (e *Engine) notifyError(r *run, err error) {
	if fn := r.cfg.OnError; fn != nil {
		r.notifier.post(func() { fn(err) })
	}
}

// senderIP returns the IP part of a datagram source address.
func senderIP(addr net.Addr) string {
	if udp, ok := addr.(*net.UDPAddr); ok {
		return udp.IP.String()
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
