// Package discovery announces named services to the local IPv4 broadcast
// domains and discovers the services announced by peers, without a central
// registry.
//
// # Protocol
//
// Every advertise interval the engine builds an announcement and sends it as
// one UDP datagram to the broadcast address of each local interface:
//
//	{
//	  "hostname": "warehouse-01",
//	  "scope": "staging",
//	  "uptime_os": 86400,
//	  "uptime_proc": 3600,
//	  "service": [
//	    {"name": "WarehouseCatalog", "port": 45241, "secure": false, "path": "/api/whc/V01/"}
//	  ]
//	}
//
// Interfaces whose prefix is longer than /30 have no broadcast address and
// are skipped. There is no acknowledgement or retry; discovery is purely
// announce and observe.
//
// # Registry
//
// Each service in a received announcement becomes a Service keyed by
// (sender address, service name). A later announcement for the same key
// replaces the entry. Entries older than the purge window are removed; an
// entry exactly at the window edge is kept.
//
// OnChange fires when a key is added or removed, or when a replaced entry
// advertises a different hostname, scope, port, path or secure flag. Uptime
// and last-seen refreshes alone do not fire it.
//
// A datagram that is not valid JSON, has no service list, or contains a
// service without a name or with an out-of-range port is dropped whole and
// reported to OnError as a malformed payload error.
//
// # Usage Example
//
//	engine := discovery.New()
//	cfg := discovery.DefaultConfig()
//	cfg.Services = []discovery.ServiceDescriptor{
//	    {Name: "WarehouseCatalog", Port: 45241, Path: "/api/whc/V01/"},
//	}
//	cfg.OnChange = func(services []discovery.Service) {
//	    fmt.Println(services)
//	}
//	if err := engine.Start(cfg); err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Stop()
//
// # Thread Safety
//
// Advertise ticks and datagram handling run on one goroutine; the registry
// is guarded by a mutex shared with Services. OnChange and OnError run one
// at a time, in order, on a separate goroutine, so they may call Services
// or Stop.
package discovery
