// Package status exposes the discovery registry over HTTP.
//
// Routes:
//
//	GET /services            registry snapshot as JSON
//	GET /services/:address   services announced by one IPv4 address
//	GET /healthz             200 while the engine runs, 503 when idle
//	GET /metrics             Prometheus exposition
//	GET /ws                  WebSocket stream of snapshots
//
// A WebSocket client receives the current snapshot as soon as it connects
// and one snapshot per registry change after that, in change order. Clients
// that fall behind by more than a few snapshots are disconnected.
//
// # Usage Example
//
//	srv := status.New(engine, status.WithGatherer(reg))
//	if err := srv.Start("127.0.0.1:8053"); err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Shutdown(context.Background())
//
//	cfg.OnChange = srv.Publish
package status
