// Package httpserver exposes the unseal orchestrator's liveness, readiness,
// and progress over HTTP, together with the paired Prometheus metrics server.
//
// # Endpoints
//
//   - GET /livez: always 200 while the process is up
//   - GET /readyz: 503 until the local server is unsealed, then 200
//   - GET /status: JSON with the orchestrator phase, this node's election
//     candidate identity, and the build version
//   - /debug: pprof handlers, only when enabled
//
// Readiness starts false and is flipped by the caller once the local server
// is unsealed, so supervisors and load balancers can tell "orchestrator
// still working" apart from "node usable". The status endpoint is the one
// to watch while a cluster bootstraps: it shows which phase each node is in
// and which candidate identity it entered the election with.
//
// Both listeners are optional: each starts only when its address is
// configured, so a deployment can run the status API, the metrics server,
// neither, or both.
package httpserver
