/*
Package observability provides the Prometheus instrumentation of msquare.

A Metrics value owns its own registry so that tests and multiple servers in one process never collide on the
default registerer. It exposes:

  - an HTTP middleware counting requests by chi route pattern and status, with a latency histogram;
  - recorders for contact submissions and portfolio mutations, satisfied structurally by the services;
  - scroll-stack hooks counting frames, skipped items and completions.

The registry is served by Handler, mounted at /metrics.
*/
package observability
