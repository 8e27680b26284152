/*
Package observability turns engine lifecycle events into Prometheus metrics,
structured log lines and OpenTelemetry traces.

Everything here is attached through domain.LifecycleHooks, so observers can
never change the path a question takes.
*/
package observability
