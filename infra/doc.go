// Package infra groups the adapters around a BMS session: the zerolog
// logger, the metrics sinks, the MQTT operator bridge, the advisory HTTP
// client and the Sentry monitor. Adapters implement interfaces from core and
// never import each other.
package infra
