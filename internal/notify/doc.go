// Package notify delivers terminal order notifications out of the matching
// goroutine. Log and Fanout run inline; Async moves notifications onto its own
// ring and publishes them to a Sink (Kafka, a Pebble journal) from a separate
// goroutine so the matching loop never blocks on I/O.
package notify
