// Package resource bounds the shared resources of a service: concurrent
// training runs, memory held by decoded images, and blob IO throughput.
package resource
