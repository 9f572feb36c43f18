// Package notify delivers events to topic subscribers.
//
// A Broker fans each published event out to the subscribers of its topic
// without blocking: a subscriber whose buffer is full misses the event and the
// drop is counted. StreamSink writes events as newline-delimited records to
// an io.Writer, and Fanout publishes to several sinks at once.
package notify
