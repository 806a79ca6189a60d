// Package notifications delivers run events through ntfy.
//
// NewService returns an ntfy-backed Service when a topic is configured and a
// no-op otherwise. Callers publish an Event with a free-form Payload; the
// service formats title, message, tags and priority per event and drops
// events the configuration has switched off.
package notifications
