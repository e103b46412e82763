// Package messaging provides a broker-agnostic publisher abstraction.
//
// The service only produces messages (SMS relay events and audit-style
// notifications); consumption is owned by downstream workers. Supported
// backends are NSQ, NATS, Kafka and Google Pub/Sub, selected by driver name
// through NewFromDriver.
package messaging
