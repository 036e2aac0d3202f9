// Package notify delivers billing notifications to customers. Two providers
// are included: Log writes notifications to a structured logger and backs
// development and tests, Email sends them through Postmark. Both implement
// billing.NotificationProvider, so the engine stays unaware of the transport.
package notify
