package config

// WorkerKeyStruct namespaces Redis queue and channel names used by
// background workers.
type WorkerKeyStruct struct {
	// AuditQueue buffers audit events awaiting PostgreSQL persistence.
	AuditQueue string
	// MonitorChannel is the Pub/Sub channel carrying live audit events to
	// connected admin monitor sockets.
	MonitorChannel string
}

// WorkerKey is the shared worker key set.
var WorkerKey = &WorkerKeyStruct{
	AuditQueue:     "audit_events_queue",
	MonitorChannel: "audit_events_live",
}
