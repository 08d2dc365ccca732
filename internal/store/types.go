package store

import (
	"time"
)

// StatusOK is the status of a successful execution. Failed executions carry
// their failure kind (e.g. "AUTH_FAILED") as status.
const StatusOK = "ok"

// Execution is one recorded gateway call.
//
// Seq is assigned by the store on insert; the value passed to
// RecordExecution is ignored. There is deliberately no password field.
type Execution struct {
	Seq            int64
	ID             string            // UUIDv7, time-sortable
	Fingerprint    string            // queryir.Fingerprint of the descriptor
	Query          string            // Descriptor rendered back to REQL text
	Database       string            // Target database
	Address        string            // host:port
	User           string            // Connecting user
	Status         string            // StatusOK or a failure kind
	Message        string            // Redacted failure message
	Details        map[string]string // Failure details
	Documents      int               // Number of documents returned
	ResultHash     string            // ir.ResultHash of the result, empty on failure
	DurationMS     int64             // Wall time of the call
	StartedAt      time.Time         // UTC start time
	GatewayVersion string            // ir.GatewayVersion that produced the row
}

// OK reports whether the execution succeeded.
func (e Execution) OK() bool {
	return e.Status == StatusOK
}

// ListOptions filters ListExecutions.
type ListOptions struct {
	// Limit caps the number of rows. Zero means DefaultListLimit.
	Limit int
	// Fingerprint restricts rows to one descriptor.
	Fingerprint string
	// Status restricts rows to one status.
	Status string
}

// DefaultListLimit is the row cap when ListOptions.Limit is zero.
const DefaultListLimit = 50
