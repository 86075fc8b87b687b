package constants

// JobStatus is the outcome of one file in a batch run.
type JobStatus string

const (
	JobStatusExtracted JobStatus = "EXTRACTED" // valid record, not saved
	JobStatusInvalid   JobStatus = "INVALID"   // record has violations
	JobStatusSaved     JobStatus = "SAVED"
	JobStatusFailed    JobStatus = "FAILED"
)
