package resque

// Metric names as they appear in the monitoring backend.
const (
	MPending    = "Pending"
	MProcessed  = "Processed"
	MFailed     = "Failed"
	MQueues     = "Queues"
	MWorkers    = "Workers"
	MWorking    = "Working"
	MNotWorking = "NotWorking"
	MProcessing = "Processing"
)

const (
	statProcessed = "processed"
	statFailed    = "failed"
)
