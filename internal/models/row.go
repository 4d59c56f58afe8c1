// internal/models/row.go
package models

// Row is one result row keyed by column name.
type Row map[string]interface{}

// Columns of the bot_executions table queried by the built-in catalog.
const (
	ColumnJobID         = "job_id"
	ColumnBotName       = "bot_name"
	ColumnMachineName   = "machine_name"
	ColumnMachineStatus = "machine_status"
	ColumnStatus        = "status"
	ColumnStartTime     = "start_time"
	ColumnEndTime       = "end_time"
	ColumnDuration      = "duration"
	ColumnFailedJobs    = "failed_jobs"
)
