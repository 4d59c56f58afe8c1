// internal/models/intents.go
package models

type IntentName string

const (
	IntentCheckJobStatus  IntentName = "check_job_status"
	IntentTopLongRunning  IntentName = "top_long_running"
	IntentListRunningBots IntentName = "list_running_bots"
	IntentMachineStatus   IntentName = "machine_status"
	IntentFailedJobs      IntentName = "failed_jobs"
)

// ResultShape tells the formatter how to read the rows an intent's query returns.
type ResultShape string

const (
	ShapeSingleRowFields ResultShape = "single_row_fields"
	ShapeRowList         ResultShape = "row_list"
	ShapeSingleAggregate ResultShape = "single_aggregate"
)

func (s ResultShape) Valid() bool {
	switch s {
	case ShapeSingleRowFields, ShapeRowList, ShapeSingleAggregate:
		return true
	}
	return false
}
