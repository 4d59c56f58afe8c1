package catalog

import (
	"fmt"

	"rpa-assistant/internal/models"
)

// Dialect selects placeholder style and date arithmetic for the built-in queries.
type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
	DialectDuckDB   Dialect = "duckdb"
)

// Placeholder returns the n-th (1-based) positional parameter marker.
func (d Dialect) Placeholder(n int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// startedToday filters bot_executions to rows started on the current date.
func (d Dialect) startedToday() string {
	switch d {
	case DialectPostgres:
		return "start_time::date = CURRENT_DATE"
	case DialectSQLite:
		return "DATE(start_time) = DATE('now')"
	case DialectDuckDB:
		return "CAST(start_time AS DATE) = current_date"
	default:
		return "DATE(start_time) = CURDATE()"
	}
}

// startedThisWeek filters bot_executions to the last seven days.
func (d Dialect) startedThisWeek() string {
	switch d {
	case DialectPostgres:
		return "start_time >= CURRENT_DATE - INTERVAL '7 days'"
	case DialectSQLite:
		return "start_time >= DATE('now', '-7 days')"
	case DialectDuckDB:
		return "start_time >= current_date - INTERVAL 7 DAY"
	default:
		return "start_time >= DATE_SUB(CURDATE(), INTERVAL 7 DAY)"
	}
}

// DefaultDefinitions returns the built-in intents over the bot_executions
// table. The narrower top_long_running pattern precedes list_running_bots,
// which would otherwise shadow it.
func DefaultDefinitions(d Dialect) []Definition {
	return []Definition{
		{
			Name:     models.IntentCheckJobStatus,
			Pattern:  `(?:status|check|what is).*\bjob\b\D*?(\d+)`,
			Query:    "SELECT status, start_time, end_time, duration FROM bot_executions WHERE job_id = " + d.Placeholder(1),
			Params:   []string{models.ColumnJobID},
			Shape:    models.ShapeSingleRowFields,
			Response: "Job {job_id} is {status}. Started: {start_time}, Duration: {duration}.",
			Fields:   []string{models.ColumnStatus, models.ColumnStartTime, models.ColumnEndTime, models.ColumnDuration},
			Examples: []string{
				"What's the status of job 1234?",
				"Check job #42",
				"what is job 7 doing",
			},
		},
		{
			Name:     models.IntentTopLongRunning,
			Pattern:  `(?:top|longest|most).*(?:long|running|duration).*\bbots\b.*(?:today|daily)`,
			Query:    "SELECT bot_name, duration, machine_name FROM bot_executions WHERE " + d.startedToday() + " ORDER BY duration DESC LIMIT 5",
			Shape:    models.ShapeRowList,
			Response: "Top 5 long-running bots today:\n{results}",
			Line:     "- {bot_name} on {machine_name} (Duration: {duration})",
			Fields:   []string{models.ColumnBotName, models.ColumnDuration, models.ColumnMachineName},
			Examples: []string{
				"Show me the top 5 longest-running bots today.",
				"Which were the longest running bots today?",
			},
		},
		{
			Name:     models.IntentListRunningBots,
			Pattern:  `(?:list|show|which).*(?:(?:running|active).*\bbots\b|\bbots\b.*(?:running|active))`,
			Query:    "SELECT bot_name, machine_name, start_time FROM bot_executions WHERE status = 'Running'",
			Shape:    models.ShapeRowList,
			Response: "Running bots:\n{results}",
			Line:     "- {bot_name} on {machine_name} (Started: {start_time})",
			Fields:   []string{models.ColumnBotName, models.ColumnMachineName, models.ColumnStartTime},
			Examples: []string{
				"Which bots are currently running?",
				"List active bots",
				"show me running bots",
			},
		},
		{
			Name:     models.IntentMachineStatus,
			Pattern:  `(?:status|check|what is).*\bmachine\s+([\w-]+)`,
			Query:    "SELECT machine_name, machine_status FROM bot_executions WHERE machine_name = " + d.Placeholder(1) + " ORDER BY start_time DESC LIMIT 1",
			Params:   []string{models.ColumnMachineName},
			Shape:    models.ShapeSingleRowFields,
			Response: "Machine {machine_name} is {machine_status}.",
			Fields:   []string{models.ColumnMachineName, models.ColumnMachineStatus},
			Examples: []string{
				"What's the status of machine X?",
				"check machine VM-01",
			},
		},
		{
			Name:      models.IntentFailedJobs,
			Pattern:   `(?:(?:failed|error|unsuccessful).*\bjobs\b|\bjobs\b.*(?:failed|errored|errors?|unsuccessful)).*(?:week|weekly)`,
			Query:     "SELECT COUNT(*) AS failed_jobs FROM bot_executions WHERE status = 'Failed' AND " + d.startedThisWeek(),
			Shape:     models.ShapeSingleAggregate,
			Response:  "{failed_jobs} jobs failed this week.",
			Aggregate: models.ColumnFailedJobs,
			Fields:    []string{models.ColumnFailedJobs},
			Examples: []string{
				"How many jobs failed this week?",
				"show failed jobs this week",
				"how many jobs had errors this week",
			},
		},
	}
}

// Defaults returns the built-in catalog for a dialect. An unknown dialect
// falls back to MySQL, the engine the execution log lives in by default.
func Defaults(d Dialect) *Catalog {
	switch d {
	case DialectMySQL, DialectPostgres, DialectSQLite, DialectDuckDB:
	default:
		d = DialectMySQL
	}
	return MustNew(DefaultDefinitions(d)...)
}
