// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rpa-assistant/internal/chatbot"
	"rpa-assistant/internal/chatbot/cache"
	"rpa-assistant/internal/chatbot/catalog"
	"rpa-assistant/internal/chatbot/executor"
	"rpa-assistant/internal/common/camunda"
	"rpa-assistant/internal/common/config"
	"rpa-assistant/internal/common/database"
	"rpa-assistant/internal/common/logger"
	answerquestion "rpa-assistant/internal/workers/chatbot/answer-question"
)

// The suite needs a live execution log store, Redis and a Zeebe gateway.
// Run it with RPA_E2E=1 go test ./test/e2e/...
var (
	zeebeClient zbc.Client
	zapLog      *zap.Logger
)

const processID = "rpa-answer-question"

const answerProcess = `<?xml version="1.0" encoding="UTF-8"?>
<bpmn:definitions xmlns:bpmn="http://www.omg.org/spec/BPMN/20100524/MODEL"
  xmlns:zeebe="http://camunda.org/schema/zeebe/1.0"
  id="Definitions_rpa" targetNamespace="http://bpmn.io/schema/bpmn">
  <bpmn:process id="rpa-answer-question" isExecutable="true">
    <bpmn:startEvent id="start">
      <bpmn:outgoing>toAnswer</bpmn:outgoing>
    </bpmn:startEvent>
    <bpmn:serviceTask id="answer" name="Answer question">
      <bpmn:extensionElements>
        <zeebe:taskDefinition type="answer-question" />
      </bpmn:extensionElements>
      <bpmn:incoming>toAnswer</bpmn:incoming>
      <bpmn:outgoing>toEnd</bpmn:outgoing>
    </bpmn:serviceTask>
    <bpmn:endEvent id="end">
      <bpmn:incoming>toEnd</bpmn:incoming>
    </bpmn:endEvent>
    <bpmn:sequenceFlow id="toAnswer" sourceRef="start" targetRef="answer" />
    <bpmn:sequenceFlow id="toEnd" sourceRef="answer" targetRef="end" />
  </bpmn:process>
</bpmn:definitions>`

const executionsTable = `CREATE TABLE IF NOT EXISTS bot_executions (
	job_id         BIGINT PRIMARY KEY,
	bot_name       VARCHAR(255) NOT NULL,
	machine_name   VARCHAR(255) NOT NULL,
	machine_status VARCHAR(64),
	status         VARCHAR(64) NOT NULL,
	start_time     TIMESTAMP,
	end_time       TIMESTAMP,
	duration       INTEGER
)`

type seedRow struct {
	jobID         int64
	botName       string
	machineName   string
	machineStatus string
	status        string
	duration      int
}

var seedRows = []seedRow{
	{910001, "E2EInvoiceBot", "E2E-VM-1", "Online", "Completed", 300},
	{910002, "E2EPayrollBot", "E2E-VM-2", "Busy", "Running", 0},
	{910003, "E2EReportBot", "E2E-VM-1", "Online", "Failed", 45},
}

func TestMain(m *testing.M) {
	if os.Getenv("RPA_E2E") == "" {
		fmt.Println("skipping e2e suite: RPA_E2E is not set")
		os.Exit(0)
	}

	var err error
	zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         gatewayAddress(),
		UsePlaintextConnection: true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect to Zeebe: %v", err))
	}
	zapLog, _ = zap.NewProduction()

	code := m.Run()

	zeebeClient.Close()
	os.Exit(code)
}

func gatewayAddress() string {
	if addr := os.Getenv("CAMUNDA_BROKER_ADDRESS"); addr != "" {
		return addr
	}
	return "localhost:26500"
}

func TestFullE2E(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	require.NoError(t, err)

	store := assertAllServicesConnectivity(ctx, t, cfg)
	defer store.Close()

	seedExecutions(ctx, t, store, catalog.Dialect(cfg.Database.Driver))
	bot := newBot(ctx, t, cfg, store)

	t.Run("bot", func(t *testing.T) { testBotAnswers(ctx, t, bot) })
	t.Run("worker", func(t *testing.T) { testAnswerQuestionWorker(ctx, t, bot) })
}

func assertAllServicesConnectivity(ctx context.Context, t *testing.T, cfg *config.Config) *database.SQLStore {
	t.Helper()

	store, err := database.Open(cfg.Database)
	require.NoError(t, err, "execution log store could not be opened")
	require.NoError(t, store.Ping(ctx), "execution log store ping failed")
	t.Logf("%s connected", cfg.Database.Driver)

	if cfg.Redis.Enabled {
		rdb := database.NewRedis(cfg.Redis)
		assert.NoError(t, rdb.Ping(ctx), "redis ping failed")
		rdb.Close()
		t.Log("redis connected")
	}

	_, err = zeebeClient.NewTopologyCommand().Send(ctx)
	require.NoError(t, err, "zeebe topology request failed")
	t.Log("zeebe connected")

	return store
}

func seedExecutions(ctx context.Context, t *testing.T, store *database.SQLStore, d catalog.Dialect) {
	t.Helper()

	_, err := store.DB.ExecContext(ctx, executionsTable)
	require.NoError(t, err)

	ids := make([]string, len(seedRows))
	args := make([]interface{}, len(seedRows))
	for i, r := range seedRows {
		ids[i] = d.Placeholder(i + 1)
		args[i] = r.jobID
	}
	_, err = store.DB.ExecContext(ctx, "DELETE FROM bot_executions WHERE job_id IN ("+strings.Join(ids, ", ")+")", args...)
	require.NoError(t, err)

	insert := fmt.Sprintf(
		"INSERT INTO bot_executions (job_id, bot_name, machine_name, machine_status, status, start_time, end_time, duration) VALUES (%s, %s, %s, %s, %s, %s, %s, %s)",
		d.Placeholder(1), d.Placeholder(2), d.Placeholder(3), d.Placeholder(4),
		d.Placeholder(5), d.Placeholder(6), d.Placeholder(7), d.Placeholder(8),
	)
	now := time.Now().UTC().Truncate(time.Second)
	for _, r := range seedRows {
		var end interface{}
		if r.status != "Running" {
			end = now.Add(time.Duration(r.duration) * time.Second)
		}
		_, err := store.DB.ExecContext(ctx, insert,
			r.jobID, r.botName, r.machineName, r.machineStatus, r.status, now, end, r.duration)
		require.NoError(t, err, "seeding job %d", r.jobID)
	}
	t.Cleanup(func() {
		_, _ = store.DB.ExecContext(context.Background(), "DELETE FROM bot_executions WHERE job_id IN ("+strings.Join(ids, ", ")+")", args...)
	})
}

func newBot(ctx context.Context, t *testing.T, cfg *config.Config, store *database.SQLStore) *chatbot.Bot {
	t.Helper()
	log := logger.NewZapAdapter(zapLog)

	var opts []executor.Option
	if cfg.Redis.Enabled {
		rdb := database.NewRedis(cfg.Redis)
		t.Cleanup(func() { rdb.Close() })
		opts = append(opts, executor.WithCache(cache.New(rdb.Client, time.Second, log)))
	}

	c := catalog.Defaults(catalog.Dialect(cfg.Database.Driver))
	return chatbot.New(c, executor.New(c, store, log, opts...), log)
}

func testBotAnswers(ctx context.Context, t *testing.T, bot *chatbot.Bot) {
	answer := bot.Answer(ctx, "What's the status of job 910001?")
	assert.Equal(t, "check_job_status", string(answer.Intent))
	assert.True(t, strings.HasPrefix(answer.Text, "Job 910001 is Completed. Started: "), answer.Text)
	assert.True(t, strings.HasSuffix(answer.Text, ", Duration: 300."), answer.Text)

	assert.Equal(t, "Machine E2E-VM-1 is Online.", bot.Respond(ctx, "check machine E2E-VM-1"))
	assert.Contains(t, bot.Respond(ctx, "Which bots are currently running?"), "- E2EPayrollBot on E2E-VM-2 (Started: ")
	assert.Contains(t, bot.Respond(ctx, "Show me the top 5 longest-running bots today."), "Top 5 long-running bots today:")
	assert.True(t, strings.HasSuffix(bot.Respond(ctx, "How many jobs failed this week?"), " jobs failed this week."))
	assert.Equal(t, "No data found for your query.", bot.Respond(ctx, "what is job 999999999 doing"))
	assert.Equal(t, chatbot.FallbackMessage, bot.Respond(ctx, "tell me a joke"))
}

func testAnswerQuestionWorker(ctx context.Context, t *testing.T, bot *chatbot.Bot) {
	log := logger.NewZapAdapter(zapLog)

	_, err := zeebeClient.NewDeployResourceCommand().
		AddResource([]byte(answerProcess), "rpa-answer-question.bpmn").
		Send(ctx)
	require.NoError(t, err, "deploying answer-question process")

	handler := answerquestion.NewHandler(answerquestion.LoadConfig(), bot, log)
	w := camunda.NewWorker(zeebeClient, camunda.WorkerConfig{
		TaskType:      answerquestion.TaskType,
		MaxJobsActive: 2,
		Timeout:       30 * time.Second,
	}, handler, log)
	w.Start()
	defer w.Stop()

	tests := []struct {
		question string
		intent   string
		outcome  string
		answer   string
	}{
		{"check machine E2E-VM-1", "machine_status", "answered", "Machine E2E-VM-1 is Online."},
		{"tell me a joke", "", "no_match", chatbot.FallbackMessage},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			cmd, err := zeebeClient.NewCreateInstanceCommand().
				BPMNProcessId(processID).
				LatestVersion().
				VariablesFromMap(map[string]interface{}{"question": tt.question})
			require.NoError(t, err)

			resp, err := cmd.WithResult().Send(ctx)
			require.NoError(t, err, "process instance did not complete")

			var vars map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(resp.GetVariables()), &vars))
			assert.Equal(t, tt.answer, vars["answer"])
			assert.Equal(t, tt.outcome, vars["outcome"])
			if tt.intent != "" {
				assert.Equal(t, tt.intent, vars["intent"])
			}
		})
	}
}

func BenchmarkBot_Answer(b *testing.B) {
	cfg, _ := config.Load()
	store, err := database.Open(cfg.Database)
	if err != nil {
		b.Skip(err)
	}
	defer store.Close()

	c := catalog.Defaults(catalog.Dialect(cfg.Database.Driver))
	log := logger.NewStructured("info", "json")
	bot := chatbot.New(c, executor.New(c, store, log), log)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bot.Respond(context.Background(), "check machine E2E-VM-1")
	}
}
