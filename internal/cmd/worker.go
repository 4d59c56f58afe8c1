package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rpa-assistant/internal/common/camunda"
	"rpa-assistant/internal/common/config"
	"rpa-assistant/internal/server"
	answerquestion "rpa-assistant/internal/workers/chatbot/answer-question"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Answer questions as a Camunda job worker",
	Long: `worker subscribes to "answer-question" jobs on the Zeebe broker. Each job
carries a "question" variable and completes with the answer, the resolved intent
and the outcome. The health, readiness and metrics endpoints are served on
http.address while the worker runs.`,
	Args: cobra.NoArgs,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()

	zeebe, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
		GatewayAddress:         a.cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      10 * time.Second,
		RetryConfig: &camunda.RetryConfig{
			MaxRetries: 5,
			BaseDelay:  2 * time.Second,
			MaxDelay:   30 * time.Second,
		},
	})
	if err != nil {
		return err
	}
	defer zeebe.Close()
	a.log.Info("connected to Zeebe broker", map[string]interface{}{"address": a.cfg.Camunda.BrokerAddress})

	handlerCfg := answerquestion.LoadConfig()
	if timeout := a.requestTimeout(); timeout > 0 {
		handlerCfg.Timeout = timeout
	}
	handler := answerquestion.NewHandler(handlerCfg, a.bot, a.log)

	w := camunda.NewWorker(zeebe.GetClient(), camunda.WorkerConfig{
		TaskType:      answerquestion.TaskType,
		MaxJobsActive: a.cfg.Camunda.MaxJobsActive,
		Timeout:       config.GetDuration(a.cfg.Camunda.Timeout),
	}, handler, a.log)
	w.Start()
	defer w.Stop()

	// /ask stays available next to the worker; /ready reflects the store.
	srv := server.New(server.Config{
		Address:        a.cfg.HTTP.Address,
		RequestTimeout: a.requestTimeout(),
	}, a.bot, a.store, a.log)
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			a.log.Error("http server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	a.log.Info("shutdown signal received, shutting down gracefully...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("http server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	return nil
}
