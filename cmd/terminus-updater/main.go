package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/terminus-flow/terminus/pkg/cmd"
	"github.com/terminus-flow/terminus/pkg/eventbus"
	"github.com/terminus-flow/terminus/pkg/log"
	"github.com/terminus-flow/terminus/pkg/otelhelper"
)

const serviceName = "terminus-updater"

func main() {
	command := &cli.Command{
		Name:                  serviceName,
		Usage:                 "Consume execution events and finalize workflow state records",
		EnableShellCompletion: true,
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:    "updater-id",
				Aliases: []string{"id"},
				Usage:   "Custom updater ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("UPDATER_ID"),
			},
		),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			tracerProvider, err := otelhelper.InitTracer(ctx, serviceName)
			if err != nil {
				return fmt.Errorf("failed to initialize tracer: %w", err)
			}
			defer func() {
				if err := tracerProvider.Shutdown(ctx); err != nil {
					slog.Error("Failed to shutdown tracer provider", "error", err)
				}
			}()

			updaterID := command.String("updater-id")
			if updaterID == "" {
				updaterID = fmt.Sprintf("updater-%s", uuid.New().String()[:8])
			}

			logger := log.WithModule(serviceName).With("updater_id", updaterID)
			logger.Info("Initializing updater")

			store, err := cmd.NewStateStore(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}
			defer cmd.Shutdown(ctx, logger, "state store", func() error { return store.Close(ctx) })

			consumer, notifier := cmd.NewChannel(command.String("event-bus"), serviceName, logger)
			defer cmd.Shutdown(ctx, logger, "consumer", consumer.Close)
			defer cmd.Shutdown(ctx, logger, "notifier", notifier.Close)

			processor, err := cmd.NewPipeline(cmd.PipelineConfig{
				Region:        command.String("aws-region"),
				BatchLogGroup: command.String("batch-log-group"),
				HistoryMax:    int(command.Int("history-max-events")),
				FailedTopic:   command.String("failed-topic"),
				InvalidTopic:  command.String("invalid-topic"),
			}, store, notifier, tracerProvider.Tracer(serviceName), logger)
			if err != nil {
				return err
			}

			err = consumer.Subscribe(ctx, eventbus.TopicExecutionEvents, processor.ProcessExecutionEvent)
			if err != nil {
				return fmt.Errorf("failed to subscribe to execution events: %w", err)
			}

			<-ctx.Done()

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
