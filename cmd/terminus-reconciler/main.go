package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	cli "github.com/urfave/cli/v3"

	"github.com/terminus-flow/terminus/pkg/awsapi"
	"github.com/terminus-flow/terminus/pkg/cmd"
	"github.com/terminus-flow/terminus/pkg/log"
	"github.com/terminus-flow/terminus/pkg/otelhelper"
	"github.com/terminus-flow/terminus/pkg/reconcile"
)

const serviceName = "terminus-reconciler"

func main() {
	command := &cli.Command{
		Name:                  serviceName,
		Usage:                 "Periodically reconcile state records stuck in PROCESSING",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "State store connection URL (postgres://, redis://, memory://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "event-bus",
				Usage:    "Event bus type (kafka, gochannel)",
				Required: true,
				Sources:  cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "schedule",
				Usage:   "Cron expression for the reconciliation sweep",
				Value:   "*/10 * * * *",
				Sources: cli.EnvVars("RECONCILE_SCHEDULE"),
			},
			&cli.DurationFlag{
				Name:    "stale-age",
				Usage:   "How long a record must sit in PROCESSING before it is swept",
				Value:   time.Hour,
				Sources: cli.EnvVars("RECONCILE_STALE_AGE"),
			},
			&cli.IntFlag{
				Name:    "sweep-limit",
				Usage:   "Maximum records handled per sweep",
				Value:   reconcile.DefaultSweepLimit,
				Sources: cli.EnvVars("RECONCILE_SWEEP_LIMIT"),
			},
			&cli.StringFlag{
				Name:    "aws-region",
				Usage:   "AWS region for Step Functions, CloudWatch Logs, and S3",
				Value:   "",
				Sources: cli.EnvVars("AWS_REGION"),
			},
			&cli.StringFlag{
				Name:    "batch-log-group",
				Usage:   "CloudWatch log group containing batch task logs",
				Value:   "/aws/batch/job",
				Sources: cli.EnvVars("BATCH_LOG_GROUP"),
			},
			&cli.StringFlag{
				Name:    "failed-topic",
				Usage:   "Notification topic for failed workflows (unset disables)",
				Value:   "",
				Sources: cli.EnvVars("FAILED_TOPIC"),
			},
			&cli.StringFlag{
				Name:    "invalid-topic",
				Usage:   "Notification topic for invalid-input workflows (unset disables)",
				Value:   "",
				Sources: cli.EnvVars("INVALID_TOPIC"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: run,
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, command *cli.Command) error {
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

	logger := log.WithModule(serviceName)
	logger.Info("Initializing reconciler", "schedule", command.String("schedule"))

	store, err := cmd.NewStateStore(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}
	defer cmd.Shutdown(ctx, logger, "state store", func() error { return store.Close(ctx) })

	_, notifier := cmd.NewChannel(command.String("event-bus"), serviceName, logger)
	defer cmd.Shutdown(ctx, logger, "notifier", notifier.Close)

	processor, err := cmd.NewPipeline(cmd.PipelineConfig{
		Region:        command.String("aws-region"),
		BatchLogGroup: command.String("batch-log-group"),
		FailedTopic:   command.String("failed-topic"),
		InvalidTopic:  command.String("invalid-topic"),
	}, store, notifier, tracerProvider.Tracer(serviceName), logger)
	if err != nil {
		return err
	}

	sess, err := awsapi.NewSession(command.String("aws-region"))
	if err != nil {
		return err
	}

	reconciler := reconcile.NewReconciler(store, awsapi.NewStepFunctions(sess), processor, logger).
		WithStaleAge(command.Duration("stale-age")).
		WithSweepLimit(int(command.Int("sweep-limit")))

	scheduler := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	_, err = scheduler.AddFunc(command.String("schedule"), func() {
		if err := reconciler.Sweep(ctx); err != nil {
			logger.ErrorContext(ctx, "Reconciliation sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reconciliation schedule: %w", err)
	}

	scheduler.Start()
	defer scheduler.Stop()

	<-ctx.Done()

	return nil
}
