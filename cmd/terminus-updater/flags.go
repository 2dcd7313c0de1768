package main

import (
	cli "github.com/urfave/cli/v3"
)

func commonFlags() []cli.Flag {
	return []cli.Flag{
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
		&cli.IntFlag{
			Name:    "history-max-events",
			Usage:   "Maximum execution history events scanned for an embedded error",
			Value:   10,
			Sources: cli.EnvVars("HISTORY_MAX_EVENTS"),
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
	}
}
