// Package awsapi adapts the AWS service clients the finalization pipeline
// depends on to the narrow interfaces the pipeline packages define.
package awsapi

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
)

// NewSession builds an AWS session from the shared environment config. An
// empty region defers to the environment.
func NewSession(region string) (*session.Session, error) {
	config := aws.Config{}
	if region != "" {
		config.Region = aws.String(region)
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            config,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return sess, nil
}
