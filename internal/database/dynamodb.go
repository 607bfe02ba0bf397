package database

import (
	"context"
	"fmt"

	dynamocfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog"

	"github.com/deppfellow/product-inventory/internal/config"
)

// NewDynamoDB builds a DynamoDB client from the default credential chain.
// A non-empty endpoint points the client at DynamoDB Local or LocalStack.
func NewDynamoDB(ctx context.Context, cfg config.AWSConfig, logger *zerolog.Logger) (*dynamodb.Client, error) {
	opts := []func(*dynamocfg.LoadOptions) error{
		dynamocfg.WithRegion(cfg.Region),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, dynamocfg.WithBaseEndpoint(cfg.Endpoint))
	}

	awsCfg, err := dynamocfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg)

	logger.Info().
		Str("region", cfg.Region).
		Str("endpoint", cfg.Endpoint).
		Msg("DynamoDB client initialized")

	return client, nil
}
