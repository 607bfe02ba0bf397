package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/deppfellow/product-inventory/internal/app"
)

func main() {
	application, err := app.New(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start application")
	}

	lambda.Start(application.Dispatcher.HandleAPIGateway)
}
