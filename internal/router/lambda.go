package router

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"

	"github.com/deppfellow/product-inventory/internal/envelope"
	"github.com/deppfellow/product-inventory/internal/model"
)

// HandleAPIGateway is the Lambda entry point for API Gateway proxy
// events. Errors never reach the Lambda runtime: every event yields a
// response envelope.
func (d *Dispatcher) HandleAPIGateway(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if d.logger != nil {
		logger := d.logger.With().
			Str("request_id", event.RequestContext.RequestID).
			Str("method", event.HTTPMethod).
			Str("path", event.Path).
			Logger()
		ctx = logger.WithContext(ctx)
	}

	req, err := requestFromEvent(event)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("invalid base64 request body")
		return toProxyResponse(envelope.Message(http.StatusBadRequest, "request body is not valid base64")), nil
	}

	return toProxyResponse(d.Dispatch(ctx, req)), nil
}

func requestFromEvent(event events.APIGatewayProxyRequest) (*model.Request, error) {
	req := &model.Request{
		HTTPMethod:            event.HTTPMethod,
		Path:                  event.Path,
		QueryStringParameters: event.QueryStringParameters,
	}

	if event.Body == "" {
		return req, nil
	}

	body := event.Body
	if event.IsBase64Encoded {
		raw, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return nil, err
		}
		body = string(raw)
	}
	req.Body = &body

	return req, nil
}

func toProxyResponse(resp envelope.Response) events.APIGatewayProxyResponse {
	out := events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
	}
	if resp.Body != nil {
		out.Body = *resp.Body
	}
	return out
}
