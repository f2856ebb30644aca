package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"

	skycore "skycast/internal/core"
)

// runLambda serves API Gateway HTTP API (payload v2) events with the same
// router used in HTTP mode. lambda.Start blocks for the life of the sandbox.
func runLambda(srv *skycore.Server, logger *slog.Logger) error {
	logger.Info("starting in Lambda mode")
	lambda.Start(newGatewayHandler(srv.Handler()))
	return nil
}

type gatewayHandler func(ctx context.Context, ev events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)

// newGatewayHandler adapts h to API Gateway v2 events.
func newGatewayHandler(h http.Handler) gatewayHandler {
	return httpadapter.NewV2(gatewayRequestID(h)).ProxyWithContext
}

// gatewayRequestID carries the API Gateway request id into X-Request-Id so
// logs and responses correlate with the gateway's access log. A caller
// supplied header wins.
func gatewayRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Request-Id") == "" {
			if gw, ok := core.GetAPIGatewayV2ContextFromContext(r.Context()); ok && gw.RequestID != "" {
				r.Header.Set("X-Request-Id", gw.RequestID)
			}
		}
		next.ServeHTTP(w, r)
	})
}
