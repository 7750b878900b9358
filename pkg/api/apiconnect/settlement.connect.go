package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/pkg/api"
)

// SettlementServiceName is the fully-qualified name of the SettlementService.
const SettlementServiceName = "splitledger.v1.SettlementService"

// Procedure paths of the SettlementService.
const (
	SettlementServiceComputeSettlementsProcedure = "/" + SettlementServiceName + "/ComputeSettlements"
	SettlementServiceListSettlementsProcedure    = "/" + SettlementServiceName + "/ListSettlements"
	SettlementServiceMarkSettledProcedure        = "/" + SettlementServiceName + "/MarkSettled"
)

// SettlementServiceHandler is implemented by the server side of the SettlementService.
type SettlementServiceHandler interface {
	ComputeSettlements(context.Context, *connect.Request[api.ComputeSettlementsRequest]) (*connect.Response[api.ComputeSettlementsResponse], error)
	ListSettlements(context.Context, *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error)
	MarkSettled(context.Context, *connect.Request[api.MarkSettledRequest]) (*connect.Response[api.MarkSettledResponse], error)
}

// NewSettlementServiceHandler builds an HTTP handler for svc. It returns the path to mount
// the handler on.
func NewSettlementServiceHandler(svc SettlementServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + SettlementServiceName + "/", route(map[string]http.Handler{
		SettlementServiceComputeSettlementsProcedure: connect.NewUnaryHandler(SettlementServiceComputeSettlementsProcedure, svc.ComputeSettlements, opts...),
		SettlementServiceListSettlementsProcedure:    connect.NewUnaryHandler(SettlementServiceListSettlementsProcedure, svc.ListSettlements, opts...),
		SettlementServiceMarkSettledProcedure:        connect.NewUnaryHandler(SettlementServiceMarkSettledProcedure, svc.MarkSettled, opts...),
	})
}

// SettlementServiceClient calls the SettlementService.
type SettlementServiceClient interface {
	ComputeSettlements(context.Context, *connect.Request[api.ComputeSettlementsRequest]) (*connect.Response[api.ComputeSettlementsResponse], error)
	ListSettlements(context.Context, *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error)
	MarkSettled(context.Context, *connect.Request[api.MarkSettledRequest]) (*connect.Response[api.MarkSettledResponse], error)
}

// NewSettlementServiceClient returns a client for the SettlementService served at baseURL.
func NewSettlementServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) SettlementServiceClient {
	baseURL = trimBase(baseURL)
	opts = clientOptions(opts)
	return &settlementServiceClient{
		computeSettlements: connect.NewClient[api.ComputeSettlementsRequest, api.ComputeSettlementsResponse](httpClient, baseURL+SettlementServiceComputeSettlementsProcedure, opts...),
		listSettlements:    connect.NewClient[api.ListSettlementsRequest, api.ListSettlementsResponse](httpClient, baseURL+SettlementServiceListSettlementsProcedure, opts...),
		markSettled:        connect.NewClient[api.MarkSettledRequest, api.MarkSettledResponse](httpClient, baseURL+SettlementServiceMarkSettledProcedure, opts...),
	}
}

type settlementServiceClient struct {
	computeSettlements *connect.Client[api.ComputeSettlementsRequest, api.ComputeSettlementsResponse]
	listSettlements    *connect.Client[api.ListSettlementsRequest, api.ListSettlementsResponse]
	markSettled        *connect.Client[api.MarkSettledRequest, api.MarkSettledResponse]
}

func (c *settlementServiceClient) ComputeSettlements(ctx context.Context, req *connect.Request[api.ComputeSettlementsRequest]) (*connect.Response[api.ComputeSettlementsResponse], error) {
	return c.computeSettlements.CallUnary(ctx, req)
}

func (c *settlementServiceClient) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	return c.listSettlements.CallUnary(ctx, req)
}

func (c *settlementServiceClient) MarkSettled(ctx context.Context, req *connect.Request[api.MarkSettledRequest]) (*connect.Response[api.MarkSettledResponse], error) {
	return c.markSettled.CallUnary(ctx, req)
}
