package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-shipbridge/core"
)

const KindGraphQL = "graphql"

type GraphQLRequest struct {
	Query         string
	OperationName string
	Variables     map[string]any
	Headers       map[string]string
	Timeout       time.Duration
}

type GraphQLError struct {
	Message string         `json:"message"`
	Path    []any          `json:"path,omitempty"`
	Code    string         `json:"code,omitempty"`
	Extra   map[string]any `json:"extensions,omitempty"`
}

type GraphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

type GraphQLAdapter struct {
	Endpoint string
	REST     *RESTAdapter
}

func NewGraphQLAdapter(endpoint string, client HTTPDoer) *GraphQLAdapter {
	return &GraphQLAdapter{
		Endpoint: strings.TrimSpace(endpoint),
		REST:     NewRESTAdapter(client),
	}
}

func (*GraphQLAdapter) Kind() string {
	return KindGraphQL
}

// Execute posts a GraphQL operation and decodes the standard response
// envelope. A response carrying errors and no data is returned as an error.
func (a *GraphQLAdapter) Execute(ctx context.Context, req GraphQLRequest) (GraphQLResponse, error) {
	metadata := map[string]any{"query": req.Query}
	if strings.TrimSpace(req.OperationName) != "" {
		metadata["operation_name"] = req.OperationName
	}
	if req.Variables != nil {
		metadata["variables"] = req.Variables
	}
	res, err := a.Do(ctx, core.TransportRequest{
		Headers:  req.Headers,
		Metadata: metadata,
		Timeout:  req.Timeout,
	})
	if err != nil {
		return GraphQLResponse{}, err
	}
	if err := StatusError(res, "graphql "+req.OperationName); err != nil {
		return GraphQLResponse{}, err
	}

	var out GraphQLResponse
	if err := json.Unmarshal(res.Body, &out); err != nil {
		return GraphQLResponse{}, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: decode graphql response",
			http.StatusBadGateway,
			map[string]any{"adapter": KindGraphQL, "operation_name": req.OperationName},
		)
	}
	if len(out.Errors) > 0 && isNullData(out.Data) {
		return out, transportError(
			"transport: graphql operation failed: "+out.Errors[0].Message,
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			map[string]any{
				"adapter":        KindGraphQL,
				"operation_name": req.OperationName,
				"error_count":    len(out.Errors),
			},
		)
	}
	return out, nil
}

func (a *GraphQLAdapter) Do(ctx context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	if a == nil || a.REST == nil {
		return core.TransportResponse{}, transportError(
			"transport: graphql adapter requires a rest adapter",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			map[string]any{"adapter": KindGraphQL},
		)
	}

	endpoint := strings.TrimSpace(req.URL)
	if endpoint == "" {
		endpoint = a.Endpoint
	}
	if endpoint == "" {
		return core.TransportResponse{}, transportError(
			"transport: graphql endpoint is required",
			goerrors.CategoryBadInput,
			http.StatusBadRequest,
			map[string]any{"adapter": KindGraphQL},
		)
	}

	query := readMetadataString(req.Metadata, "query")
	if query == "" {
		query = strings.TrimSpace(string(req.Body))
	}
	if query == "" {
		return core.TransportResponse{}, transportError(
			"transport: graphql query is required",
			goerrors.CategoryBadInput,
			http.StatusBadRequest,
			map[string]any{"adapter": KindGraphQL, "endpoint": endpoint},
		)
	}
	payload := map[string]any{"query": query}
	if operationName := readMetadataString(req.Metadata, "operation_name"); operationName != "" {
		payload["operationName"] = operationName
	}
	if variables, ok := req.Metadata["variables"].(map[string]any); ok {
		payload["variables"] = variables
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return core.TransportResponse{}, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: marshal graphql payload",
			http.StatusBadRequest,
			map[string]any{"adapter": KindGraphQL, "endpoint": endpoint},
		)
	}

	headers := map[string]string{"Content-Type": "application/json"}
	for key, value := range req.Headers {
		headers[key] = value
	}

	response, err := a.REST.Do(ctx, core.TransportRequest{
		Method:               http.MethodPost,
		URL:                  endpoint,
		Headers:              headers,
		Body:                 body,
		Timeout:              req.Timeout,
		MaxResponseBodyBytes: req.MaxResponseBodyBytes,
	})
	if err != nil {
		return core.TransportResponse{}, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: graphql request failed",
			http.StatusBadGateway,
			map[string]any{"adapter": KindGraphQL, "endpoint": endpoint},
		)
	}
	if response.Metadata == nil {
		response.Metadata = map[string]any{}
	}
	response.Metadata["kind"] = KindGraphQL
	return response, nil
}

func readMetadataString(metadata map[string]any, key string) string {
	value, ok := metadata[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func isNullData(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

var _ core.TransportAdapter = (*GraphQLAdapter)(nil)
