package jsonrpcx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/danghamo/warpgate/internal/domain/shared"
)

// JSONRPCRequest represents a JSON-RPC 2.0 request
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	Result  any           `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
	ID      any           `json:"id,omitempty"`
}

// JSONRPCError represents a JSON-RPC 2.0 error
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JsonRpcNotification is a JSON-RPC 2.0 message without an id, pushed to stream clients
type JsonRpcNotification struct {
	Jsonrpc string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// NewNotification creates a notification for method
func NewNotification(method string, params any) JsonRpcNotification {
	return JsonRpcNotification{Jsonrpc: "2.0", Method: method, Params: params}
}

// JSON-RPC 2.0 error codes
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// Application error codes, in the implementation-defined server error range
const (
	Unauthorized        = -32000
	PermissionDenied    = -32001
	NotFound            = -32002
	DestinationNotFound = -32003
	ActorNotFound       = -32004
	MalformedData       = -32005
	StorageError        = -32006
	RateLimited         = -32029
)

// ErrorData is attached to errors raised from domain errors
type ErrorData struct {
	Code string `json:"code"`
}

var errVersion = errors.New(`jsonrpc must be "2.0"`)

// ParseRequest parses JSON-RPC 2.0 request from HTTP request body
func ParseRequest(r *http.Request) (*JSONRPCRequest, error) {
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	var req JSONRPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}

	if req.JSONRPC != "2.0" {
		return nil, errVersion
	}

	return &req, nil
}

// DecodeParams unmarshals the request params into v
func DecodeParams(req *JSONRPCRequest, v any) error {
	if len(req.Params) == 0 {
		return fmt.Errorf("missing params")
	}
	return json.Unmarshal(req.Params, v)
}

// Success sends a successful JSON-RPC 2.0 response
func Success(w http.ResponseWriter, id any, result any) {
	Response(w, JSONRPCResponse{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	})
}

// Response sends a JSON-RPC 2.0 response (always HTTP 200)
func Response(w http.ResponseWriter, response JSONRPCResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// Encode response - if error occurs, it will be logged by middleware
	json.NewEncoder(w).Encode(response)
}

// NewErrorResponse builds an error response
func NewErrorResponse(id any, code int, message string, data any) JSONRPCResponse {
	return JSONRPCResponse{
		JSONRPC: "2.0",
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
		ID: id,
	}
}

// FromDomainError maps a domain error code to a JSON-RPC error code
func FromDomainError(err error) (int, ErrorData) {
	code := shared.ErrorCode(err)
	data := ErrorData{Code: code}

	switch code {
	case shared.ErrCodeInvalidInput:
		return InvalidParams, data
	case shared.ErrCodePermissionDenied:
		return PermissionDenied, data
	case shared.ErrCodeNotFound:
		return NotFound, data
	case shared.ErrCodeDestinationNotFound:
		return DestinationNotFound, data
	case shared.ErrCodeActorNotFound:
		return ActorNotFound, data
	case shared.ErrCodeMalformedData:
		return MalformedData, data
	case shared.ErrCodeIO:
		return StorageError, data
	default:
		return InternalError, data
	}
}

type errorSlotKey struct{}

// errorSlot holds the error a handler raised. It is shared by pointer so
// requests derived with WithContext further down the chain still reach it.
type errorSlot struct {
	response *JSONRPCResponse
}

// WithErrorSlot prepares r to carry a handler error back to the error adapter
func WithErrorSlot(r *http.Request) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), errorSlotKey{}, &errorSlot{}))
}

// WithError attaches an error to the request for the error adapter to write.
// Without an adapter in the chain the error is written immediately.
func WithError(w http.ResponseWriter, r *http.Request, id any, code int, message string) {
	setError(w, r, NewErrorResponse(id, code, message, nil))
}

// WithDomainError attaches err, mapped by its domain code
func WithDomainError(w http.ResponseWriter, r *http.Request, id any, err error) {
	code, data := FromDomainError(err)
	message := err.Error()
	if code == InternalError {
		message = "Internal server error"
		data = ErrorData{}
	}
	setError(w, r, NewErrorResponse(id, code, message, data))
}

func setError(w http.ResponseWriter, r *http.Request, response JSONRPCResponse) {
	if slot, ok := r.Context().Value(errorSlotKey{}).(*errorSlot); ok {
		slot.response = &response
		return
	}
	Response(w, response)
}

// ErrorFrom returns the error a handler attached to r, if any
func ErrorFrom(r *http.Request) (*JSONRPCResponse, bool) {
	slot, ok := r.Context().Value(errorSlotKey{}).(*errorSlot)
	if !ok || slot.response == nil {
		return nil, false
	}
	return slot.response, true
}

// ErrorAdapter interface for middleware to send error responses
type ErrorAdapter interface {
	SendError(w http.ResponseWriter, id any, code int, message string)
}

// errorAdapter is the private implementation of ErrorAdapter
type errorAdapter struct{}

// NewErrorAdapter creates a new error adapter for middleware use
func NewErrorAdapter() ErrorAdapter {
	return &errorAdapter{}
}

// SendError sends an error JSON-RPC 2.0 response (only accessible through ErrorAdapter)
func (ea *errorAdapter) SendError(w http.ResponseWriter, id any, code int, message string) {
	Response(w, NewErrorResponse(id, code, message, nil))
}
