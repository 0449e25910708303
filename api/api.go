package api

import (
	"context"
	"encoding/json"
	"net/http"
)

const (
	RequestIDHeader = "X-Request-ID"
	// TookHeader carries the execution time in nanoseconds.  It is sent as
	// a trailer when the body is streamed.
	TookHeader         = "Took-nanos"
	AsyncIDHeader      = "X-Elasticsearch-Async-Id"
	AsyncRunningHeader = "X-Elasticsearch-Async-Is-Running"
	WarningHeader      = "Warning"
)

func RequestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(RequestIDHeader); v != nil {
		return v.(string)
	}
	return ""
}

// Error types reported in Error.Type.
const (
	ParsingException        = "parsing_exception"
	VerificationException   = "verification_exception"
	IllegalArgument         = "illegal_argument_exception"
	ContentParseException   = "x_content_parse_exception"
	ResourceNotFound        = "resource_not_found_exception"
	TaskCancelledException  = "task_cancelled_exception"
	InternalServerException = "exception"
)

// Error is the body of a failed request.
type Error struct {
	Type   string
	Reason string
	Status int
}

func (e *Error) Error() string {
	return e.Reason
}

type errorBody struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

func (e *Error) MarshalJSON() ([]byte, error) {
	var body errorBody
	body.Error.Type = e.Type
	body.Error.Reason = e.Reason
	body.Status = e.Status
	return json.Marshal(body)
}

func (e *Error) UnmarshalJSON(b []byte) error {
	var body errorBody
	if err := json.Unmarshal(b, &body); err != nil {
		return err
	}
	*e = Error{Type: body.Error.Type, Reason: body.Error.Reason, Status: body.Status}
	return nil
}

func NewError(status int, typ, reason string) *Error {
	return &Error{Type: typ, Reason: reason, Status: status}
}

func ErrNotFound(reason string) *Error {
	return NewError(http.StatusNotFound, ResourceNotFound, reason)
}

type VersionResponse struct {
	Version string `json:"version"`
	Date    string `json:"date,omitempty"`
	Hash    string `json:"hash,omitempty"`
}

// AsyncResponse is the body of an async query that has not finished.
type AsyncResponse struct {
	ID        string `json:"id"`
	IsRunning bool   `json:"is_running"`
}

type AckResponse struct {
	Acknowledged bool `json:"acknowledged"`
}
