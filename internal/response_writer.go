package internal

import (
	"encoding/json"
	"fmt"
	"net/http"

	"bankauth/internal/failure"
	"bankauth/internal/logger"
)

// ResponseWriter provides a fluent API for building and sending HTTP responses
type ResponseWriter struct {
	w          http.ResponseWriter
	statusCode int
	data       any
	err        error
	code       failure.Code
	fields     map[string]string
	headers    map[string]string
	cookies    []*http.Cookie
	message    string
	sent       bool
}

// ErrorResponse is the body of every error reply. Error carries the
// machine-readable code; the underlying error is logged, never sent.
type ErrorResponse struct {
	Error   failure.Code      `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Status  int               `json:"status"`
}

// MessageResponse is sent when only a message is set.
type MessageResponse struct {
	Message string `json:"message"`
}

func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{
		w:          w,
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response
func (rw *ResponseWriter) Status(code int) *ResponseWriter {
	if rw.sent {
		logger.Warn().Msg("attempted to set status after response was sent")
		return rw
	}
	rw.statusCode = code
	return rw
}

// Json sets the response data to be encoded as JSON
func (rw *ResponseWriter) Json(data any) *ResponseWriter {
	if rw.sent {
		logger.Warn().Msg("attempted to set JSON data after response was sent")
		return rw
	}
	rw.data = data
	rw.headers["Content-Type"] = "application/json"
	return rw
}

// Error marks the response as an error. The code defaults to failure.CodeOf(err).
func (rw *ResponseWriter) Error(err error) *ResponseWriter {
	if rw.sent {
		logger.Warn().Msg("attempted to set error after response was sent")
		return rw
	}
	rw.err = err
	if rw.code == "" {
		rw.code = failure.CodeOf(err)
	}
	rw.headers["Content-Type"] = "application/json"
	return rw
}

// Code overrides the machine-readable error code.
func (rw *ResponseWriter) Code(code failure.Code) *ResponseWriter {
	if rw.sent {
		logger.Warn().Msg("attempted to set code after response was sent")
		return rw
	}
	rw.code = code
	return rw
}

// Fields attaches per-field validation reasons to an error response.
func (rw *ResponseWriter) Fields(fields map[string]string) *ResponseWriter {
	if rw.sent {
		logger.Warn().Msg("attempted to set fields after response was sent")
		return rw
	}
	rw.fields = fields
	return rw
}

// Message sets a custom message for the response
func (rw *ResponseWriter) Message(msg string) *ResponseWriter {
	if rw.sent {
		logger.Warn().Msg("attempted to set message after response was sent")
		return rw
	}
	rw.message = msg
	return rw
}

// Header sets a custom header for the response
func (rw *ResponseWriter) Header(key, value string) *ResponseWriter {
	if rw.sent {
		logger.Warn().Msg("attempted to set header after response was sent")
		return rw
	}
	rw.headers[key] = value
	return rw
}

func (rw *ResponseWriter) Cookie(cookie *http.Cookie) *ResponseWriter {
	if rw.sent {
		logger.Warn().Msg("attempted to set cookie after response was sent")
		return rw
	}
	rw.cookies = append(rw.cookies, cookie)
	return rw
}

// Send finalizes and sends the HTTP response
func (rw *ResponseWriter) Send() {
	if rw.sent {
		logger.Warn().Msg("attempted to send response multiple times")
		return
	}
	rw.sent = true

	for key, value := range rw.headers {
		rw.w.Header().Set(key, value)
	}
	for _, cookie := range rw.cookies {
		http.SetCookie(rw.w, cookie)
	}

	if rw.err != nil {
		rw.sendErrorResponse()
		return
	}

	rw.sendSuccessResponse()
}

func (rw *ResponseWriter) sendErrorResponse() {
	if rw.statusCode >= 200 && rw.statusCode < 300 {
		rw.statusCode = http.StatusInternalServerError
	}
	if rw.code == "" {
		rw.code = failure.CodeInternal
	}

	errResp := ErrorResponse{
		Error:   rw.code,
		Message: rw.message,
		Fields:  rw.fields,
		Status:  rw.statusCode,
	}

	logEvent := logger.Warn()
	if rw.statusCode >= http.StatusInternalServerError {
		logEvent = logger.Error()
	}
	logEvent.
		Err(rw.err).
		Str("code", string(rw.code)).
		Int("status", rw.statusCode).
		Msg("HTTP error response")

	rw.w.WriteHeader(rw.statusCode)

	if err := json.NewEncoder(rw.w).Encode(errResp); err != nil {
		logger.Error().
			Err(err).
			Msg("failed to encode error response")
		_, _ = fmt.Fprintf(rw.w, `{"error":%q,"status":%d}`, failure.CodeInternal, http.StatusInternalServerError)
	}
}

func (rw *ResponseWriter) sendSuccessResponse() {
	if rw.headers["Content-Type"] == "" {
		rw.w.Header().Set("Content-Type", "application/json")
	}

	rw.w.WriteHeader(rw.statusCode)

	if rw.data != nil {
		if err := json.NewEncoder(rw.w).Encode(rw.data); err != nil {
			logger.Error().
				Err(err).
				Int("status", rw.statusCode).
				Msg("failed to encode success response")
		}
		return
	}

	if rw.message != "" {
		if err := json.NewEncoder(rw.w).Encode(MessageResponse{Message: rw.message}); err != nil {
			logger.Error().
				Err(err).
				Msg("failed to encode message response")
		}
		return
	}

	_, _ = rw.w.Write([]byte("{}"))
}

// OK sends a 200 OK response with optional data
func (rw *ResponseWriter) OK(data any) {
	rw.Status(http.StatusOK).Json(data).Send()
}

// Unauthorized sends a 401 with the UNAUTHORIZED code unless another was set.
func (rw *ResponseWriter) Unauthorized(err error) {
	if rw.code == "" {
		rw.code = failure.CodeUnauthorized
	}
	rw.Status(http.StatusUnauthorized).Error(err).Send()
}

// BadRequest sends a 400 with the VALIDATION_ERROR code unless another was set.
func (rw *ResponseWriter) BadRequest(err error) {
	if rw.code == "" {
		rw.code = failure.CodeValidation
	}
	rw.Status(http.StatusBadRequest).Error(err).Send()
}

// Respond creates a new ResponseWriter instance
func Respond(w http.ResponseWriter) *ResponseWriter {
	return NewResponseWriter(w)
}
