package handler

import (
	"errors"
	"net/http"

	"bankauth/internal"
	"bankauth/internal/failure"
)

var statusByCode = map[failure.Code]int{
	failure.CodeUserExists:         http.StatusConflict,
	failure.CodeValidation:         http.StatusBadRequest,
	failure.CodeInvalidRole:        http.StatusBadRequest,
	failure.CodeInvalidCredentials: http.StatusUnauthorized,
	failure.CodeUnauthorized:       http.StatusUnauthorized,
	failure.CodeNotFound:           http.StatusNotFound,
	failure.CodeKeycloak:           http.StatusInternalServerError,
	failure.CodeDatabase:           http.StatusInternalServerError,
	failure.CodeKafka:              http.StatusInternalServerError,
	failure.CodeInternal:           http.StatusInternalServerError,
}

// writeError maps err to its status and code. Server-side failures get an
// opaque message; client errors echo the error text.
func writeError(w http.ResponseWriter, err error) {
	code := failure.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		code, status = failure.CodeInternal, http.StatusInternalServerError
	}

	rw := internal.Respond(w).Status(status).Code(code).Error(err)

	var validation *failure.ValidationError
	switch {
	case errors.As(err, &validation):
		rw.Message("request validation failed").Fields(validation.Fields)
	case status >= http.StatusInternalServerError:
		rw.Message(failure.ErrServer.Error())
	default:
		rw.Message(err.Error())
	}

	rw.Send()
}
