package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "medcred/pkg/domain-errors"
)

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so encoding errors are ignored.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteRawJSON writes an already-encoded JSON body byte for byte.
func WriteRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body) //nolint:errcheck // headers already sent
}

// WriteError centralizes domain error translation to HTTP responses.
// The body is {"error": code, "error_description": message}; the message is the
// error's own message so upstream diagnostics reach the caller.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		response := map[string]string{
			"error": DomainCodeToHTTPCode(domainErr.Code),
		}
		if msg := err.Error(); msg != "" {
			response["error_description"] = msg
		}
		WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), response)
		return
	}

	WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"error":             DomainCodeToHTTPCode(dErrors.CodeInternal),
		"error_description": err.Error(),
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeUnknownUser:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeUnknownActiveUser:
		return http.StatusConflict
	case dErrors.CodeUpstreamAuth, dErrors.CodeUpstreamIssuance, dErrors.CodeMalformedResponse:
		return http.StatusBadGateway
	case dErrors.CodeUpstreamTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeConfiguration, dErrors.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to the error string of the JSON envelope.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeBadRequest:
		return "bad_request"
	case dErrors.CodeValidation:
		return "validation_error"
	case dErrors.CodeUnauthorized:
		return "unauthorized"
	case dErrors.CodeConfiguration,
		dErrors.CodeUpstreamAuth,
		dErrors.CodeUpstreamIssuance,
		dErrors.CodeMalformedResponse,
		dErrors.CodeUpstreamTimeout,
		dErrors.CodeUnknownUser,
		dErrors.CodeUnknownActiveUser:
		return string(code)
	default:
		return "internal_error"
	}
}
