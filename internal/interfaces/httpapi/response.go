package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/footdata/standings-engine/internal/usecase"
)

const (
	envelopeVersion = "2.0"
	errorDomain     = "standings-engine"
)

// Responses follow the Google JSON style guide: a top-level envelope with
// apiVersion and exactly one of data or error.
type apiEnvelope struct {
	APIVersion string        `json:"apiVersion"`
	Data       any           `json:"data,omitempty"`
	Error      *apiErrorBody `json:"error,omitempty"`
}

type apiErrorBody struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Status  string         `json:"status"`
	Errors  []apiErrorItem `json:"errors,omitempty"`
}

type apiErrorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type errorMapping struct {
	HTTPStatus int
	Reason     string
	Status     string
}

// Sentinel-to-envelope mapping, checked in declaration order. Anything
// unmatched is reported as INTERNAL.
var errorTable = []struct {
	sentinel error
	mapped   errorMapping
}{
	{usecase.ErrInvalidInput, errorMapping{http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"}},
	{usecase.ErrNotFound, errorMapping{http.StatusNotFound, "notFound", "NOT_FOUND"}},
	{usecase.ErrUnauthorized, errorMapping{http.StatusUnauthorized, "unauthorized", "UNAUTHENTICATED"}},
	{usecase.ErrQueueOverload, errorMapping{http.StatusTooManyRequests, "queueOverloaded", "RESOURCE_EXHAUSTED"}},
	{usecase.ErrDependencyUnavailable, errorMapping{http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE"}},
	{usecase.ErrInvariantViolation, errorMapping{http.StatusInternalServerError, "calculationInvariantViolation", "INTERNAL"}},
}

func mapError(err error) errorMapping {
	for _, entry := range errorTable {
		if errors.Is(err, entry.sentinel) {
			return entry.mapped
		}
	}
	return errorMapping{http.StatusInternalServerError, "internalError", "INTERNAL"}
}

func writeJSON(_ context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(ctx, w, status, apiEnvelope{APIVersion: envelopeVersion, Data: data})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	mapped := mapError(err)
	writeJSON(ctx, w, mapped.HTTPStatus, errorEnvelope(mapped, err.Error()))
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	mapped := errorMapping{http.StatusInternalServerError, "internalError", "INTERNAL"}
	writeJSON(ctx, w, mapped.HTTPStatus, errorEnvelope(mapped, "internal server error"))
}

func errorEnvelope(mapped errorMapping, message string) apiEnvelope {
	return apiEnvelope{
		APIVersion: envelopeVersion,
		Error: &apiErrorBody{
			Code:    mapped.HTTPStatus,
			Message: message,
			Status:  mapped.Status,
			Errors: []apiErrorItem{
				{Domain: errorDomain, Reason: mapped.Reason, Message: message},
			},
		},
	}
}
