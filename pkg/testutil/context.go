package testutil

import (
	"net/http"

	id "certgen/pkg/domain"
	"certgen/pkg/requestcontext"
)

// WithOwnerID adds an owner to the request context, as the token middleware
// would for an authenticated request. Invalid IDs leave the request untouched.
func WithOwnerID(req *http.Request, ownerID string) *http.Request {
	parsed, err := id.ParseOwnerID(ownerID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithOwnerID(req.Context(), parsed))
}

// WithRequestID adds a request ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
