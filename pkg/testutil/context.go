package testutil

import (
	"net/http"

	"assetgate/pkg/requestcontext"
)

// WithSubmitter attaches an authenticated submitter id to the request
// context, simulating what the auth middleware does.
func WithSubmitter(req *http.Request, submitterID string) *http.Request {
	ctx := requestcontext.WithSubmitterID(req.Context(), submitterID)
	return req.WithContext(ctx)
}

// WithRequestID attaches a correlation id to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	ctx := requestcontext.WithRequestID(req.Context(), requestID)
	return req.WithContext(ctx)
}
