// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// This file wraps outbound HTTP clients with a request quota, in the same
// decorator style used for quota-bound cloud APIs. Stock providers enforce
// per-minute request quotas and answer 429 once they are exceeded.
package cloud

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// QuotaAwareHTTPClient is an instrumented http.Client whose requests wait for
// a token from a limiter before they are sent.
type QuotaAwareHTTPClient struct {
	Client    *http.Client
	RateLimit *rate.Limiter
}

// NewQuotaAwareHTTPClient returns a client allowing requestsPerMinute
// requests with a burst of one. A non-positive rate disables pacing.
func NewQuotaAwareHTTPClient(requestsPerMinute int) *QuotaAwareHTTPClient {
	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(requestsPerMinute))
	}
	return &QuotaAwareHTTPClient{
		Client:    NewInstrumentedHTTPClient(),
		RateLimit: rate.NewLimiter(limit, 1),
	}
}

// Do waits for the limiter, bounded by the request context, then sends req.
func (q *QuotaAwareHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if err := q.RateLimit.Wait(req.Context()); err != nil {
		return nil, err
	}
	return q.Client.Do(req)
}

// NewInstrumentedHTTPClient returns an http.Client whose transport records
// an OpenTelemetry span per request. Timeouts come from request contexts.
func NewInstrumentedHTTPClient() *http.Client {
	return &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
}
