package llm

import "errors"

// ErrRateLimited signals an HTTP 429 from the model API. The embeddings
// client retries it with backoff; everyone else surfaces it to the caller.
var ErrRateLimited = errors.New("rate limited")
