package types

import "github.com/m-mizutani/goerr/v2"

// ErrRecordNotFound is wrapped by every repository backend when a requested
// record does not exist, so callers can branch on it regardless of backend.
var ErrRecordNotFound = goerr.New("record not found")
