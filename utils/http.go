// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// NewHTTPClient returns a client for service-to-service calls. A non-positive timeout means 30s.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
