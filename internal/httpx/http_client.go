package httpx

import (
	"net/http"
	"time"
)

// Each classification request gets 20 seconds unless configured otherwise.
const defaultExternalHTTPTimeout = 20 * time.Second

var externalHTTPClient = &http.Client{
	Timeout: defaultExternalHTTPTimeout,
}

// ExternalHTTPClient returns the shared client used for LLM and Slack calls.
func ExternalHTTPClient() *http.Client {
	return externalHTTPClient
}

// ConfigureExternalHTTPClient sets the shared client timeout. Non-positive
// values keep the default.
func ConfigureExternalHTTPClient(timeoutSeconds int) time.Duration {
	timeout := defaultExternalHTTPTimeout
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	externalHTTPClient.Timeout = timeout
	return timeout
}

// DownloadClient returns a client without an overall deadline; large model
// files routinely take longer than any sensible request timeout.
func DownloadClient() *http.Client {
	return &http.Client{Transport: externalHTTPClient.Transport}
}
