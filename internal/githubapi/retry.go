package githubapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

const (
	retryAfterHeaderConstant         = "Retry-After"
	rateLimitRemainingHeaderConstant = "X-RateLimit-Remaining"
	rateLimitExhaustedValueConstant  = "0"
)

type requestMethodContextKey struct{}

// methodRecordingTransport stores the request method in the request context, because
// CheckRetry receives no request when the round trip itself failed.
type methodRecordingTransport struct {
	next http.RoundTripper
}

func (transport methodRecordingTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	methodContext := context.WithValue(request.Context(), requestMethodContextKey{}, request.Method)
	return transport.next.RoundTrip(request.WithContext(methodContext))
}

// checkRetry extends the default policy with GitHub's 403 rate limit responses, which carry
// either Retry-After (secondary limits) or an exhausted X-RateLimit-Remaining (primary limits).
// POST and PATCH are retried only after a rate limit rejection: a 5xx or a dropped connection
// may follow a committed write.
func checkRetry(executionContext context.Context, response *http.Response, requestError error) (bool, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return false, contextError
	}
	if requestError == nil && isRateLimited(response) {
		return true, nil
	}
	if !isIdempotent(requestMethod(executionContext, response)) {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(executionContext, response, requestError)
}

// rateLimitBackoff waits for the Retry-After seconds GitHub sends with 403 secondary limits.
// Everything else uses the default exponential backoff, which already reads Retry-After on 429 and 503.
func rateLimitBackoff(minimumWait time.Duration, maximumWait time.Duration, attemptNumber int, response *http.Response) time.Duration {
	if response != nil && response.StatusCode == http.StatusForbidden {
		if retryAfterSeconds, parseError := strconv.Atoi(strings.TrimSpace(response.Header.Get(retryAfterHeaderConstant))); parseError == nil && retryAfterSeconds >= 0 {
			return time.Duration(retryAfterSeconds) * time.Second
		}
	}
	return retryablehttp.DefaultBackoff(minimumWait, maximumWait, attemptNumber, response)
}

func isRateLimited(response *http.Response) bool {
	if response == nil {
		return false
	}
	switch response.StatusCode {
	case http.StatusTooManyRequests:
		return true
	case http.StatusForbidden:
		if len(strings.TrimSpace(response.Header.Get(retryAfterHeaderConstant))) > 0 {
			return true
		}
		return strings.TrimSpace(response.Header.Get(rateLimitRemainingHeaderConstant)) == rateLimitExhaustedValueConstant
	default:
		return false
	}
}

func requestMethod(executionContext context.Context, response *http.Response) string {
	if method, found := executionContext.Value(requestMethodContextKey{}).(string); found {
		return method
	}
	if response != nil && response.Request != nil {
		return response.Request.Method
	}
	return http.MethodGet
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPatch:
		return false
	default:
		return true
	}
}

// leveledLogger routes retryablehttp diagnostics into zap.
type leveledLogger struct {
	sugaredLogger *zap.SugaredLogger
}

func newLeveledLogger(logger *zap.Logger) retryablehttp.LeveledLogger {
	return leveledLogger{sugaredLogger: logger.Sugar()}
}

func (logger leveledLogger) Error(message string, keysAndValues ...interface{}) {
	logger.sugaredLogger.Errorw(message, keysAndValues...)
}

func (logger leveledLogger) Info(message string, keysAndValues ...interface{}) {
	logger.sugaredLogger.Infow(message, keysAndValues...)
}

// Debug is used for per-request tracing.
func (logger leveledLogger) Debug(message string, keysAndValues ...interface{}) {
	logger.sugaredLogger.Debugw(message, keysAndValues...)
}

func (logger leveledLogger) Warn(message string, keysAndValues ...interface{}) {
	logger.sugaredLogger.Warnw(message, keysAndValues...)
}
