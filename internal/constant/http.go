package constant

const (
	ServiceName = "valueprobe-backend"

	ContextKeyRequestID = "requestID"

	RequestIDHeader = "X-Probe-Request-ID"
)
