package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig     = fmt.Errorf("invalid configuration")
	ErrUnsupportedDriver = fmt.Errorf("unsupported database driver")

	// Connection pipeline errors
	ErrConnection       = fmt.Errorf("connection error")
	ErrMalformedRequest = fmt.Errorf("malformed request")
	ErrRequestTooLarge  = fmt.Errorf("request exceeds size limit")
	ErrQueryFailed      = fmt.Errorf("query failed")
	ErrSerialization    = fmt.Errorf("serialization error")
	ErrProtocolVersion  = fmt.Errorf("unsupported protocol version")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
