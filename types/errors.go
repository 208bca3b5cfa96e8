package types

// ErrorKind categorizes why a command was rejected or failed.
type ErrorKind string

const (
	ErrMalformedCommand   ErrorKind = "malformed_command"
	ErrFileNotFound       ErrorKind = "file_not_found"
	ErrFileMissingOnDisk  ErrorKind = "file_missing_on_disk"
	ErrInvalidTimeFormat  ErrorKind = "invalid_time_format"
	ErrNegativeTime       ErrorKind = "negative_time"
	ErrInvalidRange       ErrorKind = "invalid_range"
	ErrRangeExceedsLength ErrorKind = "range_exceeds_duration"
	ErrAudioRead          ErrorKind = "audio_read_error"
	ErrUnknownCommand     ErrorKind = "unknown_command"
)

// RequestError is a categorized, client-presentable rejection of one command.
// The Message travels as the error payload of a framed response.
type RequestError struct {
	Kind    ErrorKind
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// NewRequestError creates a categorized request error
func NewRequestError(kind ErrorKind, message string) *RequestError {
	return &RequestError{Kind: kind, Message: message}
}
