package handle

// Error codes reported by the inspected process. Transports translate their
// wire errors into RemoteError values carrying one of these codes so the
// binding layer can classify failures without knowing the wire format.
const (
	CodeMemberNotFound     = "MEMBER_NOT_FOUND"
	CodeHandleNotFound     = "HANDLE_NOT_FOUND"
	CodeNotACollection     = "NOT_A_COLLECTION"
	CodeInvalidArgument    = "INVALID_ARGUMENT"
	CodeUnsupportedVersion = "UNSUPPORTED_VERSION"
	CodeInternal           = "INTERNAL_ERROR"
)

// RemoteError is a structured failure reported by the inspected process.
type RemoteError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *RemoteError) Error() string {
	return e.Code + ": " + e.Message
}

// NewRemoteError creates a new RemoteError.
func NewRemoteError(code, message string) *RemoteError {
	return &RemoteError{Code: code, Message: message}
}
