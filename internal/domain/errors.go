package domain

// RejectionError means the backend answered but refused the request.
// Message is the backend's own explanation and may be empty.
type RejectionError struct {
	Message string
}

func (e *RejectionError) Error() string {
	if e.Message == "" {
		return "request rejected"
	}
	return "request rejected: " + e.Message
}
