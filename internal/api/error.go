package api

// HTTPError is returned by endpoints; Message goes to the client and
// ErrorLog only to the log.
type HTTPError struct {
	StatusCode int
	Message    string
	ErrorLog   error
}

func (e *HTTPError) Error() string {
	return e.Message
}

type ApiError struct {
	Error string `json:"message"`
}
