package handler

const (
	// APIPath is the root path of the JSON API.
	APIPath = "/api"

	// ErrNilFatalLogMsg is logged when a handler is initialized without its dependencies.
	ErrNilFatalLogMsg = "router or service is nil"
)
