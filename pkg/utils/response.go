package utils

// ResponseData is the JSON envelope returned by every REST endpoint.
type ResponseData struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Results any    `json:"results,omitempty"`
}

// PanicIfNeeded panics on non-nil errors so the recovery middleware can map
// typed errors to HTTP responses in one place.
func PanicIfNeeded(err any) {
	if err != nil {
		panic(err)
	}
}
