package dispatch

import "net/http"

// Result is what a route produces: either a payload with its status or a tagged error
type Result struct {
	Status  int
	Payload any
	Err     *Error
}

// OK wraps a successful payload with status 200
func OK(payload any) Result {
	return Result{Status: http.StatusOK, Payload: payload}
}

// Fail wraps a tagged error, taking its status
func Fail(err *Error) Result {
	return Result{Status: err.Status, Err: err}
}

// Failed reports whether the result carries an error
func (r Result) Failed() bool {
	return r.Err != nil
}
