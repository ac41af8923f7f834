package capability

import (
	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
)

// Result is what every capability hands back to the reasoning service.
type Result struct {
	Success   bool                `json:"success"`
	Message   string              `json:"message"`
	ErrorType contractx.ErrorKind `json:"error_type,omitempty"`
	Data      any                 `json:"data,omitempty"`
}

func ok(message string, data any) Result {
	return Result{Success: true, Message: message, Data: data}
}

func fail(err error) Result {
	return Result{Success: false, Message: err.Error(), ErrorType: contractx.KindOf(err)}
}

// failWith keeps the error kind of err but replaces the message.
func failWith(err error, message string) Result {
	return Result{Success: false, Message: message, ErrorType: contractx.KindOf(err)}
}
