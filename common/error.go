/*
Copyright 2020 The OVSDB Manager Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package common

import (
	"net/http"

	"github.com/goccy/go-json"
)

/*
APIError is the body of every failed gateway request. Code and Error
describe the failure as the gateway sees it. When an OVSDB server rejected
a transaction, OVSDBError carries the server's error string and Operation
the position of the operation that failed; a position equal to the number
of operations means the commit itself failed.
*/
type APIError struct {
	Code        string `json:"code"`
	Error       string `json:"error"`
	Description string `json:"description,omitempty"`
	OVSDBError  string `json:"ovsdbError,omitempty"`
	Operation   *int   `json:"operation,omitempty"`
}

// WithOperation records the failing operation. Negative positions are ignored.
func (e *APIError) WithOperation(index int) *APIError {
	if index >= 0 {
		e.Operation = &index
	}
	return e
}

/*
Send writes the error with the given HTTP status.
*/
func (e *APIError) Send(statusCode int, resp http.ResponseWriter) {
	buf, err := json.Marshal(e)
	if err != nil {
		http.Error(resp, e.Error, statusCode)
		return
	}
	resp.Header().Set("Content-Type", "application/json")
	resp.WriteHeader(statusCode)
	resp.Write(buf)
}

// SendAPIError sends an error that did not come from an OVSDB server.
func SendAPIError(code, error, description string,
	statusCode int, resp http.ResponseWriter) {

	em := &APIError{
		Code:        code,
		Error:       error,
		Description: description,
	}
	em.Send(statusCode, resp)
}
