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

package ovsdbapi

import (
	"net/http"

	"github.com/Fundacio-i2CAT/ovsdb-manager/common"
	"github.com/Fundacio-i2CAT/ovsdb-manager/ovsdbclient"
	"github.com/pkg/errors"
)

type errorCode int

const (
	invalidRequestParam errorCode = iota
	unsupportedMediaType
	serverError
	unknownDatabase
	notFound
	invalidOperation
	constraintViolation
	transactionFailed
	resourcesExhausted
	ovsdbUnavailable
	ovsdbTimeout
)

func sendAPIError(code errorCode, description string,
	resp http.ResponseWriter, req *http.Request) {

	ec, em, sc := code.errInfo()
	common.SendAPIError(ec, em, description, sc, resp)
}

func (e errorCode) errInfo() (string, string, int) {
	switch e {
	case invalidRequestParam:
		return "INVALID_REQUEST_PARAM", "An invalid param was in the request", http.StatusBadRequest
	case unsupportedMediaType:
		return "UNSUPPORTED_MEDIA_TYPE", "The media type is not supported", http.StatusUnsupportedMediaType
	case serverError:
		return "INTERNAL_SERVER_ERROR", "An error occurred in the server", http.StatusInternalServerError
	case unknownDatabase:
		return "UNKNOWN_DATABASE", "The database does not exist", http.StatusNotFound
	case notFound:
		return "NOT_FOUND", "The resource was not found", http.StatusNotFound
	case invalidOperation:
		return "INVALID_OPERATION", "The OVSDB server rejected the request", http.StatusBadRequest
	case constraintViolation:
		return "CONSTRAINT_VIOLATION", "The transaction violates a database constraint", http.StatusConflict
	case transactionFailed:
		return "TRANSACTION_FAILED", "The transaction could not be committed", http.StatusInternalServerError
	case resourcesExhausted:
		return "RESOURCES_EXHAUSTED", "The OVSDB server is out of resources", http.StatusServiceUnavailable
	case ovsdbUnavailable:
		return "OVSDB_UNAVAILABLE", "The OVSDB server cannot be reached", http.StatusBadGateway
	case ovsdbTimeout:
		return "OVSDB_TIMEOUT", "The OVSDB server did not answer in time", http.StatusGatewayTimeout
	default:
		return "UNKNOWN", "An unknown error occurred", http.StatusInternalServerError
	}
}

// codeFor picks the API error for an error from the client.
func codeFor(err error) errorCode {
	var oe *ovsdbclient.Error

	switch {
	case ovsdbclient.IsTimeout(err):
		return ovsdbTimeout
	case ovsdbclient.IsConnectionError(err),
		errors.Is(err, ovsdbclient.ErrBroken),
		errors.Is(err, ovsdbclient.ErrClosed):
		return ovsdbUnavailable
	case errors.Is(err, ovsdbclient.ErrInvalidOperation),
		errors.Is(err, ovsdbclient.ErrDuplicateUUIDName),
		errors.Is(err, ovsdbclient.ErrUnsupportedFunction),
		errors.Is(err, ovsdbclient.ErrNonNumericValue):
		return invalidRequestParam
	case errors.As(err, &oe):
		switch oe.Kind {
		case ovsdbclient.KindUnknownDatabase:
			return unknownDatabase
		case ovsdbclient.KindResourceNotFound:
			return notFound
		case ovsdbclient.KindSyntaxError, ovsdbclient.KindQuery:
			return invalidOperation
		case ovsdbclient.KindConstraintViolation, ovsdbclient.KindReferentialIntegrityViolation:
			return constraintViolation
		case ovsdbclient.KindResourcesExhausted:
			return resourcesExhausted
		default:
			return transactionFailed
		}
	default:
		return serverError
	}
}

func sendClientError(err error, resp http.ResponseWriter, req *http.Request) {
	code := codeFor(err)
	ec, em, sc := code.errInfo()
	ae := &common.APIError{
		Code:        ec,
		Error:       em,
		Description: err.Error(),
	}

	var oe *ovsdbclient.Error
	if errors.As(err, &oe) && oe.Code != "" {
		ae.OVSDBError = oe.Code
		ae.WithOperation(oe.Index)
	}
	ae.Send(sc, resp)
}

func (e errorCode) name() string {
	ec, _, _ := e.errInfo()
	return ec
}
