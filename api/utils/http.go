// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	pkgerrors "github.com/pkg/errors"

	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet/reverts"
)

const (
	// DefaultLimit is used by paged queries without an explicit limit.
	DefaultLimit = 50
	// MaxLimit bounds the page size.
	MaxLimit = 500
)

type httpError struct {
	cause  error
	status int
}

func (e *httpError) Error() string {
	return e.cause.Error()
}

// HTTPError create an error with http status code.
func HTTPError(cause error, status int) error {
	return &httpError{
		cause:  cause,
		status: status,
	}
}

// BadRequest convenience method to create http bad request error.
func BadRequest(cause error) error {
	return &httpError{
		cause:  cause,
		status: http.StatusBadRequest,
	}
}

// NotFound convenience method to create http not found error.
func NotFound(cause error) error {
	return &httpError{
		cause:  cause,
		status: http.StatusNotFound,
	}
}

// Forbidden convenience method to create http forbidden error.
func Forbidden(cause error) error {
	return &httpError{
		cause:  cause,
		status: http.StatusForbidden,
	}
}

// HandlerFunc like http.HandlerFunc, bu it returns an error.
// If the returned error is httpError type, httpError.status will be responded,
// a revert is answered with 400 and its code, anything else with 500.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// WrapHandlerFunc convert HandlerFunc to http.HandlerFunc.
func WrapHandlerFunc(f HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := f(w, r)
		if err == nil {
			return
		}
		var he *httpError
		switch {
		case errors.As(err, &he):
			if he.cause != nil {
				http.Error(w, he.cause.Error(), he.status)
			} else {
				w.WriteHeader(he.status)
			}
		case reverts.IsRevertErr(err):
			w.Header().Set("Content-Type", JSONContentType)
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(M{"code": reverts.CodeOf(err).String(), "message": err.Error()})
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// content types
const (
	JSONContentType = "application/json; charset=utf-8"
)

// ParseJSON parse a JSON object using strict mode.
func ParseJSON(r io.Reader, v any) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// WriteJSON response an object in JSON encoding.
func WriteJSON(w http.ResponseWriter, obj any) error {
	w.Header().Set("Content-Type", JSONContentType)
	return json.NewEncoder(w).Encode(obj)
}

// M shortcut for type map[string]any.
type M map[string]any

// NodeIDVar parses the {id} path variable.
func NodeIDVar(req *http.Request) (mix.NodeID, error) {
	id, err := mix.ParseNodeID(mux.Vars(req)["id"])
	if err != nil {
		return 0, BadRequest(pkgerrors.WithMessage(err, "id"))
	}
	return id, nil
}

// ProxyQuery returns the optional proxy query parameter.
func ProxyQuery(req *http.Request) *mix.Addr {
	s := req.URL.Query().Get("proxy")
	if s == "" {
		return nil
	}
	proxy := mix.Addr(s)
	return &proxy
}

// LimitQuery parses the limit query parameter, DefaultLimit if absent.
func LimitQuery(req *http.Request) (int, error) {
	s := req.URL.Query().Get("limit")
	if s == "" {
		return DefaultLimit, nil
	}
	limit, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, BadRequest(pkgerrors.WithMessage(err, "limit"))
	}
	if limit == 0 || limit > MaxLimit {
		return 0, BadRequest(pkgerrors.Errorf("limit: must be within [1, %d]", MaxLimit))
	}
	return int(limit), nil
}
