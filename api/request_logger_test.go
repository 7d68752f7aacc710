// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pborman/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}

func (h *recordHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordHandler) attr(i int, key string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var v string
	h.records[i].Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			v = a.Value.String()
			return false
		}
		return true
	})
	return v
}

func TestRequestLoggerHandler(t *testing.T) {
	rh := &recordHandler{}
	handler := RequestLoggerHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), log.NewLogger(rh))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/epoch/current", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	id := rec.Header().Get(requestIDHeader)
	require.NotNil(t, uuid.Parse(id))
	require.Len(t, rh.records, 1)
	assert.Equal(t, "API Request", rh.records[0].Message)
	assert.Equal(t, id, rh.attr(0, "id"))
	assert.Equal(t, "/epoch/current", rh.attr(0, "URI"))

	// a well-formed id from the caller is kept
	given := uuid.New()
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, given)
	handler.ServeHTTP(rec, req)
	assert.Equal(t, given, rec.Header().Get(requestIDHeader))

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "not-an-id")
	handler.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-an-id", rec.Header().Get(requestIDHeader))
}
