// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mixledger/mixledger/api/doc"
	"github.com/mixledger/mixledger/lvldb"
	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet"
	"github.com/mixledger/mixledger/rewarddb"
	"github.com/mixledger/mixledger/state"
)

func newTestStore(t *testing.T) *lvldb.LevelDB {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	m := mixnet.New(state.New(db, nil))
	require.NoError(t, m.Initialise(mixnet.DefaultGenesis(), mix.Env{Height: 1, Time: 1000}))
	_, err = m.Commit()
	require.NoError(t, err)
	return db
}

func newTestLedger(t *testing.T) func() *mixnet.Mixnet {
	db := newTestStore(t)
	return func() *mixnet.Mixnet { return mixnet.New(state.New(db, nil)) }
}

func TestRouter(t *testing.T) {
	db := newTestStore(t)
	history, err := rewarddb.NewMem()
	require.NoError(t, err)
	defer history.Close()

	handler, closeSubs := New(db, state.NewCache(1), history, Options{AllowedOrigins: "*", EnableMetrics: true})
	defer closeSubs()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/epoch/params", nil)
	req.Header.Set("Origin", "http://example.com")
	handler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/mixnodes", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/rewards/history/1/totals", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/doc/mixledger.yaml", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/rewards/estimate/{id}")
	assert.Equal(t, doc.Version(), rec.Header().Get("x-mixledger-ver"))

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `mixledger_api_request_count{code="200",method="GET",name="mixnodes_list"} 1`)
}

func TestRouterWithoutHistory(t *testing.T) {
	handler, closeSubs := New(newTestStore(t), nil, nil, Options{})
	defer closeSubs()

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/rewards/history/1/totals", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/rewards/estimate/1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "no mixnode is bonded")
}

func TestMetricsResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	mrw := newMetricsResponseWriter(rec)
	assert.Equal(t, http.StatusOK, mrw.statusCode)

	mrw.WriteHeader(http.StatusTeapot)
	assert.Equal(t, http.StatusTeapot, mrw.statusCode)
	assert.Equal(t, http.StatusTeapot, rec.Code)

	// the recorder can't be hijacked
	_, _, err := mrw.Hijack()
	assert.Error(t, err)
}
