// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epoch

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mixledger/mixledger/decimal"
	"github.com/mixledger/mixledger/lvldb"
	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet"
	"github.com/mixledger/mixledger/mixnet/bonds"
	"github.com/mixledger/mixledger/mixnet/rewarding"
	"github.com/mixledger/mixledger/state"
)

func newRouter(t *testing.T) (*mux.Router, *mixnet.Mixnet) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	m := mixnet.New(state.New(db, nil))
	require.NoError(t, m.Initialise(mixnet.DefaultGenesis(), mix.Env{Height: 1, Time: 1000}))

	router := mux.NewRouter()
	New(func() *mixnet.Mixnet { return mixnet.New(state.New(db, nil)) }).Mount(router, "/epoch")
	return router, m
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestParamsAndInterval(t *testing.T) {
	router, m := newRouter(t)

	// nothing committed yet
	rec := get(t, router, "/epoch/params")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	_, err := m.Commit()
	require.NoError(t, err)

	rec = get(t, router, "/epoch/params")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var params rewarding.RewardingParams
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &params))
	assert.Equal(t, uint32(240), params.RewardedSetSize)
	assert.Equal(t, "250000000000000", params.Interval.RewardPool.String())

	rec = get(t, router, "/epoch/interval")
	require.Equal(t, http.StatusOK, rec.Code)
	var clock struct {
		EpochsInInterval uint32 `json:"epochs_in_interval"`
		EpochEnd         uint64 `json:"epoch_end"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &clock))
	assert.Equal(t, uint32(720), clock.EpochsInInterval)
	assert.Equal(t, uint64(1000+3600), clock.EpochEnd)

	rec = get(t, router, "/epoch/rewarded-set")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestPendingEvents(t *testing.T) {
	router, m := newRouter(t)

	costs := rewarding.MixNodeCostParams{
		ProfitMarginPercent:   decimal.MustPercent("0.1"),
		IntervalOperatingCost: mix.NewCoin(0, mix.DefaultDenom),
	}
	id, err := m.BondMixnode("alice", nil, bonds.MixNode{IdentityKey: "alice-identity"}, costs,
		mix.NewCoin(100_000_000_000, mix.DefaultDenom), mix.Env{Height: 2, Time: 1000})
	require.NoError(t, err)
	require.NoError(t, m.Delegate("dave", id, mix.NewCoin(10, mix.DefaultDenom), nil))
	require.NoError(t, m.UpdateCostParams("alice", nil, costs))
	_, err = m.Commit()
	require.NoError(t, err)

	rec := get(t, router, "/epoch/events/epoch")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []struct {
		ID    uint64          `json:"id"`
		Kind  string          `json:"kind"`
		Event json.RawMessage `json:"event"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "delegate", list[0].Kind)
	assert.Contains(t, string(list[0].Event), `"owner":"dave"`)

	rec = get(t, router, "/epoch/events/interval?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "change_cost_params", list[0].Kind)

	rec = get(t, router, "/epoch/balances/dave")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"address":"dave","balance":{"amount":0,"denom":"unym"}}`, rec.Body.String())
}
