// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mixledger/mixledger/lvldb"
	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet"
	"github.com/mixledger/mixledger/mixnet/interval"
	"github.com/mixledger/mixledger/state"
)

type testLedger struct {
	t   *testing.T
	db  *lvldb.LevelDB
	now uint64
}

func (l *testLedger) view() *mixnet.Mixnet {
	return mixnet.New(state.New(l.db, nil))
}

func (l *testLedger) advance(ids ...mix.NodeID) {
	l.now += 3600
	m := l.view()
	_, err := m.AdvanceEpoch(interval.NewRewardedSet(ids, 100), mix.Env{Height: 1, Time: l.now})
	require.NoError(l.t, err)
	_, err = m.Commit()
	require.NoError(l.t, err)
}

func newTestLedger(t *testing.T) *testLedger {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	l := &testLedger{t: t, db: db, now: 1_700_000_000}
	m := l.view()
	require.NoError(t, m.Initialise(mixnet.DefaultGenesis(), mix.Env{Height: 1, Time: l.now}))
	_, err = m.Commit()
	require.NoError(t, err)
	return l
}

func serve(t *testing.T, s *Subscriptions) string {
	router := mux.NewRouter()
	s.Mount(router, "/subscriptions")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func readEpoch(t *testing.T, conn *websocket.Conn) *EpochMessage {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg EpochMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return &msg
}

func TestSubscribeEpoch(t *testing.T) {
	l := newTestLedger(t)
	s := New(l.view, []string{"*"}, 10*time.Millisecond)
	url := serve(t, s)

	conn, _, err := websocket.DefaultDialer.Dial(url+"/subscriptions/epoch", nil)
	require.NoError(t, err)
	defer conn.Close()

	msg := readEpoch(t, conn)
	assert.Equal(t, mix.FullEpochID(0), msg.Epoch)
	assert.Empty(t, msg.RewardedSet)

	l.advance()
	msg = readEpoch(t, conn)
	assert.Equal(t, mix.FullEpochID(1), msg.Epoch)
	assert.Equal(t, msg.Interval.EpochEnd(), msg.EpochEnd)

	// a client that has seen epoch 1 waits for the next one
	late, _, err := websocket.DefaultDialer.Dial(url+"/subscriptions/epoch?pos=1", nil)
	require.NoError(t, err)
	defer late.Close()

	l.advance()
	assert.Equal(t, mix.FullEpochID(2), readEpoch(t, late).Epoch)
	assert.Equal(t, mix.FullEpochID(2), readEpoch(t, conn).Epoch)

	s.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestSubscribeBadRequest(t *testing.T) {
	l := newTestLedger(t)
	s := New(l.view, nil, time.Second)
	defer s.Close()
	url := serve(t, s)

	_, res, err := websocket.DefaultDialer.Dial(url+"/subscriptions/epoch?pos=x", nil)
	assert.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, res, err = websocket.DefaultDialer.Dial(url+"/subscriptions/epoch", header)
	assert.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}
