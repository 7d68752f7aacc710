// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package subscriptions pushes epoch changes to websocket clients.
package subscriptions

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/mixledger/mixledger/api/utils"
	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet"
	"github.com/mixledger/mixledger/mixnet/interval"
)

const (
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 7) / 10
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
)

var logger = log.New("pkg", "subscriptions")

func SetLogger(l log.Logger) {
	logger = l
}

// EpochMessage is sent once per epoch.
type EpochMessage struct {
	Epoch       mix.FullEpochID      `json:"epoch"`
	Interval    *interval.Interval   `json:"interval"`
	EpochEnd    uint64               `json:"epoch_end"`
	RewardedSet interval.RewardedSet `json:"rewarded_set"`
}

type Subscriptions struct {
	view         func() *mixnet.Mixnet
	pollInterval time.Duration
	upgrader     *websocket.Upgrader
	cache        *messageCache
	done         chan struct{}
	wg           sync.WaitGroup
}

// New polls the ledger every pollInterval for a new epoch. Origins are
// matched case-insensitively, "*" allows any.
func New(view func() *mixnet.Mixnet, allowedOrigins []string, pollInterval time.Duration) *Subscriptions {
	return &Subscriptions{
		view:         view,
		pollInterval: pollInterval,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				origin = strings.ToLower(origin)
				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
		cache: newMessageCache(16),
		done:  make(chan struct{}),
	}
}

// next returns the message of the current epoch if it is after last.
func (s *Subscriptions) next(last *mix.FullEpochID) ([]byte, mix.FullEpochID, error) {
	m := s.view()
	clock, err := m.CurrentInterval()
	if err != nil {
		return nil, 0, err
	}
	epoch := clock.CurrentFullEpochID()
	if last != nil && epoch <= *last {
		return nil, 0, nil
	}
	msg, created, err := s.cache.GetOrAdd(epoch, func() ([]byte, error) {
		set, err := m.RewardedSet()
		if err != nil {
			return nil, err
		}
		return json.Marshal(&EpochMessage{
			Epoch:       epoch,
			Interval:    clock,
			EpochEnd:    clock.EpochEnd(),
			RewardedSet: set,
		})
	})
	if err != nil {
		return nil, 0, err
	}
	if created {
		metricMessageCreated().Add(1)
	}
	return msg, epoch, nil
}

func (s *Subscriptions) handleSubscribeEpoch(w http.ResponseWriter, req *http.Request) error {
	var last *mix.FullEpochID
	if v := req.URL.Query().Get("pos"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "pos"))
		}
		pos := mix.FullEpochID(n)
		last = &pos
	}

	conn, err := s.upgrader.Upgrade(w, req, nil)
	// since the conn is hijacked here, no error should be returned in lines below
	if err != nil {
		logger.Debug("upgrade to websocket", "err", err)
		return nil
	}
	s.wg.Add(1)
	defer s.wg.Done()
	defer conn.Close()

	metricActiveCount().AddWithLabel(1, map[string]string{"subject": "epoch"})
	defer metricActiveCount().AddWithLabel(-1, map[string]string{"subject": "epoch"})

	var closeMsg []byte
	if err := s.pipe(conn, last); err != nil {
		closeMsg = websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error())
	} else {
		closeMsg = websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
	}
	if err := conn.WriteMessage(websocket.CloseMessage, closeMsg); err != nil {
		logger.Debug("write close message", "err", err)
	}
	return nil
}

func (s *Subscriptions) pipe(conn *websocket.Conn, last *mix.FullEpochID) error {
	closed := make(chan struct{})
	// the read loop keeps pong handling alive and notices the peer leaving
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				logger.Debug("websocket read", "err", err)
				return
			}
		}
	}()

	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return err
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()
	pollTicker := time.NewTicker(s.pollInterval)
	defer pollTicker.Stop()

	for {
		msg, epoch, err := s.next(last)
		if err != nil {
			return err
		}
		if msg != nil {
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return err
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
			last = &epoch
		}

		select {
		case <-s.done:
			return nil
		case <-closed:
			return nil
		case <-pingTicker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return err
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		case <-pollTicker.C:
		}
	}
}

// Close disconnects every subscriber and waits for the handlers to return.
func (s *Subscriptions) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/epoch").
		Methods(http.MethodGet).
		Name("subscriptions_epoch").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeEpoch))
}
