// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package epoch serves the epoch clock, rewarding parameters, pending
// events and account balances.
package epoch

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mixledger/mixledger/api/utils"
	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet"
	"github.com/mixledger/mixledger/mixnet/events"
	"github.com/mixledger/mixledger/mixnet/interval"
)

type Epoch struct {
	view func() *mixnet.Mixnet
}

func New(view func() *mixnet.Mixnet) *Epoch {
	return &Epoch{view}
}

func (e *Epoch) handleGetParams(w http.ResponseWriter, _ *http.Request) error {
	params, err := e.view().Params()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, params)
}

func (e *Epoch) handleGetInterval(w http.ResponseWriter, _ *http.Request) error {
	clock, err := e.view().CurrentInterval()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Interval{Interval: clock, EpochEnd: clock.EpochEnd()})
}

func (e *Epoch) handleGetRewardedSet(w http.ResponseWriter, _ *http.Request) error {
	set, err := e.view().RewardedSet()
	if err != nil {
		return err
	}
	if set == nil {
		set = make([]interval.RewardedSetNode, 0)
	}
	return utils.WriteJSON(w, set)
}

func (e *Epoch) handleListEpochEvents(w http.ResponseWriter, req *http.Request) error {
	limit, err := utils.LimitQuery(req)
	if err != nil {
		return err
	}
	list, err := e.view().PendingEpochEvents(uint64(limit))
	if err != nil {
		return err
	}
	out := make([]*PendingEvent, 0, len(list))
	for _, entry := range list {
		out = append(out, newPendingEvent(uint64(entry.ID), entry.Event.Kind(), entry.Event))
	}
	return utils.WriteJSON(w, out)
}

func (e *Epoch) handleListIntervalEvents(w http.ResponseWriter, req *http.Request) error {
	limit, err := utils.LimitQuery(req)
	if err != nil {
		return err
	}
	list, err := e.view().PendingIntervalEvents(uint64(limit))
	if err != nil {
		return err
	}
	out := make([]*PendingEvent, 0, len(list))
	for _, entry := range list {
		out = append(out, newPendingEvent(uint64(entry.ID), entry.Event.Kind(), entry.Event))
	}
	return utils.WriteJSON(w, out)
}

func (e *Epoch) handleGetBalance(w http.ResponseWriter, req *http.Request) error {
	addr := mix.Addr(mux.Vars(req)["address"])
	balance, err := e.view().Balance(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"address": addr, "balance": balance})
}

func newPendingEvent(id uint64, kind events.Kind, ev any) *PendingEvent {
	return &PendingEvent{ID: id, Kind: kind.String(), Event: ev}
}

func (e *Epoch) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/params").
		Methods(http.MethodGet).
		Name("epoch_get_params").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetParams))
	sub.Path("/interval").
		Methods(http.MethodGet).
		Name("epoch_get_interval").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetInterval))
	sub.Path("/rewarded-set").
		Methods(http.MethodGet).
		Name("epoch_get_rewarded_set").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetRewardedSet))
	sub.Path("/events/epoch").
		Methods(http.MethodGet).
		Name("epoch_list_epoch_events").
		HandlerFunc(utils.WrapHandlerFunc(e.handleListEpochEvents))
	sub.Path("/events/interval").
		Methods(http.MethodGet).
		Name("epoch_list_interval_events").
		HandlerFunc(utils.WrapHandlerFunc(e.handleListIntervalEvents))
	sub.Path("/balances/{address}").
		Methods(http.MethodGet).
		Name("epoch_get_balance").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetBalance))
}
