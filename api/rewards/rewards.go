// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mixledger/mixledger/api/utils"
	"github.com/mixledger/mixledger/decimal"
	"github.com/mixledger/mixledger/mixnet"
	"github.com/mixledger/mixledger/rewarddb"
)

type Rewards struct {
	view  func() *mixnet.Mixnet
	db    *rewarddb.RewardDB
	limit uint64
}

// New returns the reward queries. db may be nil, the history routes are then
// not mounted.
func New(view func() *mixnet.Mixnet, db *rewarddb.RewardDB) *Rewards {
	return &Rewards{view, db, utils.MaxLimit}
}

func (r *Rewards) options(opts *Options) (*rewarddb.Options, error) {
	if opts == nil {
		return &rewarddb.Options{Limit: utils.DefaultLimit}, nil
	}
	if opts.Limit > r.limit {
		return nil, utils.Forbidden(errors.Errorf("options.limit exceeds the maximum allowed value of %d", r.limit))
	}
	limit := opts.Limit
	if limit == 0 {
		limit = utils.DefaultLimit
	}
	return &rewarddb.Options{Offset: opts.Offset, Limit: limit}, nil
}

func (r *Rewards) handleFilterRewards(w http.ResponseWriter, req *http.Request) error {
	var filter RewardFilter
	if err := utils.ParseJSON(req.Body, &filter); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	rng, err := convertRange(filter.Range)
	if err != nil {
		return utils.BadRequest(err)
	}
	order, err := convertOrder(filter.Order)
	if err != nil {
		return utils.BadRequest(err)
	}
	opts, err := r.options(filter.Options)
	if err != nil {
		return err
	}
	rewards, err := r.db.FilterRewards(req.Context(), &rewarddb.RewardFilter{
		NodeID:  filter.MixID,
		Range:   rng,
		Order:   order,
		Options: opts,
	})
	if err != nil {
		return err
	}
	if rewards == nil {
		rewards = []*rewarddb.Reward{}
	}
	return utils.WriteJSON(w, rewards)
}

func (r *Rewards) handleFilterAdvances(w http.ResponseWriter, req *http.Request) error {
	var filter AdvanceFilter
	if err := utils.ParseJSON(req.Body, &filter); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	rng, err := convertRange(filter.Range)
	if err != nil {
		return utils.BadRequest(err)
	}
	order, err := convertOrder(filter.Order)
	if err != nil {
		return utils.BadRequest(err)
	}
	opts, err := r.options(filter.Options)
	if err != nil {
		return err
	}
	advances, err := r.db.FilterAdvances(req.Context(), &rewarddb.AdvanceFilter{
		Range:   rng,
		Order:   order,
		Options: opts,
	})
	if err != nil {
		return err
	}
	if advances == nil {
		advances = []*rewarddb.Advance{}
	}
	return utils.WriteJSON(w, advances)
}

func (r *Rewards) handleGetTotals(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.NodeIDVar(req)
	if err != nil {
		return err
	}
	totals, err := r.db.NodeTotals(req.Context(), id)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, totals)
}

func (r *Rewards) estimate(w http.ResponseWriter, req *http.Request, params *EstimateParams) error {
	id, err := utils.NodeIDVar(req)
	if err != nil {
		return err
	}
	est, err := r.view().EstimateReward(id, params.request())
	if err != nil {
		if errors.Is(err, mixnet.ErrStakeExceedsSupply) {
			return utils.BadRequest(err)
		}
		return err
	}
	if est == nil {
		return utils.NotFound(errors.Errorf("mixnode %d is not bonded", id))
	}
	return utils.WriteJSON(w, est)
}

func (r *Rewards) handleGetEstimate(w http.ResponseWriter, req *http.Request) error {
	var params EstimateParams
	if s := req.URL.Query().Get("performance"); s != "" {
		perf, err := decimal.PercentFromString(s)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "performance"))
		}
		params.Performance = &perf
	}
	return r.estimate(w, req, &params)
}

func (r *Rewards) handleComputeEstimate(w http.ResponseWriter, req *http.Request) error {
	var params EstimateParams
	if err := utils.ParseJSON(req.Body, &params); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	return r.estimate(w, req, &params)
}

func (r *Rewards) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/estimate/{id:[0-9]+}").
		Methods(http.MethodGet).
		Name("rewards_get_estimate").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetEstimate))
	sub.Path("/estimate/{id:[0-9]+}").
		Methods(http.MethodPost).
		Name("rewards_compute_estimate").
		HandlerFunc(utils.WrapHandlerFunc(r.handleComputeEstimate))

	if r.db == nil {
		return
	}
	sub.Path("/history").
		Methods(http.MethodPost).
		Name("rewards_filter_history").
		HandlerFunc(utils.WrapHandlerFunc(r.handleFilterRewards))
	sub.Path("/history/{id:[0-9]+}/totals").
		Methods(http.MethodGet).
		Name("rewards_get_totals").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetTotals))
	sub.Path("/advances").
		Methods(http.MethodPost).
		Name("rewards_filter_advances").
		HandlerFunc(utils.WrapHandlerFunc(r.handleFilterAdvances))
}
