// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mixnodes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mixledger/mixledger/api/utils"
	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet"
)

type Mixnodes struct {
	view func() *mixnet.Mixnet
}

// New returns the mixnode queries. view is called once per request and must
// return a ledger over committed state.
func New(view func() *mixnet.Mixnet) *Mixnodes {
	return &Mixnodes{view}
}

func (m *Mixnodes) handleList(w http.ResponseWriter, req *http.Request) error {
	var startAfter mix.NodeID
	if s := req.URL.Query().Get("start_after"); s != "" {
		id, err := mix.ParseNodeID(s)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "start_after"))
		}
		startAfter = id
	}
	limit, err := utils.LimitQuery(req)
	if err != nil {
		return err
	}
	list, err := m.view().Mixnodes(startAfter, limit)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, list)
}

func (m *Mixnodes) handleGet(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.NodeIDVar(req)
	if err != nil {
		return err
	}
	details, err := m.view().Mixnode(id)
	if err != nil {
		return err
	}
	if details == nil {
		return utils.NotFound(errors.Errorf("mixnode %d is not bonded", id))
	}
	return utils.WriteJSON(w, details)
}

func (m *Mixnodes) handleGetByOwner(w http.ResponseWriter, req *http.Request) error {
	owner := mix.Addr(mux.Vars(req)["owner"])
	details, err := m.view().MixnodeByOwner(owner)
	if err != nil {
		return err
	}
	if details == nil {
		return utils.NotFound(errors.Errorf("%s owns no mixnode", owner))
	}
	return utils.WriteJSON(w, details)
}

func (m *Mixnodes) handleGetRewarding(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.NodeIDVar(req)
	if err != nil {
		return err
	}
	ledger, err := m.view().RewardingDetails(id)
	if err != nil {
		return err
	}
	if ledger == nil {
		return utils.NotFound(errors.Errorf("mixnode %d has no rewarding details", id))
	}
	return utils.WriteJSON(w, ledger)
}

func (m *Mixnodes) handleGetSaturation(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.NodeIDVar(req)
	if err != nil {
		return err
	}
	sat, err := m.view().StakeSaturation(id)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, sat)
}

func (m *Mixnodes) handleGetUnbonded(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.NodeIDVar(req)
	if err != nil {
		return err
	}
	u, err := m.view().UnbondedMixnode(id)
	if err != nil {
		return err
	}
	if u == nil {
		return utils.NotFound(errors.Errorf("mixnode %d has not unbonded", id))
	}
	return utils.WriteJSON(w, u)
}

func (m *Mixnodes) handleGetLayers(w http.ResponseWriter, _ *http.Request) error {
	layers, err := m.view().LayerDistribution()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, layers)
}

func (m *Mixnodes) handleListDelegations(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.NodeIDVar(req)
	if err != nil {
		return err
	}
	limit, err := utils.LimitQuery(req)
	if err != nil {
		return err
	}
	list, err := m.view().NodeDelegations(id, nil, limit)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, list)
}

func (m *Mixnodes) handleGetDelegation(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.NodeIDVar(req)
	if err != nil {
		return err
	}
	owner := mix.Addr(mux.Vars(req)["owner"])
	proxy := utils.ProxyQuery(req)

	mn := m.view()
	d, err := mn.Delegation(owner, id, proxy)
	if err != nil {
		return err
	}
	if d == nil {
		return utils.NotFound(errors.Errorf("%s has no delegation on mixnode %d", owner, id))
	}
	reward, err := mn.PendingDelegatorReward(owner, id, proxy)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Delegation{d, reward})
}

func (m *Mixnodes) handleGetOperatorReward(w http.ResponseWriter, req *http.Request) error {
	owner := mix.Addr(mux.Vars(req)["owner"])
	reward, err := m.view().PendingOperatorReward(owner)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"owner": owner, "pending_reward": reward})
}

func (m *Mixnodes) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("mixnodes_list").
		HandlerFunc(utils.WrapHandlerFunc(m.handleList))
	sub.Path("/layers").
		Methods(http.MethodGet).
		Name("mixnodes_get_layers").
		HandlerFunc(utils.WrapHandlerFunc(m.handleGetLayers))
	sub.Path("/owner/{owner}").
		Methods(http.MethodGet).
		Name("mixnodes_get_by_owner").
		HandlerFunc(utils.WrapHandlerFunc(m.handleGetByOwner))
	sub.Path("/owner/{owner}/reward").
		Methods(http.MethodGet).
		Name("mixnodes_get_operator_reward").
		HandlerFunc(utils.WrapHandlerFunc(m.handleGetOperatorReward))
	sub.Path("/{id:[0-9]+}").
		Methods(http.MethodGet).
		Name("mixnodes_get").
		HandlerFunc(utils.WrapHandlerFunc(m.handleGet))
	sub.Path("/{id:[0-9]+}/rewarding").
		Methods(http.MethodGet).
		Name("mixnodes_get_rewarding").
		HandlerFunc(utils.WrapHandlerFunc(m.handleGetRewarding))
	sub.Path("/{id:[0-9]+}/saturation").
		Methods(http.MethodGet).
		Name("mixnodes_get_saturation").
		HandlerFunc(utils.WrapHandlerFunc(m.handleGetSaturation))
	sub.Path("/{id:[0-9]+}/unbonded").
		Methods(http.MethodGet).
		Name("mixnodes_get_unbonded").
		HandlerFunc(utils.WrapHandlerFunc(m.handleGetUnbonded))
	sub.Path("/{id:[0-9]+}/delegations").
		Methods(http.MethodGet).
		Name("mixnodes_list_delegations").
		HandlerFunc(utils.WrapHandlerFunc(m.handleListDelegations))
	sub.Path("/{id:[0-9]+}/delegations/{owner}").
		Methods(http.MethodGet).
		Name("mixnodes_get_delegation").
		HandlerFunc(utils.WrapHandlerFunc(m.handleGetDelegation))
}
