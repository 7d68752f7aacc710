// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"github.com/pkg/errors"

	"github.com/mixledger/mixledger/state"
	"github.com/mixledger/mixledger/storage"
)

// Entry is a queued event with its position in the queue.
type Entry[E any] struct {
	ID    storage.QueueID `json:"id"`
	Event E               `json:"event"`
}

// Queues are the two FIFO queues of pending events.
type Queues struct {
	epoch    *storage.Queue[envelope]
	interval *storage.Queue[envelope]
}

func NewQueues(st *state.State) *Queues {
	return &Queues{
		epoch:    storage.NewQueue[envelope](st, "events/epoch"),
		interval: storage.NewQueue[envelope](st, "events/interval"),
	}
}

func (q *Queues) PushEpochEvent(ev PendingEpochEvent) (storage.QueueID, error) {
	e, err := wrap(ev)
	if err != nil {
		return 0, err
	}
	id, err := q.epoch.Push(e)
	return id, errors.Wrap(err, "failed to push epoch event")
}

func (q *Queues) PushIntervalEvent(ev PendingIntervalEvent) (storage.QueueID, error) {
	e, err := wrap(ev)
	if err != nil {
		return 0, err
	}
	id, err := q.interval.Push(e)
	return id, errors.Wrap(err, "failed to push interval event")
}

// EpochEvents lists up to limit pending epoch events, oldest first.
func (q *Queues) EpochEvents(limit uint64) ([]Entry[PendingEpochEvent], error) {
	entries, err := q.epoch.List(limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list epoch events")
	}
	out := make([]Entry[PendingEpochEvent], 0, len(entries))
	for _, e := range entries {
		ev, err := unwrapEpochEvent(e.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry[PendingEpochEvent]{e.ID, ev})
	}
	return out, nil
}

// IntervalEvents lists up to limit pending interval events, oldest first.
func (q *Queues) IntervalEvents(limit uint64) ([]Entry[PendingIntervalEvent], error) {
	entries, err := q.interval.List(limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list interval events")
	}
	out := make([]Entry[PendingIntervalEvent], 0, len(entries))
	for _, e := range entries {
		ev, err := unwrapIntervalEvent(e.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry[PendingIntervalEvent]{e.ID, ev})
	}
	return out, nil
}

func (q *Queues) peekEpochEvent() (Entry[PendingEpochEvent], bool, error) {
	e, ok, err := q.epoch.Peek()
	if err != nil || !ok {
		return Entry[PendingEpochEvent]{}, false, err
	}
	ev, err := unwrapEpochEvent(e.Value)
	if err != nil {
		return Entry[PendingEpochEvent]{}, false, err
	}
	return Entry[PendingEpochEvent]{e.ID, ev}, true, nil
}

func (q *Queues) peekIntervalEvent() (Entry[PendingIntervalEvent], bool, error) {
	e, ok, err := q.interval.Peek()
	if err != nil || !ok {
		return Entry[PendingIntervalEvent]{}, false, err
	}
	ev, err := unwrapIntervalEvent(e.Value)
	if err != nil {
		return Entry[PendingIntervalEvent]{}, false, err
	}
	return Entry[PendingIntervalEvent]{e.ID, ev}, true, nil
}
