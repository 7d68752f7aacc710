// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/mixledger/mixledger/state"
)

// QueueID is the position of an item in a Queue. Ids are assigned in push
// order and never reused.
type QueueID uint64

func (id QueueID) Bytes() []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(id))
}

// Queue is a persisted FIFO.
type Queue[V any] struct {
	head  *Raw[uint64] // id of the oldest item
	tail  *Raw[uint64] // id the next item gets
	items *Mapping[QueueID, V]
}

func NewQueue[V any](st *state.State, name string) *Queue[V] {
	return &Queue[V]{
		head:  NewRaw[uint64](st, name+"/head"),
		tail:  NewRaw[uint64](st, name+"/tail"),
		items: NewMapping[QueueID, V](st, name+"/items"),
	}
}

// QueueEntry is an item with its id.
type QueueEntry[V any] struct {
	ID    QueueID
	Value V
}

func (q *Queue[V]) bounds() (head, tail uint64, err error) {
	if head, err = q.head.Get(); err != nil {
		return
	}
	tail, err = q.tail.Get()
	return
}

func (q *Queue[V]) Len() (uint64, error) {
	head, tail, err := q.bounds()
	if err != nil {
		return 0, err
	}
	return tail - head, nil
}

// Push appends v and returns its id.
func (q *Queue[V]) Push(v V) (QueueID, error) {
	tail, err := q.tail.Get()
	if err != nil {
		return 0, err
	}
	id := QueueID(tail)
	if err := q.items.Set(id, v); err != nil {
		return 0, err
	}
	return id, q.tail.Set(tail + 1)
}

// Peek returns the oldest item. ok is false when the queue is empty.
func (q *Queue[V]) Peek() (entry QueueEntry[V], ok bool, err error) {
	head, tail, err := q.bounds()
	if err != nil || head == tail {
		return entry, false, err
	}
	entry.ID = QueueID(head)
	if entry.Value, err = q.items.Get(entry.ID); err != nil {
		return entry, false, err
	}
	return entry, true, nil
}

// Pop removes the oldest item.
func (q *Queue[V]) Pop() error {
	head, tail, err := q.bounds()
	if err != nil {
		return err
	}
	if head == tail {
		return errors.New("pop from empty queue")
	}
	q.items.Delete(QueueID(head))
	return q.head.Set(head + 1)
}

// List returns up to limit items from the front, oldest first. limit 0 means all.
func (q *Queue[V]) List(limit uint64) ([]QueueEntry[V], error) {
	head, tail, err := q.bounds()
	if err != nil {
		return nil, err
	}
	if limit > 0 && tail-head > limit {
		tail = head + limit
	}
	entries := make([]QueueEntry[V], 0, tail-head)
	for id := head; id < tail; id++ {
		v, err := q.items.Get(QueueID(id))
		if err != nil {
			return nil, err
		}
		entries = append(entries, QueueEntry[V]{QueueID(id), v})
	}
	return entries, nil
}
