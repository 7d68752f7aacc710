// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package interval tracks epoch and interval progression and the set of
// nodes rewarded in the current epoch.
package interval

import (
	"github.com/pkg/errors"

	"github.com/mixledger/mixledger/mix"
)

// Interval is the epoch clock. An interval is made of EpochsInInterval epochs,
// each lasting at least EpochLength seconds. An epoch only ends when it is
// explicitly advanced after its end time.
type Interval struct {
	ID                 uint32 `json:"id"`
	EpochsInInterval   uint32 `json:"epochs_in_interval"`
	CurrentEpochID     uint32 `json:"current_epoch_id"`
	CurrentEpochStart  uint64 `json:"current_epoch_start"`
	EpochLength        uint64 `json:"epoch_length"`
	TotalElapsedEpochs uint32 `json:"total_elapsed_epochs"`
}

// New starts the clock at the first epoch of interval 0.
func New(epochsInInterval uint32, epochLength uint64, start uint64) (*Interval, error) {
	if epochsInInterval == 0 {
		return nil, errors.New("interval must contain at least one epoch")
	}
	if epochLength == 0 {
		return nil, errors.New("epoch length must be positive")
	}
	return &Interval{
		EpochsInInterval:  epochsInInterval,
		CurrentEpochStart: start,
		EpochLength:       epochLength,
	}, nil
}

// CurrentFullEpochID counts epochs since genesis.
func (i *Interval) CurrentFullEpochID() mix.FullEpochID {
	return mix.FullEpochID(i.TotalElapsedEpochs)
}

func (i *Interval) EpochEnd() uint64 {
	return i.CurrentEpochStart + i.EpochLength
}

func (i *Interval) IsCurrentEpochOver(env mix.Env) bool {
	return env.Time >= i.EpochEnd()
}

// IsCurrentIntervalOver reports whether the current epoch is over and is
// the last one of its interval.
func (i *Interval) IsCurrentIntervalOver(env mix.Env) bool {
	return i.IsCurrentEpochOver(env) && i.CurrentEpochID+1 == i.EpochsInInterval
}

// AdvanceEpoch moves to the next epoch, starting now. It returns true when
// a new interval began.
func (i *Interval) AdvanceEpoch(env mix.Env) bool {
	i.TotalElapsedEpochs++
	i.CurrentEpochStart = env.Time
	if i.CurrentEpochID+1 == i.EpochsInInterval {
		i.ID++
		i.CurrentEpochID = 0
		return true
	}
	i.CurrentEpochID++
	return false
}
