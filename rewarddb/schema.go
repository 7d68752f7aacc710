// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewarddb

// decimals are stored as their canonical text form, sqlite numerics can't hold 18 fractional digits.
const rewardTableSchema = `
create table if not exists reward (
	epoch integer not null,
	mixID integer not null,
	blockNumber integer,
	blockTime integer,
	performance text,
	operator text,
	delegates text,
	skipped integer,
	primary key (epoch, mixID)
);

CREATE INDEX if not exists rewardMixIndex on reward(mixID, epoch);
`

const advanceTableSchema = `
create table if not exists advance (
	epoch integer primary key,
	blockNumber integer,
	blockTime integer,
	epochEvents integer,
	intervalEvents integer,
	intervalRolled integer
);
`
