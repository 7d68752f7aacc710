// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"slices"

	"github.com/qianbin/directcache"
)

const (
	flagAbsent  byte = 0
	flagPresent byte = 1
)

// Cache caches committed values, including known-absent keys.
// A nil *Cache is valid and caches nothing.
type Cache struct {
	entries *directcache.Cache
}

// NewCache creates a cache with the given size in megabytes.
func NewCache(sizeMB int) *Cache {
	return &Cache{entries: directcache.New(sizeMB * 1024 * 1024)}
}

func (c *Cache) get(key string) (val []byte, ok bool) {
	if c == nil {
		return nil, false
	}
	found := c.entries.AdvGet([]byte(key), func(v []byte) {
		if len(v) > 0 && v[0] == flagPresent {
			val = slices.Clone(v[1:])
		}
	}, false)
	if found {
		metricCacheAccess().AddWithLabel(1, map[string]string{"event": "hit"})
	} else {
		metricCacheAccess().AddWithLabel(1, map[string]string{"event": "miss"})
	}
	return val, found
}

func (c *Cache) set(key string, val []byte) {
	if c == nil {
		return
	}
	flag := flagPresent
	if val == nil {
		flag = flagAbsent
	}
	_ = c.entries.AdvSet([]byte(key), len(val)+1, func(v []byte) {
		v[0] = flag
		copy(v[1:], val)
	})
}
