// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sql

import (
	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru"
	"gopkg.in/src-d/go-errors.v1"
)

// CacheKey returns a hash of the statement text to be used as key in a plan
// cache.
func CacheKey(query string) uint64 {
	return xxhash.Sum64String(query)
}

// ErrKeyNotFound is returned when the key could not be found in the cache.
var ErrKeyNotFound = errors.NewKind("cache: key %d not found in cache")

// PlanCache is a bounded, least recently used cache of compiled statements.
// It is safe for concurrent use.
type PlanCache struct {
	size  int
	cache *lru.Cache
}

// NewPlanCache creates a plan cache holding at most size entries. A size of
// zero or less yields a cache that never stores anything.
func NewPlanCache(size int) *PlanCache {
	c := &PlanCache{size: size}
	if size > 0 {
		c.cache, _ = lru.New(size)
	}
	return c
}

// Put stores v under k, evicting the least recently used entry if the cache
// is full. It reports whether an entry was evicted.
func (c *PlanCache) Put(k uint64, v interface{}) bool {
	if c.cache == nil {
		return false
	}
	return c.cache.Add(k, v)
}

// Get returns the value stored under k.
func (c *PlanCache) Get(k uint64) (interface{}, error) {
	if c.cache == nil {
		return nil, ErrKeyNotFound.New(k)
	}
	v, ok := c.cache.Get(k)
	if !ok {
		return nil, ErrKeyNotFound.New(k)
	}

	return v, nil
}

// Remove drops the entry stored under k, if any.
func (c *PlanCache) Remove(k uint64) {
	if c.cache != nil {
		c.cache.Remove(k)
	}
}

// Len returns the number of entries in the cache.
func (c *PlanCache) Len() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.Len()
}

// Size returns the capacity of the cache.
func (c *PlanCache) Size() int { return c.size }

// Free empties the cache.
func (c *PlanCache) Free() {
	if c.cache != nil {
		c.cache.Purge()
	}
}
