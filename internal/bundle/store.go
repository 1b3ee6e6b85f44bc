// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package bundle

import (
	"github.com/hashicorp/golang-lru"
	"github.com/juju/errors"
)

// DefaultCacheSize is the number of charm lookups a MetadataCache keeps.
const DefaultCacheSize = 128

// CharmInfo is the store metadata used to fill values the operator did
// not override.
type CharmInfo struct {
	Name    string
	Summary string
}

// CharmStore looks up charm metadata by store name.
type CharmStore interface {
	CharmInfo(name string) (CharmInfo, error)
}

// MetadataCache is a CharmStore that remembers successful lookups made
// against another CharmStore. Failed lookups are not cached.
type MetadataCache struct {
	store CharmStore
	cache *lru.Cache
}

// NewMetadataCache returns a cache of up to size lookups in front of store.
func NewMetadataCache(store CharmStore, size int) (*MetadataCache, error) {
	if store == nil {
		return nil, errors.NotValidf("nil CharmStore")
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &MetadataCache{
		store: store,
		cache: cache,
	}, nil
}

// CharmInfo is part of the CharmStore interface.
func (c *MetadataCache) CharmInfo(name string) (CharmInfo, error) {
	if v, ok := c.cache.Get(name); ok {
		return v.(CharmInfo), nil
	}
	info, err := c.store.CharmInfo(name)
	if err != nil {
		return CharmInfo{}, errors.Trace(err)
	}
	c.cache.Add(name, info)
	return info, nil
}

// Len returns the number of cached lookups.
func (c *MetadataCache) Len() int {
	return c.cache.Len()
}
