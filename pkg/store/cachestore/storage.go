// Package cachestore keeps fleet metadata in process memory. Nothing survives a restart.
package cachestore

import (
	"context"
	"time"

	"github.com/allegro/bigcache/v3"
	jsoniter "github.com/json-iterator/go"
	"github.com/zdunecki/graphfleet/internal/cache"
	"github.com/zdunecki/graphfleet/pkg/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const lifeWindow = 100 * 365 * 24 * time.Hour

type cachestorage struct {
	cache cache.Cache

	workers    store.Workers
	partitions store.Partitions
}

type Storage interface {
	store.Storage
}

func NewStorage() (Storage, error) {
	// entries never expire, the cleanup loop is disabled
	cfg := bigcache.DefaultConfig(lifeWindow)
	cfg.CleanWindow = 0
	cfg.Shards = 16
	cfg.Verbose = false

	c, err := cache.NewCache(cfg)
	if err != nil {
		return nil, err
	}

	return &cachestorage{
		cache:      c,
		workers:    NewWorkerRepository(c),
		partitions: NewPartitionRepository(c),
	}, nil
}

func (c *cachestorage) Workers() store.Workers {
	return c.workers
}

func (c *cachestorage) Partitions() store.Partitions {
	return c.partitions
}

func (c *cachestorage) Close(ctx context.Context) error {
	return c.cache.Close()
}

func keys(c cache.Cache, prefix string) ([]string, error) {
	var found []string

	err := c.Scan(prefix, func(key string, value []byte) error {
		found = append(found, key)
		return nil
	})

	return found, err
}

func del(c cache.Cache, key string) error {
	if err := c.Del(key); err != nil && err != cache.ErrEntryNotFound {
		return err
	}

	return nil
}
