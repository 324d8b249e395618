package cache

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/zdunecki/graphfleet/test"
)

func newTestCache(t *testing.T) Cache {
	c, err := NewCache(bigcache.DefaultConfig(10 * time.Minute))
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		c.Close()
	})

	return c
}

func TestCacheBeforeExpire(t *testing.T) {
	c := newTestCache(t)

	key := "key"
	value := []byte("value")
	expect := value

	if err := c.Set(key, value, WithTTL(time.Second*2)); err != nil {
		t.Error(err)
	}

	result, err := c.Get("key", WithHasTTL())
	if err != nil {
		t.Error(err)
	}

	test.Diff(t, "value from cache should equal", expect, result)
}

func TestCacheAfterExpire(t *testing.T) {
	c := newTestCache(t)

	key := "key"
	value := []byte("value")
	var expect []byte

	if err := c.Set(key, value, WithTTL(time.Millisecond*200)); err != nil {
		t.Error(err)
	}

	time.Sleep(time.Millisecond * 300)

	result, err := c.Get("key", WithHasTTL())
	if err != nil && err != ErrEntryExpired {
		t.Error(err)
	}

	test.Diff(t, "value from cache should equal", expect, result)

	if _, err := c.Get("key", WithHasTTL()); err == nil {
		t.Error("key should not exists")
	} else {
		if err == ErrEntryExpired {
			t.Error("entry should return 'not found' error not 'expired'")
		}
	}
}

func TestCacheScan(t *testing.T) {
	c := newTestCache(t)

	for key, value := range map[string]string{
		"worker.1":    "a",
		"worker.2":    "b",
		"partition.1": "c",
	} {
		if err := c.Set(key, []byte(value)); err != nil {
			t.Fatal(err)
		}
	}

	var keys []string
	if err := c.Scan("worker.", func(key string, value []byte) error {
		keys = append(keys, key)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	sort.Strings(keys)

	test.Diff(t, "scanned keys should equal", []string{"worker.1", "worker.2"}, keys)

	if err := c.Del("worker.1"); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Get("worker.1"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("deleted key should not be found, got %v", err)
	}
}
