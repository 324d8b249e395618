package cachestore

import (
	"context"
	"testing"

	"github.com/zdunecki/graphfleet/pkg/store/storetest"
)

func TestCacheStorage(t *testing.T) {
	s, err := NewStorage()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close(context.Background())

	storetest.Run(t, s)
}
