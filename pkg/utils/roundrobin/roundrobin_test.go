package roundrobin

import (
	"testing"

	"github.com/zdunecki/graphfleet/test"
)

func TestRoundRobin(t *testing.T) {
	rr := New([]interface{}{1, 2, 3})

	var got []interface{}
	for i := 0; i < 5; i++ {
		item, err := rr.Next()
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, item)
	}

	test.Diff(t, "items should rotate", []interface{}{1, 2, 3, 1, 2}, got)
}

func TestRoundRobinEmpty(t *testing.T) {
	if _, err := New(nil).Next(); err != ErrEmpty {
		t.Errorf("expected empty error, got %v", err)
	}
}
