package util

import (
	"testing"

	"github.com/zdunecki/graphfleet/test"
)

func TestByteString(t *testing.T) {
	testCases := []struct {
		input  Byte
		expect string
	}{
		{input: 512, expect: "512B"},
		{input: KB * 4, expect: "4KB"},
		{input: KB * 1536, expect: "1.5MB"},
		{input: GB * 2, expect: "2GB"},
	}

	for _, tc := range testCases {
		test.Diff(t, tc.expect+" should equal", tc.expect, tc.input.String())
	}

	test.Diff(t, "4KB in bytes should equal", 4096, (KB * 4).Int())
}
