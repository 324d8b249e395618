package util

import "strconv"

// Byte is a size in bytes, KB/MB/GB are binary multiples.
type Byte float64

const (
	_       = iota
	KB Byte = 1 << (10 * iota)
	MB
	GB
)

func (b Byte) Int64() int64 {
	return int64(b)
}

func (b Byte) Int() int {
	return int(b)
}

func (b Byte) String() string {
	switch {
	case b >= GB:
		return strconv.FormatFloat(float64(b/GB), 'f', -1, 64) + "GB"
	case b >= MB:
		return strconv.FormatFloat(float64(b/MB), 'f', -1, 64) + "MB"
	case b >= KB:
		return strconv.FormatFloat(float64(b/KB), 'f', -1, 64) + "KB"
	}

	return strconv.FormatFloat(float64(b), 'f', -1, 64) + "B"
}
