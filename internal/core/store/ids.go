package store

import (
	"fmt"
	"strconv"
	"strings"
)

const idPad = 6

// NextID("crt", 0) -> "crt_000001"
func NextID(prefix string, currentMax int) string {
	return fmt.Sprintf("%s_%0*d", prefix, idPad, currentMax+1)
}

// Seq returns the numeric suffix after the first '_' or 0 when there is none.
func Seq(id string) int {
	_, tail, ok := strings.Cut(id, "_")
	if !ok {
		return 0
	}
	if i := strings.IndexByte(tail, '_'); i >= 0 {
		tail = tail[:i]
	}
	n, err := strconv.Atoi(tail)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// MaxSeq scans ids for the largest suffix. A non-empty prefix restricts the
// scan to ids of the form prefix_N.
func MaxSeq(ids []string, prefix string) int {
	m := 0
	for _, id := range ids {
		if prefix != "" && !strings.HasPrefix(id, prefix+"_") {
			continue
		}
		if n := Seq(id); n > m {
			m = n
		}
	}
	return m
}

// IDs 提取记录 ID，供 MaxSeq 使用
func IDs[T any](recs []T, id func(T) string) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = id(r)
	}
	return out
}
