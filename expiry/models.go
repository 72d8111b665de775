package expiry

import (
	"github.com/xraph/clubhouse/membership"
	"github.com/xraph/clubhouse/types"
)

// Bucket counts the entries scheduled for one tick. Entries are indexed
// 1..Count; indices are never reused while the bucket exists.
type Bucket struct {
	Tick  types.Tick `json:"tick"`
	Count uint64     `json:"count"`
}

// Entry schedules a membership to expire at Tick.
type Entry struct {
	membership.Key
	Tick  types.Tick `json:"tick"`
	Index uint64     `json:"index"`
}
