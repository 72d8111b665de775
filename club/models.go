package club

import (
	"github.com/xraph/clubhouse/id"
	"github.com/xraph/clubhouse/types"
)

// Club is a paid membership group. Fee is charged per duration unit.
type Club struct {
	types.Entity
	ID    uint64        `json:"id"`
	Owner id.AccountID  `json:"owner"`
	Fee   types.Balance `json:"fee"`
}
