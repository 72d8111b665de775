package clubhouse

import "github.com/xraph/clubhouse/id"

// ID is the identifier type for accounts and events.
type ID = id.ID

// AccountID identifies an account.
type AccountID = id.AccountID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
