package checkout

import "github.com/xraph/checkout/id"

// ID is the primary identifier type for all Checkout entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
