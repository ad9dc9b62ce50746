package runbook

import "github.com/xraph/runbook/id"

// ID is the primary identifier type for all Runbook entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
