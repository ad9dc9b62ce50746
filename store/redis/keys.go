package redis

// Redis key naming conventions for runbook data.
// All keys are prefixed with "runbook:" to avoid collisions.

const keyPrefix = "runbook:"

// invocationKey returns the key for a ledger record: runbook:invocation:{fingerprint}
func invocationKey(fp string) string { return keyPrefix + "invocation:" + fp }

// checkpointKey returns the key for a checkpoint: runbook:checkpoint:{workflowID}
func checkpointKey(workflowID string) string { return keyPrefix + "checkpoint:" + workflowID }

// leaseKey returns the key for a workflow lease: runbook:lease:{workflowID}
func leaseKey(workflowID string) string { return keyPrefix + "lease:" + workflowID }
