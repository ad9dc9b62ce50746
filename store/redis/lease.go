package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/runbook"
	"github.com/xraph/runbook/id"
	"github.com/xraph/runbook/lease"
)

// Lease mutations run as Lua scripts so the holder check and the write are
// one atomic Redis command. Expiry rides on the key TTL: an expired lease is
// simply an absent key.

// acquireScript takes the lease when it is free or already held by the
// caller. KEYS[1] lease key; ARGV: holder, ttl_ms, lease_id, workflow_id,
// expires_at.
var acquireScript = goredis.NewScript(`
local h = redis.call('HGET', KEYS[1], 'holder')
if h and h ~= ARGV[1] then
	return 0
end
if h then
	redis.call('HSET', KEYS[1], 'expires_at', ARGV[5])
else
	redis.call('HSET', KEYS[1],
		'id', ARGV[3],
		'workflow_id', ARGV[4],
		'holder', ARGV[1],
		'expires_at', ARGV[5])
end
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return 1
`)

// renewScript extends the lease only while the caller still holds it.
// KEYS[1] lease key; ARGV: holder, ttl_ms, expires_at.
var renewScript = goredis.NewScript(`
if redis.call('HGET', KEYS[1], 'holder') == ARGV[1] then
	redis.call('HSET', KEYS[1], 'expires_at', ARGV[3])
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
	return 1
end
return 0
`)

// releaseScript deletes the lease if the caller holds it. Returns 1 on
// delete or missing lease, -1 when another holder owns it.
var releaseScript = goredis.NewScript(`
local h = redis.call('HGET', KEYS[1], 'holder')
if not h then
	return 1
end
if h ~= ARGV[1] then
	return -1
end
redis.call('DEL', KEYS[1])
return 1
`)

// AcquireLease attempts to take the lease for a workflow ID.
func (s *Store) AcquireLease(ctx context.Context, workflowID, holder string, ttl time.Duration) (bool, error) {
	expiresAt := time.Now().Add(ttl).UTC().Format(time.RFC3339Nano)
	res, err := acquireScript.Run(ctx, s.client, []string{leaseKey(workflowID)},
		holder, ttl.Milliseconds(), id.NewLeaseID().String(), workflowID, expiresAt,
	).Int()
	if err != nil {
		return false, fmt.Errorf("runbook/redis: acquire lease: %w", err)
	}
	return res == 1, nil
}

// RenewLease extends the lease if the holder still owns it.
func (s *Store) RenewLease(ctx context.Context, workflowID, holder string, ttl time.Duration) (bool, error) {
	expiresAt := time.Now().Add(ttl).UTC().Format(time.RFC3339Nano)
	res, err := renewScript.Run(ctx, s.client, []string{leaseKey(workflowID)},
		holder, ttl.Milliseconds(), expiresAt,
	).Int()
	if err != nil {
		return false, fmt.Errorf("runbook/redis: renew lease: %w", err)
	}
	return res == 1, nil
}

// ReleaseLease drops the lease if the holder owns it.
func (s *Store) ReleaseLease(ctx context.Context, workflowID, holder string) error {
	res, err := releaseScript.Run(ctx, s.client, []string{leaseKey(workflowID)}, holder).Int()
	if err != nil {
		return fmt.Errorf("runbook/redis: release lease: %w", err)
	}
	if res == -1 {
		return runbook.ErrLeaseNotHeld
	}
	return nil
}

// GetLease returns the current lease for a workflow ID.
func (s *Store) GetLease(ctx context.Context, workflowID string) (*lease.Lease, error) {
	vals, err := s.client.HGetAll(ctx, leaseKey(workflowID)).Result()
	if err != nil {
		return nil, fmt.Errorf("runbook/redis: get lease: %w", err)
	}
	if len(vals) == 0 {
		return nil, runbook.ErrLeaseNotFound
	}

	leaseID, _ := id.ParseLeaseID(vals["id"]) //nolint:errcheck // best-effort parse from trusted Redis data
	expiresAt, _ := time.Parse(time.RFC3339Nano, vals["expires_at"]) //nolint:errcheck // best-effort parse from trusted Redis data

	return &lease.Lease{
		ID:         leaseID,
		WorkflowID: vals["workflow_id"],
		Holder:     vals["holder"],
		ExpiresAt:  expiresAt,
	}, nil
}
