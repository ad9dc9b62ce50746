// Package redis implements store.Store using Redis. Invocations, checkpoints,
// and leases are stored as Hashes; lease mutations run as Lua scripts so the
// holder check and the write are atomic, and lease expiry rides on Redis key
// TTLs.
//
// Usage:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	s := redisstore.New(client)
//	if err := s.Ping(ctx); err != nil { ... }
package redis
