// Package ratelimit caps the number of requests a client may make per
// minute. MemoryLimiter keeps a token bucket per client in process;
// RedisLimiter shares fixed one-minute windows between instances through
// Redis.
package ratelimit
