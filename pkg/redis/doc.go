// Package redis connects the shared cache tier.
//
// The same client backs the tenant directory's RedisCache, the rate limiter's
// RedisStore and the invalidation pub/sub channel, so every replica of the
// service sees one set of counters and one negative cache.
//
//	cfg := config.MustLoad[redis.Config]()
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// Connect retries the initial PING with exponential backoff
// (github.com/sethvargo/go-retry). Healthcheck plugs into the HTTP server's
// readiness probe.
package redis
