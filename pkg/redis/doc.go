// Package redis connects to the Redis instance used by storage.RedisStorage,
// retrying until the server answers a ping or the connect timeout expires.
//
//	client, err := redis.Connect(ctx, cfg.Redis, log)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//	store := storage.NewRedisStorage(client)
package redis
