// Package passivation stores the state of passivated sessions.
//
// A Snapshot holds the JSON encoding of every passivation-capable instance
// of one session. The container fills it after running pre-passivate
// callbacks and reads it back before running post-activate callbacks:
//
//	store := passivation.NewRedisStore(passivation.RedisConfig{Addr: "localhost:6379"})
//	err := c.PassivateSession(ctx, "s1", store)
//	...
//	err = c.ActivateSession(ctx, "s1", store)
package passivation
