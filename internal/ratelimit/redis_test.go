package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRedis answers SET NX and INCR pipelines from memory so the
// backend can be exercised without a server.
type scriptedRedis struct {
	mu      sync.Mutex
	values  map[string]int64
	ttls    map[string]int64
	batches [][]string
	err     error
}

func newScriptedClient(t *testing.T) (*redis.Client, *scriptedRedis) {
	t.Helper()
	script := &scriptedRedis{values: make(map[string]int64), ttls: make(map[string]int64)}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(script)
	t.Cleanup(func() { _ = client.Close() })
	return client, script
}

func (s *scriptedRedis) DialHook(next redis.DialHook) redis.DialHook { return next }

func (s *scriptedRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook { return next }

func (s *scriptedRedis) ProcessPipelineHook(redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(_ context.Context, cmds []redis.Cmder) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		names := make([]string, 0, len(cmds))
		for _, cmd := range cmds {
			names = append(names, cmd.Name())
			if s.err != nil {
				cmd.SetErr(s.err)
				continue
			}
			args := cmd.Args()
			switch c := cmd.(type) {
			case *redis.BoolCmd:
				key := args[1].(string)
				if _, ok := s.values[key]; ok {
					c.SetVal(false)
					continue
				}
				s.values[key] = 0
				s.ttls[key] = args[4].(int64)
				c.SetVal(true)
			case *redis.IntCmd:
				key := args[1].(string)
				s.values[key]++
				c.SetVal(s.values[key])
			}
		}
		s.batches = append(s.batches, names)
		return s.err
	}
}

func TestRedisBackend_IncrSetsTTLInSameTransaction(t *testing.T) {
	client, script := newScriptedClient(t)
	b := NewRedisBackend(client)
	ctx := context.Background()

	n, err := b.Incr(ctx, "ratelimit:ip:sign-in:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = b.Incr(ctx, "ratelimit:ip:sign-in:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.Len(t, script.batches, 2)
	for _, batch := range script.batches {
		assert.Equal(t, []string{"multi", "set", "incr", "exec"}, batch)
	}
	assert.Equal(t, int64(60), script.ttls["ratelimit:ip:sign-in:1.2.3.4"])
}

func TestRedisBackend_IncrReportsTransactionFailure(t *testing.T) {
	client, script := newScriptedClient(t)
	script.err = errors.New("connection reset")

	n, err := NewRedisBackend(client).Incr(context.Background(), "ratelimit:ip:sign-in:1.2.3.4", time.Minute)
	require.Error(t, err)
	assert.Zero(t, n)
}
