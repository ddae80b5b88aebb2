package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/internfinder/internal/entity"
	"github.com/user/internfinder/internal/repository"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestQueue_EnqueueDequeueComplete(t *testing.T) {
	_, client := newTestClient(t)
	q := NewQueueRepo(client)
	ctx := context.Background()

	enq, err := q.Enqueue(ctx, entity.ProviderWuzzuf)
	require.NoError(t, err)
	assert.NotEmpty(t, enq.ID)
	assert.Equal(t, 1, enq.Attempt)

	size, err := q.Size(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, size)

	job, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, enq.ID, job.ID)
	assert.Equal(t, entity.ProviderWuzzuf, job.Provider)

	inFlight, err := client.LLen(ctx, processingQueueKey).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, inFlight)

	require.NoError(t, q.Complete(ctx, job))

	inFlight, err = client.LLen(ctx, processingQueueKey).Result()
	require.NoError(t, err)
	assert.Zero(t, inFlight)
}

func TestQueue_DeliversInEnqueueOrder(t *testing.T) {
	_, client := newTestClient(t)
	q := NewQueueRepo(client)
	ctx := context.Background()

	for _, p := range entity.Providers() {
		_, err := q.Enqueue(ctx, p)
		require.NoError(t, err)
	}

	var got []entity.Provider
	for range entity.Providers() {
		job, err := q.Dequeue(ctx, time.Second)
		require.NoError(t, err)
		got = append(got, job.Provider)
	}
	assert.Equal(t, entity.Providers(), got)
}

func TestQueue_DequeueEmpty(t *testing.T) {
	_, client := newTestClient(t)
	q := NewQueueRepo(client)

	_, err := q.Dequeue(context.Background(), 100*time.Millisecond)
	assert.ErrorIs(t, err, repository.ErrQueueEmpty)
}

func TestQueue_EnqueueRejectsUnknownProvider(t *testing.T) {
	_, client := newTestClient(t)
	q := NewQueueRepo(client)

	_, err := q.Enqueue(context.Background(), entity.Provider("Glassdoor"))
	assert.ErrorIs(t, err, entity.ErrUnknownProvider)
}

func TestQueue_FailDoesNotRequeue(t *testing.T) {
	_, client := newTestClient(t)
	q := NewQueueRepo(client)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, entity.ProviderIndeed)
	require.NoError(t, err)
	job, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)

	require.NoError(t, q.Fail(ctx, job, "navigation timed out"))

	size, err := q.Size(ctx)
	require.NoError(t, err)
	assert.Zero(t, size)

	inFlight, err := client.LLen(ctx, processingQueueKey).Result()
	require.NoError(t, err)
	assert.Zero(t, inFlight)

	failed, err := q.Failed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, job.ID, failed[0].Job.ID)
	assert.Equal(t, "navigation timed out", failed[0].Reason)
}

func TestQueue_RecoverRedeliversStrandedJobs(t *testing.T) {
	_, client := newTestClient(t)
	q := NewQueueRepo(client)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, entity.ProviderTanqeeb)
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, entity.ProviderLinkedin)
	require.NoError(t, err)

	// Worker takes the first job and crashes before acknowledging it.
	crashed, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)

	n, err := q.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	redelivered, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, crashed.ID, redelivered.ID)
	assert.Equal(t, 2, redelivered.Attempt)

	next, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, entity.ProviderLinkedin, next.Provider)
}

func TestQueue_UndecodablePayloadIsParked(t *testing.T) {
	_, client := newTestClient(t)
	q := NewQueueRepo(client)
	ctx := context.Background()

	require.NoError(t, client.LPush(ctx, pendingQueueKey, "{not json").Err())

	_, err := q.Dequeue(ctx, time.Second)
	require.Error(t, err)

	inFlight, err := client.LLen(ctx, processingQueueKey).Result()
	require.NoError(t, err)
	assert.Zero(t, inFlight)

	parked, err := client.LLen(ctx, failedQueueKey).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, parked)
}

func TestQueue_UndecodablePayloadParkFailureIsReported(t *testing.T) {
	mr, client := newTestClient(t)
	q := NewQueueRepo(client)
	ctx := context.Background()

	// A string under the failed key makes the LPUSH onto it fail.
	require.NoError(t, mr.Set(failedQueueKey, "occupied"))
	require.NoError(t, client.LPush(ctx, pendingQueueKey, "{not json").Err())

	_, err := q.Dequeue(ctx, time.Second)
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to decode job payload")
	assert.ErrorContains(t, err, "failed to park undecodable payload")
}

func TestQueue_ConcurrentConsumersGetDistinctDeliveries(t *testing.T) {
	_, client := newTestClient(t)
	q := NewQueueRepo(client)
	ctx := context.Background()

	const jobs = 20
	for i := 0; i < jobs; i++ {
		_, err := q.Enqueue(ctx, entity.Providers()[i%4])
		require.NoError(t, err)
	}

	var (
		mu   sync.Mutex
		seen = make(map[string]int)
		wg   sync.WaitGroup
	)
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				job, err := q.Dequeue(ctx, 100*time.Millisecond)
				if err != nil {
					return
				}
				mu.Lock()
				seen[job.ID]++
				mu.Unlock()
				_ = q.Complete(ctx, job)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, jobs)
	for id, n := range seen {
		assert.Equal(t, 1, n, "job %s delivered more than once", id)
	}
}
