package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/course-catalog/jobs"
)

type fakeEnqueuer struct {
	tasks  []*asynq.Task
	closed bool
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "t1", Type: task.Type(), Queue: jobs.QueueDefault}, nil
}

func (f *fakeEnqueuer) Close() error {
	f.closed = true
	return nil
}

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f *fakeInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return f.info, f.err }

func (f *fakeInspector) ListScheduledTasks(string, ...asynq.ListOption) ([]*asynq.TaskInfo, error) {
	return []*asynq.TaskInfo{{ID: "s1", Type: jobs.TaskTypeMessageDigest}}, nil
}

func (f *fakeInspector) Close() error { return nil }

func TestTriggerDigest(t *testing.T) {
	enq := &fakeEnqueuer{}
	c := &JobsCLI{client: enq, inspector: &fakeInspector{}}

	info, err := c.Trigger(context.Background(), jobs.TaskTypeMessageDigest)
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskTypeMessageDigest, info.Type)
	require.Len(t, enq.tasks, 1)

	_, err = c.Trigger(context.Background(), "unknown:job")
	require.Error(t, err)

	require.NoError(t, c.Close())
	assert.True(t, enq.closed)
}

func TestInspectQueue(t *testing.T) {
	c := &JobsCLI{client: &fakeEnqueuer{}, inspector: &fakeInspector{info: &asynq.QueueInfo{Pending: 2, Retry: 1}}}
	stats, err := c.InspectQueue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, QueueStats{Queue: jobs.QueueDefault, Pending: 2, Retry: 1}, stats)

	c.inspector = &fakeInspector{err: errors.New("redis down")}
	_, err = c.InspectQueue(context.Background())
	require.Error(t, err)

	scheduled, err := (&JobsCLI{inspector: &fakeInspector{}}).ListScheduled(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, scheduled, 1)
}

func TestNilCLI(t *testing.T) {
	var c *JobsCLI
	_, err := c.Trigger(context.Background(), jobs.TaskTypeMessageDigest)
	require.Error(t, err)
	_, err = c.InspectQueue(context.Background())
	require.Error(t, err)
}
