package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flipzy/transactions-backend/services/monitoring/logging"
)

// Task represents one scheduled unit of work, e.g. a deferred
// settlement attempt.
type Task struct {
	ID        string
	Name      string
	Fn        func(context.Context) error
	LastRun   time.Time
	ErrorChan chan error
}

// TaskScheduler manages background tasks. Execution is fire-and-forget:
// callers observe outcomes through whatever record the task updates,
// never through the scheduler.
type TaskScheduler struct {
	tasks  map[string]*Task
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	logger *logging.Logger
}

func NewTaskScheduler(logger *logging.Logger) *TaskScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &TaskScheduler{
		tasks:  make(map[string]*Task),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// AddTask registers a task under a unique ID.
func (ts *TaskScheduler) AddTask(id, name string, fn func(context.Context) error) (*Task, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if _, exists := ts.tasks[id]; exists {
		return nil, fmt.Errorf("task with ID %s already exists", id)
	}

	task := &Task{
		ID:        id,
		Name:      name,
		Fn:        fn,
		ErrorChan: make(chan error, 1),
	}

	ts.tasks[id] = task
	ts.logger.Info(fmt.Sprintf("Added task %s to scheduler", id))
	return task, nil
}

// RunTask immediately executes a specific task in the background.
func (ts *TaskScheduler) RunTask(id string) error {
	ts.mu.RLock()
	task, exists := ts.tasks[id]
	ts.mu.RUnlock()

	if !exists {
		return fmt.Errorf("task with ID %s not found", id)
	}

	ts.logger.Info(fmt.Sprintf("Running task %s", id))
	go func() {
		if err := task.Fn(ts.ctx); err != nil {
			ts.logger.Error(fmt.Sprintf("Task %s failed: %v", task.Name, err))
			select {
			case task.ErrorChan <- err:
			default:
			}
		}
		ts.mu.Lock()
		task.LastRun = time.Now()
		ts.mu.Unlock()
	}()

	return nil
}

// RunAfterAndRemove schedules a task to run once after the given
// duration, then drops it from the scheduler.
func (ts *TaskScheduler) RunAfterAndRemove(id string, duration time.Duration) error {
	ts.mu.Lock()
	task, exists := ts.tasks[id]
	if !exists {
		ts.mu.Unlock()
		return fmt.Errorf("task with ID %s not found", id)
	}
	taskCopy := *task
	ts.mu.Unlock()

	ts.logger.Info(fmt.Sprintf("Scheduling task %s to run after %s and then be removed", id, duration))

	go func() {
		timer := time.NewTimer(duration)
		defer timer.Stop()

		select {
		case <-timer.C:
			if err := taskCopy.Fn(ts.ctx); err != nil {
				ts.logger.Error(fmt.Sprintf("Task %s failed: %v", taskCopy.Name, err))
				select {
				case taskCopy.ErrorChan <- err:
				default:
					ts.logger.Warn(fmt.Sprintf("Could not send error to channel for task %s", id))
				}
			}

			ts.mu.Lock()
			if live, stillExists := ts.tasks[id]; stillExists {
				live.LastRun = time.Now()
				delete(ts.tasks, id)
			}
			ts.mu.Unlock()

		case <-ts.ctx.Done():
			ts.logger.Info(fmt.Sprintf("Task %s canceled before execution", id))
		}
	}()

	return nil
}

// Stop cancels the scheduler context. Tasks already running keep going;
// tasks still waiting on their timer never start.
func (ts *TaskScheduler) Stop() {
	ts.cancel()
}
