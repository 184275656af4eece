package scheduler

import (
	"sync"
	"time"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("gnosis.scheduler")

type Task struct {
	Name    string
	Execute func() error
}

// Scheduler runs queued tasks one at a time on a single worker.
type Scheduler struct {
	taskQueue chan Task
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewScheduler creates a new Scheduler with the specified queue size
func NewScheduler(queueSize int) *Scheduler {
	return &Scheduler{
		taskQueue: make(chan Task, queueSize),
		stopChan:  make(chan struct{}),
	}
}

// RunScheduler starts the worker loop
func (s *Scheduler) RunScheduler() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case task := <-s.taskQueue:
				s.execute(task)
			case <-s.stopChan:
				// Drain what was queued before the stop.
				for {
					select {
					case task := <-s.taskQueue:
						s.execute(task)
					default:
						return
					}
				}
			}
		}
	}()
}

func (s *Scheduler) execute(task Task) {
	log.Debugf("executing %s task", task.Name)
	if err := task.Execute(); err != nil {
		log.Errorf("task %s failed: %v", task.Name, err)
	}
}

// Schedule queues a task, waiting for room in the queue. It reports false
// once the scheduler is stopped.
func (s *Scheduler) Schedule(task Task) bool {
	select {
	case <-s.stopChan:
		return false
	default:
	}
	select {
	case s.taskQueue <- task:
		return true
	case <-s.stopChan:
		return false
	}
}

// TrySchedule queues a task unless the queue is full or the scheduler stopped.
func (s *Scheduler) TrySchedule(task Task) bool {
	select {
	case <-s.stopChan:
		return false
	default:
	}
	select {
	case s.taskQueue <- task:
		return true
	default:
		log.Infof("skipped scheduling %s, queue is full", task.Name)
		return false
	}
}

// SchedulePeriodicTask queues task right away and then on every tick,
// skipping ticks while the queue is full.
func (s *Scheduler) SchedulePeriodicTask(interval time.Duration, task Task) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.TrySchedule(task)
		for {
			select {
			case <-ticker.C:
				s.TrySchedule(task)
			case <-s.stopChan:
				return
			}
		}
	}()
}

// StopScheduler stops periodic scheduling, runs the tasks still queued and
// waits for the worker to finish. Safe to call more than once.
func (s *Scheduler) StopScheduler() {
	s.stopOnce.Do(func() {
		log.Info("stopping scheduler")
		close(s.stopChan)
	})
	s.wg.Wait()
}
