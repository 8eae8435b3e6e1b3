// Package scheduler runs background maintenance tasks on cron schedules.
package scheduler

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/apimgr/earthquakes/src/server/metrics"
)

// Task represents a scheduled task
type Task struct {
	Name     string
	Schedule string // Cron expression: "0 2 * * *", "@hourly", "@every 5m"
	Fn       func() error
	entryID  cron.EntryID
	// Can be toggled on/off
	enabled bool
	// Last execution time
	lastRun *time.Time
	mu      sync.Mutex
}

// Scheduler manages scheduled tasks using robfig/cron
type Scheduler struct {
	cron  *cron.Cron
	tasks map[string]*Task
	mu    sync.RWMutex
}

// NewScheduler creates a new scheduler instance
func NewScheduler() *Scheduler {
	// Standard cron format plus descriptors (@daily, @every 5m)
	c := cron.New(cron.WithParser(cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)))

	return &Scheduler{
		cron:  c,
		tasks: make(map[string]*Task),
	}
}

// AddTask adds a new task to the scheduler with a cron schedule
func (s *Scheduler) AddTask(name string, schedule string, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := &Task{
		Name:     name,
		Schedule: schedule,
		Fn:       fn,
		enabled:  true,
	}

	entryID, err := s.cron.AddFunc(schedule, func() {
		s.executeTask(task)
	})
	if err != nil {
		return fmt.Errorf("failed to add task '%s' with schedule '%s': %w", name, schedule, err)
	}

	task.entryID = entryID
	s.tasks[name] = task

	return nil
}

// AddTaskInterval adds a task with a time.Duration interval (convenience method)
func (s *Scheduler) AddTaskInterval(name string, interval time.Duration, fn func() error) error {
	return s.AddTask(name, fmt.Sprintf("@every %s", interval.String()), fn)
}

// Start starts the cron scheduler
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cron.Start()

	log.Printf("Task manager started (%d scheduled tasks)", len(s.tasks))
}

// Stop stops the cron scheduler and waits for running jobs to complete
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()

	log.Println("Scheduler stopped")
}

// executeTask executes a task and records the result
func (s *Scheduler) executeTask(task *Task) {
	task.mu.Lock()
	if !task.enabled {
		task.mu.Unlock()
		return
	}
	task.mu.Unlock()

	start := time.Now()
	err := task.Fn()
	end := time.Now()
	elapsed := end.Sub(start)

	task.mu.Lock()
	task.lastRun = &end
	task.mu.Unlock()

	if err != nil {
		metrics.RecordSchedulerTask(task.Name, "error", elapsed)
		log.Printf("Task '%s' failed after %v: %v", task.Name, elapsed, err)
	} else {
		metrics.RecordSchedulerTask(task.Name, "success", elapsed)
		log.Printf("Task '%s' completed in %v", task.Name, elapsed)
	}
}

// GetTaskStatus returns status of all tasks
func (s *Scheduler) GetTaskStatus() []map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := make([]map[string]interface{}, 0, len(s.tasks))

	for _, task := range s.tasks {
		task.mu.Lock()
		var nextRun time.Time
		entry := s.cron.Entry(task.entryID)
		if entry.ID != 0 {
			nextRun = entry.Next
		}
		status = append(status, map[string]interface{}{
			"name":     task.Name,
			"schedule": task.Schedule,
			"enabled":  task.enabled,
			"lastRun":  task.lastRun,
			"nextRun":  nextRun,
		})
		task.mu.Unlock()
	}

	return status
}

// EnableTask enables a task by name
func (s *Scheduler) EnableTask(taskName string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskName]
	if !ok {
		return fmt.Errorf("task '%s' not found", taskName)
	}

	task.mu.Lock()
	task.enabled = true
	task.mu.Unlock()
	return nil
}

// DisableTask disables a task by name
func (s *Scheduler) DisableTask(taskName string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskName]
	if !ok {
		return fmt.Errorf("task '%s' not found", taskName)
	}

	task.mu.Lock()
	task.enabled = false
	task.mu.Unlock()
	return nil
}

// TriggerTask manually triggers a task to run immediately
func (s *Scheduler) TriggerTask(taskName string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskName]
	if !ok {
		return fmt.Errorf("task '%s' not found", taskName)
	}

	go s.executeTask(task)
	return nil
}

// GetTask returns a task by name
func (s *Scheduler) GetTask(taskName string) *Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tasks[taskName]
}
