package cron

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingJob struct {
	runs atomic.Int32
	hold time.Duration
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	select {
	case <-time.After(j.hold):
	case <-ctx.Done():
	}
	return nil
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	r := NewRunner(nil, time.Second)
	if err := r.Schedule("every now and then", &countingJob{}); err == nil {
		t.Fatal("expected invalid spec error")
	}
}

func TestRunnerRunsJobsAndStops(t *testing.T) {
	r := NewRunner(nil, time.Second)
	job := &countingJob{}
	if err := r.Schedule("@every 1s", job); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	r.Start()

	deadline := time.Now().Add(5 * time.Second)
	for job.runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if job.runs.Load() == 0 {
		t.Fatal("job never ran")
	}
}

func TestStopCancelsRunningJob(t *testing.T) {
	r := NewRunner(nil, time.Hour)
	job := &countingJob{hold: time.Hour}
	if err := r.Schedule("@every 1s", job); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	r.Start()
	deadline := time.Now().Add(5 * time.Second)
	for job.runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.Stop(ctx); err != nil {
		t.Fatalf("running job was not cancelled: %v", err)
	}
}
