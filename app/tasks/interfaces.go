package tasks

// TaskSchedulerInterface is the scheduling surface used by the HTTP API
// to trigger pipeline runs.
// Example usage:
//
//	scheduler := NewScheduler(opts)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueuePublishRun()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueuePublishRun()
}
