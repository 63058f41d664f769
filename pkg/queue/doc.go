// Package queue provides asynchronous notification delivery on top of a
// pluggable job storage.
//
// An Enqueuer seals a notification together with its routing map into a
// self-contained envelope and stores it as a pending job. Message builders
// run at enqueue time, so the stored payload is plain data and the worker
// never needs the original builder functions. A Worker polls the storage,
// claims due jobs, reconstructs the notification from the envelope, and
// dispatches it through a Sender (typically *notify.Manager). Failed jobs
// are retried with linear backoff until the retry budget is exhausted,
// after which they are parked as dead and can be re-queued manually.
//
// Two storages ship with the package: MemoryStorage for tests and local
// development, and RedisStorage for multi-process deployments where jobs
// must survive restarts and be claimed by exactly one worker.
//
// Usage:
//
//	storage := queue.NewMemoryStorage()
//	enq, _ := queue.NewEnqueuer(storage)
//
//	jobID, err := enq.Enqueue(ctx, notification, routes,
//		queue.WithPriority(queue.PriorityHigh),
//		queue.WithDelay(5*time.Minute),
//	)
//
//	worker, _ := queue.NewWorker(storage, manager,
//		queue.WithPullInterval(time.Second),
//		queue.WithMaxConcurrent(4),
//	)
//	_ = worker.Start(ctx)
//	defer worker.Stop()
package queue
