package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/janelia-flyem/dvidseg/datastore"
	"github.com/janelia-flyem/dvidseg/dvid"
)

// Task is a request to compress a detached copy of a volume buffer.
type Task struct {
	Raw           []byte
	VolumeID      string
	Key           datastore.StackKey
	LabelmapIndex int
	Time          uint64
}

// Result is the outcome of a Task.  Err is set if compression failed.
type Result struct {
	Compressed    []byte
	VolumeID      string
	Key           datastore.StackKey
	LabelmapIndex int
	Time          uint64
	Err           error
}

// Compressor compresses snapshots off the caller's goroutine.  Submit must not
// block.  Results may arrive in any order.
type Compressor interface {
	Submit(Task)
	Results() <-chan Result
}

// Codec is implemented by a Compressor that reports the compression of its results.
type Codec interface {
	Compression() dvid.Compression
}

// DefaultWorkers is the number of compression goroutines if none is configured.
const DefaultWorkers = 2

// DeflateWorker is a Compressor backed by a pool of goroutines.  Submitted tasks
// are queued without bound so Submit never blocks.
type DeflateWorker struct {
	compression dvid.Compression
	workers     int

	mu      sync.Mutex
	queue   []Task
	closing bool
	wake    chan struct{}

	results chan Result
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// NewDeflateWorker returns a stopped worker pool.  Call Start before submitting.
func NewDeflateWorker(workers int, compression dvid.Compression) *DeflateWorker {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &DeflateWorker{
		compression: compression,
		workers:     workers,
		wake:        make(chan struct{}, 1),
		results:     make(chan Result, workers*4),
	}
}

func (w *DeflateWorker) String() string {
	return fmt.Sprintf("%s worker pool (%d goroutines)", w.compression, w.workers)
}

// Start launches the goroutines.  Cancelling ctx stops them without finishing
// queued tasks.
func (w *DeflateWorker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.group, ctx = errgroup.WithContext(ctx)
	for i := 0; i < w.workers; i++ {
		w.group.Go(func() error {
			return w.work(ctx)
		})
	}
	dvid.Debugf("Started %s\n", w)
}

// Submit queues a task.
func (w *DeflateWorker) Submit(task Task) {
	w.mu.Lock()
	w.queue = append(w.queue, task)
	w.mu.Unlock()
	w.signal()
}

// Compression returns the compression applied to every result.
func (w *DeflateWorker) Compression() dvid.Compression {
	return w.compression
}

func (w *DeflateWorker) Results() <-chan Result {
	return w.results
}

// Queued returns the number of tasks not yet picked up by a goroutine.
func (w *DeflateWorker) Queued() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

func (w *DeflateWorker) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// next pops a task.  It returns false if the pool is closing and the queue is empty.
func (w *DeflateWorker) next(ctx context.Context) (Task, bool) {
	for {
		w.mu.Lock()
		if len(w.queue) != 0 {
			task := w.queue[0]
			w.queue[0] = Task{}
			w.queue = w.queue[1:]
			more := len(w.queue) != 0
			w.mu.Unlock()
			if more {
				w.signal()
			}
			return task, true
		}
		closing := w.closing
		w.mu.Unlock()
		if closing {
			w.signal() // wake the next goroutine so it can exit too
			return Task{}, false
		}
		select {
		case <-ctx.Done():
			return Task{}, false
		case <-w.wake:
		}
	}
}

func (w *DeflateWorker) work(ctx context.Context) error {
	for {
		task, ok := w.next(ctx)
		if !ok {
			return ctx.Err()
		}
		start := time.Now()
		compressed, err := dvid.Compress(task.Raw, w.compression)
		compressSeconds.Observe(time.Since(start).Seconds())
		if err != nil {
			err = fmt.Errorf("compressing snapshot %d of volume %s: %w", task.Time, task.VolumeID, err)
		}
		res := Result{
			Compressed:    compressed,
			VolumeID:      task.VolumeID,
			Key:           task.Key,
			LabelmapIndex: task.LabelmapIndex,
			Time:          task.Time,
			Err:           err,
		}
		select {
		case w.results <- res:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close finishes all queued tasks, stops the goroutines and closes the results
// channel.  Results must keep being consumed until the channel is closed.
func (w *DeflateWorker) Close() error {
	w.mu.Lock()
	w.closing = true
	w.mu.Unlock()
	w.signal()
	if w.group == nil {
		close(w.results)
		return nil
	}
	err := w.group.Wait()
	w.cancel()
	close(w.results)
	if err == context.Canceled {
		err = nil
	}
	dvid.Debugf("Closed %s\n", w)
	return err
}
