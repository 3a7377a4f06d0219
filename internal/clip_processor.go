package internal

import (
	"time"

	"github.com/kaizM/Loss-prevention/internal/video"
)

// ClipProcessor drains the backlog of transactions awaiting a video clip. It
// wakes on a notify signal after each ingest and on a slow poll interval as a
// safety net.
type ClipProcessor struct {
	store     *Store
	endpoints video.Endpoints
	interval  time.Duration
	batchSize int
	notify    chan struct{}
	stop      chan struct{}
}

func NewClipProcessor(store *Store, endpoints video.Endpoints) *ClipProcessor {
	return &ClipProcessor{
		store:     store,
		endpoints: endpoints,
		interval:  time.Minute,
		batchSize: 25,
		notify:    make(chan struct{}, 1),
		stop:      make(chan struct{}),
	}
}

// Start launches the background worker.
func (cp *ClipProcessor) Start() {
	LogInfo("Starting clip processor (poll interval %s)", cp.interval)
	go cp.run()
}

// Stop signals the worker to exit after the current batch.
func (cp *ClipProcessor) Stop() {
	close(cp.stop)
}

// Notify wakes the worker without waiting for the poll tick. Non-blocking;
// a pending signal is enough.
func (cp *ClipProcessor) Notify() {
	select {
	case cp.notify <- struct{}{}:
	default:
	}
}

func (cp *ClipProcessor) run() {
	defer func() {
		if r := recover(); r != nil {
			LogError("Clip processor panicked: %v", r)
		}
	}()

	ticker := time.NewTicker(cp.interval)
	defer ticker.Stop()

	cp.processBatch()
	for {
		select {
		case <-cp.stop:
			LogInfo("Clip processor stopped")
			return
		case <-cp.notify:
			cp.processBatch()
		case <-ticker.C:
			cp.processBatch()
		}
	}
}

// processBatch extracts clips for pending transactions until the backlog is
// empty. Extraction failures are recorded on the transaction and never stall
// the batch.
func (cp *ClipProcessor) processBatch() {
	for {
		pending, err := cp.store.PendingVideo(cp.batchSize)
		if err != nil {
			LogError("Failed to list transactions pending video: %v", err)
			return
		}
		if len(pending) == 0 {
			return
		}

		for _, t := range pending {
			cp.processOne(t)
		}
		if len(pending) < cp.batchSize {
			return
		}
	}
}

func (cp *ClipProcessor) processOne(t StoredTransaction) {
	clipPath, err := cp.endpoints.CreateClip(video.ClipRequest{
		Timestamp:       t.Timestamp,
		TransactionType: t.TransactionType,
		CashierID:       t.CashierID,
	})
	if err != nil {
		LogWarn("No clip for transaction %d (%s %s): %v",
			t.ID, t.TransactionType, t.Timestamp.Format("2006-01-02 15:04:05"), err)
	}
	if serr := cp.store.SetClipResult(t.ID, clipPath, err); serr != nil {
		LogError("Failed to record clip result for transaction %d: %v", t.ID, serr)
	}
}
