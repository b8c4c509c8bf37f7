// Package journal persists generation records off the request path.
package journal

import (
	"context"
	"sync"
	"time"

	"github.com/nulzo/epoch/internal/store"
	"github.com/nulzo/epoch/internal/store/model"
	"go.uber.org/zap"
)

// Ingestor handles the asynchronous persistence of generation records.
type Ingestor interface {
	Record(g *model.Generation)
	Start(ctx context.Context)
	Stop()
}

type ingestor struct {
	logger    *zap.Logger
	repo      store.Repository
	ch        chan *model.Generation
	batchSize int
	flushTime time.Duration

	stopOnce sync.Once
	done     chan struct{}
}

type Option func(*ingestor)

func WithBatchSize(n int) Option {
	return func(i *ingestor) { i.batchSize = n }
}

func WithFlushInterval(d time.Duration) Option {
	return func(i *ingestor) { i.flushTime = d }
}

func WithBufferSize(n int) Option {
	return func(i *ingestor) { i.ch = make(chan *model.Generation, n) }
}

func NewIngestor(logger *zap.Logger, repo store.Repository, opts ...Option) Ingestor {
	i := &ingestor{
		logger:    logger,
		repo:      repo,
		ch:        make(chan *model.Generation, 1024),
		batchSize: 50,
		flushTime: 2 * time.Second,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Record enqueues g. It never blocks; records are dropped when the buffer
// is full.
func (i *ingestor) Record(g *model.Generation) {
	select {
	case i.ch <- g:
	default:
		i.logger.Warn("Journal buffer full, dropping generation", zap.String("id", g.ID))
	}
}

// Start runs the writer. Cancelling ctx flushes the current batch, but the
// writer keeps accepting records until Stop so that requests finishing during
// shutdown are still persisted.
func (i *ingestor) Start(ctx context.Context) {
	go i.worker(ctx)
}

// Stop drains pending records and waits for them to be written. Record must
// not be called after Stop.
func (i *ingestor) Stop() {
	i.stopOnce.Do(func() { close(i.ch) })
	<-i.done
}

func (i *ingestor) worker(ctx context.Context) {
	defer close(i.done)

	batch := make([]*model.Generation, 0, i.batchSize)
	ticker := time.NewTicker(i.flushTime)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		err := i.repo.WithTx(context.Background(), func(tx store.Repository) error {
			for _, g := range batch {
				if err := tx.Generations().Log(context.Background(), g); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			i.logger.Error("Failed to persist generations", zap.Int("count", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	cancelled := ctx.Done()
	for {
		select {
		case g, ok := <-i.ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, g)
			if len(batch) >= i.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-cancelled:
			flush()
			cancelled = nil
		}
	}
}

// Discard is an Ingestor used when the journal is disabled.
type Discard struct{}

func (Discard) Record(*model.Generation) {}
func (Discard) Start(context.Context)    {}
func (Discard) Stop()                    {}
