// internal/historian/historian.go moves action records from the Redis
// action log into the Postgres history in batches.
package historian

import (
	"context"
	"time"

	"github.com/jason-s-yu/doko/internal/cache"
	"github.com/sirupsen/logrus"
)

// Source yields queued action records. Pop returns nil, nil when nothing
// arrived within timeout.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (*cache.ActionRecord, error)
}

// Sink stores a batch of records atomically.
type Sink interface {
	SaveActions(ctx context.Context, recs []cache.ActionRecord) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, recs []cache.ActionRecord) error

func (f SinkFunc) SaveActions(ctx context.Context, recs []cache.ActionRecord) error {
	return f(ctx, recs)
}

// maxPending caps what is held back while the sink keeps failing.
const maxPending = 10000

// Service batches records from a Source into a Sink.
type Service struct {
	src        Source
	sink       Sink
	batchSize  int
	flushDelay time.Duration
	logger     *logrus.Logger

	batch     []cache.ActionRecord
	lastFlush time.Time
}

func NewService(src Source, sink Sink, batchSize int, flushDelay time.Duration, logger *logrus.Logger) *Service {
	if batchSize <= 0 {
		batchSize = 20
	}
	if flushDelay <= 0 {
		flushDelay = 500 * time.Millisecond
	}
	return &Service{
		src:        src,
		sink:       sink,
		batchSize:  batchSize,
		flushDelay: flushDelay,
		logger:     logger,
		batch:      make([]cache.ActionRecord, 0, batchSize),
	}
}

// Run pops records until ctx is done. A batch is written once it is full
// or flushDelay has passed since the last write. Whatever is left is
// written before Run returns.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("historian started")
	s.lastFlush = time.Now()
	for {
		if ctx.Err() != nil {
			break
		}
		rec, err := s.src.Pop(ctx, s.flushDelay)
		switch {
		case err != nil && ctx.Err() != nil:
		case err != nil:
			s.logger.WithError(err).Error("failed to pop action record")
			time.Sleep(s.flushDelay)
		case rec != nil:
			s.batch = append(s.batch, *rec)
		}
		if len(s.batch) >= s.batchSize || time.Since(s.lastFlush) >= s.flushDelay {
			s.flush(ctx)
		}
	}

	final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.flush(final)
	if len(s.batch) > 0 {
		s.logger.WithField("records", len(s.batch)).Warn("historian stopped with unsaved records")
	}
	s.logger.Info("historian stopped")
	return nil
}

func (s *Service) flush(ctx context.Context) {
	s.lastFlush = time.Now()
	if len(s.batch) == 0 {
		return
	}
	if err := s.sink.SaveActions(ctx, s.batch); err != nil {
		s.logger.WithError(err).WithField("records", len(s.batch)).Error("failed to save action batch")
		if over := len(s.batch) - maxPending; over > 0 {
			s.logger.WithField("records", over).Warn("dropping oldest action records")
			s.batch = append(s.batch[:0], s.batch[over:]...)
		}
		return
	}
	s.logger.WithField("records", len(s.batch)).Debug("flushed action batch")
	s.batch = s.batch[:0]
}
