// Package scheduler publishes job messages on fixed intervals. Dispatching
// through Kafka keeps the beat separate from the workers: any consumer in the
// group picks the invocation up. Overlapping runs of the same job are not
// prevented; upsert semantics make overlap safe, merely wasteful.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"user-sync-service/internal/config"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

type JobWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Scheduler struct {
	writer JobWriter
	cfg    *config.Config
}

func NewScheduler(writer JobWriter, cfg *config.Config) *Scheduler {
	return &Scheduler{writer: writer, cfg: cfg}
}

// Start launches one ticker goroutine per job and blocks until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	schedule := map[string]time.Duration{
		config.JobSyncUsers:       s.cfg.SyncUsersEvery,
		config.JobEnrichAddresses: s.cfg.EnrichAddrEvery,
		config.JobEnrichCards:     s.cfg.EnrichCardEvery,
	}

	for name, every := range schedule {
		go s.tick(ctx, name, every)
	}
	<-ctx.Done()
}

func (s *Scheduler) tick(ctx context.Context, name string, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Trigger(ctx, name); err != nil {
				logger.Error().Err(err).Str("job", name).Msg("Error publishing job message")
			}
		}
	}
}

// Trigger publishes one invocation of the named job. The manual trigger
// endpoint uses the same path as the tickers.
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	msg := kafka.Message{
		Key:   []byte(name),
		Value: []byte(fmt.Sprintf(`{"job":%q,"requested_at":%q}`, name, time.Now().UTC().Format(time.RFC3339))),
	}
	return s.writer.WriteMessages(ctx, msg)
}
