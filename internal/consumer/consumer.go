package consumer

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"user-sync-service/internal/config"
	"user-sync-service/internal/service"
)

// JobRunner runs one named job to completion, retries included.
type JobRunner interface {
	RunJob(ctx context.Context, name string) (*service.JobRun, error)
}

type JobReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Consumer is the worker side of the job bus: it reads job messages and runs
// them one at a time. A failed run is logged and already recorded by the
// service; the loop moves on to the next message.
type Consumer struct {
	runner JobRunner
	reader JobReader
}

func NewConsumer(runner JobRunner, reader JobReader) *Consumer {
	return &Consumer{runner: runner, reader: reader}
}

// Start blocks reading job messages until ctx is done or the reader closes.
func (c *Consumer) Start(ctx context.Context) {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Msgf("Error reading job message: %v", err)
			continue
		}
		c.processMessage(ctx, msg)
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	job := string(msg.Key)
	switch job {
	case config.JobSyncUsers, config.JobEnrichAddresses, config.JobEnrichCards:
		if _, err := c.runner.RunJob(ctx, job); err != nil {
			log.Error().Msgf("Job %s failed: %v", job, err)
		}
	default:
		log.Error().Msgf("Unknown job: %s", job)
	}
}
