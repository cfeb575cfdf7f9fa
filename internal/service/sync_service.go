package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"user-sync-service/internal/client"
	"user-sync-service/internal/config"
	"user-sync-service/internal/entity"
	"user-sync-service/internal/mapper"
	"user-sync-service/internal/repository"
	"user-sync-service/internal/retry"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// pageSize is the provider page size used by sync-users.
const pageSize = 100

// ErrUnknownJob is returned when a job name has no registered runner.
var ErrUnknownJob = errors.New("unknown job")

// ProviderClient is the outbound surface the jobs need from the provider.
type ProviderClient interface {
	ListUsers(ctx context.Context, limit, skip int) ([]client.UserRecord, int, error)
	GetUser(ctx context.Context, externalID int) (*client.UserRecord, error)
}

// UserStore is the persistence surface the jobs need from the repository.
type UserStore interface {
	UpsertUsers(ctx context.Context, users []*entity.User) error
	UpsertAddressForUser(ctx context.Context, externalID int, addr *entity.Address) error
	UpsertCreditCardForUser(ctx context.Context, externalID int, card *entity.CreditCard) error
	MissingAddressExternalIDs(ctx context.Context, batchSize int) ([]int, error)
	MissingCardExternalIDs(ctx context.Context, batchSize int) ([]int, error)
}

// JobRun is the recorded outcome of one job invocation, stored in Redis
// under jobrun:<name> after every run.
type JobRun struct {
	Job        string    `json:"job"`
	Status     string    `json:"status"`
	Processed  int       `json:"processed"`
	Skipped    int       `json:"skipped"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// SyncService runs the three jobs: sync-users pages through the provider and
// upserts every record; the two enrichment jobs attach the missing related
// entity to users that lack one. Every job is idempotent and safe to re-run.
type SyncService struct {
	client    ProviderClient
	store     UserStore
	rdb       *redis.Client
	policy    retry.Policy
	batchSize int
}

func NewSyncService(providerClient ProviderClient, store UserStore, rdb *redis.Client, batchSize int) *SyncService {
	return &SyncService{
		client:    providerClient,
		store:     store,
		rdb:       rdb,
		policy:    retry.DefaultPolicy(client.IsTransient),
		batchSize: batchSize,
	}
}

// RunJob runs the named job under the retry policy and records the outcome.
// The whole invocation is retried on transient fetch failure; rows committed
// by earlier pages or users stay committed across retries.
func (s *SyncService) RunJob(ctx context.Context, name string) (*JobRun, error) {
	run := &JobRun{Job: name, StartedAt: time.Now().UTC()}

	err := s.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		switch name {
		case config.JobSyncUsers:
			run.Processed, err = s.syncUsers(ctx)
		case config.JobEnrichAddresses:
			run.Processed, run.Skipped, err = s.enrichAddresses(ctx)
		case config.JobEnrichCards:
			run.Processed, run.Skipped, err = s.enrichCards(ctx)
		default:
			return fmt.Errorf("%w: %s", ErrUnknownJob, name)
		}
		return err
	})

	run.FinishedAt = time.Now().UTC()
	run.Status = "ok"
	if err != nil {
		run.Status = "failed"
		run.Error = err.Error()
		logger.Error().Err(err).Str("job", name).Msg("Job run failed")
	} else {
		logger.Info().Str("job", name).Int("processed", run.Processed).Int("skipped", run.Skipped).Msg("Job run finished")
	}

	s.recordRun(ctx, run)
	return run, err
}

// LastRun returns the recorded outcome of the most recent run of a job.
// Returns redis.Nil when the job has never run.
func (s *SyncService) LastRun(ctx context.Context, name string) (*JobRun, error) {
	val, err := s.rdb.Get(ctx, jobRunKey(name)).Result()
	if err != nil {
		return nil, err
	}
	var run JobRun
	if err := json.Unmarshal([]byte(val), &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *SyncService) recordRun(ctx context.Context, run *JobRun) {
	if s.rdb == nil {
		return
	}
	payload, err := json.Marshal(run)
	if err == nil {
		err = s.rdb.Set(ctx, jobRunKey(run.Job), payload, 0).Err()
	}
	if err != nil {
		logger.Error().Err(err).Str("job", run.Job).Msg("Error recording job run")
	}
}

func jobRunKey(name string) string {
	return "jobrun:" + name
}

// syncUsers pages through the provider and upserts every record, one
// transaction per page. Terminates on an empty page or when the offset
// reaches the provider's reported total.
func (s *SyncService) syncUsers(ctx context.Context) (int, error) {
	logger.Info().Str("job", config.JobSyncUsers).Msg("Sync started")

	skip := 0
	synced := 0
	for {
		records, total, err := s.client.ListUsers(ctx, pageSize, skip)
		if err != nil {
			return synced, err
		}
		if len(records) == 0 {
			break
		}

		users := make([]*entity.User, 0, len(records))
		for i := range records {
			users = append(users, mapper.MapUser(&records[i]))
		}
		if err := s.store.UpsertUsers(ctx, users); err != nil {
			return synced, err
		}
		synced += len(users)

		skip += pageSize
		if skip >= total {
			break
		}
	}
	return synced, nil
}

// enrichAddresses attaches addresses to users that have none, one user per
// transaction so a failure mid-batch keeps the users already processed.
func (s *SyncService) enrichAddresses(ctx context.Context) (int, int, error) {
	missing, err := s.store.MissingAddressExternalIDs(ctx, s.batchSize)
	if err != nil {
		return 0, 0, err
	}
	logger.Info().Str("job", config.JobEnrichAddresses).Int("missing", len(missing)).Msg("Enrichment started")

	updated, skipped := 0, 0
	for _, externalID := range missing {
		record, err := s.client.GetUser(ctx, externalID)
		if err != nil {
			return updated, skipped, err
		}

		err = s.store.UpsertAddressForUser(ctx, externalID, mapper.MapAddress(record))
		if errors.Is(err, repository.ErrUserVanished) {
			skipped++
			continue
		}
		if err != nil {
			return updated, skipped, err
		}
		updated++
	}
	return updated, skipped, nil
}

// enrichCards attaches credit cards to users that have none.
func (s *SyncService) enrichCards(ctx context.Context) (int, int, error) {
	missing, err := s.store.MissingCardExternalIDs(ctx, s.batchSize)
	if err != nil {
		return 0, 0, err
	}
	logger.Info().Str("job", config.JobEnrichCards).Int("missing", len(missing)).Msg("Enrichment started")

	updated, skipped := 0, 0
	for _, externalID := range missing {
		record, err := s.client.GetUser(ctx, externalID)
		if err != nil {
			return updated, skipped, err
		}

		err = s.store.UpsertCreditCardForUser(ctx, externalID, mapper.MapCreditCard(record))
		if errors.Is(err, repository.ErrUserVanished) {
			skipped++
			continue
		}
		if err != nil {
			return updated, skipped, err
		}
		updated++
	}
	return updated, skipped, nil
}
