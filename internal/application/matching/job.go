package matching

import (
	"context"
	"fmt"
	"strconv"
	"time"

	domain "github.com/turtacn/MolMatch/internal/domain/matching"
	"github.com/turtacn/MolMatch/internal/infrastructure/database/redis"
	"github.com/turtacn/MolMatch/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MolMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolMatch/pkg/errors"
)

// JobProcessor runs batch jobs consumed from TopicJobsRequested and publishes
// a JobResult for each to TopicJobsCompleted.
type JobProcessor struct {
	service   *Service
	locker    redis.Locker
	lockTTL   time.Duration
	publisher kafka.Publisher
	logger    logging.Logger
}

// NewJobProcessor builds a processor. locker may be nil, in which case
// redelivered jobs can run twice.
func NewJobProcessor(svc *Service, locker redis.Locker, lockTTL time.Duration, publisher kafka.Publisher, logger logging.Logger) *JobProcessor {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if lockTTL <= 0 {
		lockTTL = 5 * time.Minute
	}
	return &JobProcessor{
		service:   svc,
		locker:    locker,
		lockTTL:   lockTTL,
		publisher: publisher,
		logger:    logger.Named("jobs"),
	}
}

// Handle is a kafka.MessageHandler. A malformed job is returned as
// non-retryable so it goes straight to the dead-letter topic; storage and
// publish failures are returned as is and retried.
func (p *JobProcessor) Handle(ctx context.Context, msg *kafka.Message) error {
	start := time.Now()

	env, err := kafka.MessageToEventEnvelope(msg)
	if err != nil {
		p.service.metrics.RecordJob(JobFailed, time.Since(start))
		return kafka.NonRetryable(err)
	}
	var req JobRequest
	if err := env.DecodePayload(&req); err != nil {
		p.service.metrics.RecordJob(JobFailed, time.Since(start))
		return kafka.NonRetryable(err)
	}
	if req.JobID == "" {
		p.service.metrics.RecordJob(JobFailed, time.Since(start))
		return kafka.NonRetryable(errors.New(errors.ErrCodeJobPayloadInvalid, "job has no id"))
	}
	log := p.logger.With(logging.String(logging.FieldJobID, req.JobID))
	if env.RequestID != "" {
		ctx = logging.WithRequestID(ctx, env.RequestID)
		log = log.With(logging.String(logging.FieldRequestID, env.RequestID))
	}

	runCtx := ctx
	if p.locker != nil {
		lock, err := p.locker.TryAcquire(ctx, "job:"+req.JobID, p.lockTTL)
		if err == redis.ErrLockNotAcquired {
			log.Info("job already running elsewhere")
			p.service.metrics.RecordJob(JobSkipped, time.Since(start))
			return nil
		}
		if err != nil {
			return err
		}
		var cancelRun context.CancelFunc
		runCtx, cancelRun = context.WithCancel(ctx)
		defer cancelRun()
		stop := lock.KeepAlive(ctx, p.lockTTL, p.lockTTL/3, func(err error) {
			log.Warn("job lock lost, abandoning job", logging.Err(err))
			cancelRun()
		})
		defer func() {
			stop()
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				log.Warn("failed to release job lock", logging.Err(err))
			}
		}()
	}

	result, err := p.Run(runCtx, req)
	if err == nil && runCtx.Err() != nil && ctx.Err() == nil {
		err = errors.New(errors.ErrCodeConflict, "job lock lost before the job finished")
	}
	if err != nil {
		p.service.metrics.RecordJob(JobFailed, time.Since(start))
		logging.LogOperation(log, "job", start, err)
		if errors.IsCode(err, errors.ErrCodeJobPayloadInvalid) || errors.IsCode(err, errors.ErrCodeMatchConfigInvalid) {
			return kafka.NonRetryable(err)
		}
		return err
	}

	if err := p.publish(ctx, result); err != nil {
		return err
	}
	p.service.metrics.RecordJob(result.Status, time.Since(start))
	log.Info("job finished",
		logging.String(logging.FieldStatus, result.Status),
		logging.Int("targets", len(result.Results)),
		logging.Int64(logging.FieldDuration, time.Since(start).Milliseconds()))
	return nil
}

// Run executes req synchronously. Per-target input errors are recorded in
// the result; errors that make the whole job meaningless are returned.
func (p *JobProcessor) Run(ctx context.Context, req JobRequest) (*JobResult, error) {
	s := p.service
	result := &JobResult{JobID: req.JobID, Status: JobCompleted, Results: []TargetResult{}, StartedAt: time.Now().UTC()}

	if err := s.checkJob(req); err != nil {
		return nil, err
	}
	opts, err := s.options(req.Options)
	if err != nil {
		return nil, err
	}
	query, err := s.resolve(ctx, "query", req.Query)
	if err != nil {
		if errors.IsNotFound(err) || isInputError(err) {
			result.Status = JobFailed
			result.Error = err.Error()
			result.FinishedAt = time.Now().UTC()
			return result, nil
		}
		return nil, err
	}

	targets := make([]MoleculeInput, 0, len(req.Targets))
	labels := make([]string, 0, len(req.Targets))
	for i, t := range req.Targets {
		targets = append(targets, t)
		labels = append(labels, targetLabel(i, t))
	}
	if req.TargetPrefix != "" {
		keys, err := s.store.ListKeys(ctx, req.TargetPrefix, maxJobTargets-len(targets))
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			targets = append(targets, MoleculeInput{ObjectKey: k})
			labels = append(labels, k)
		}
	}

	for i, in := range targets {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		tr := TargetResult{Target: labels[i]}
		target, err := s.resolve(ctx, "target", in)
		if err == nil {
			var resp *MatchResponse
			if resp, err = s.run(ctx, query, target, opts); err == nil {
				tr.Status, tr.Mappings = resp.Status, resp.Mappings
				stats := resp.Stats
				tr.Stats = &stats
			}
		}
		if err != nil {
			if !errors.IsNotFound(err) && !isInputError(err) {
				return nil, err
			}
			tr.Error = err.Error()
		}
		result.Results = append(result.Results, tr)
	}
	result.FinishedAt = time.Now().UTC()
	return result, nil
}

func (p *JobProcessor) publish(ctx context.Context, result *JobResult) error {
	if p.publisher == nil {
		return nil
	}
	env, err := kafka.NewEventEnvelope(ctx, kafka.EventJobCompleted, "molmatch-worker", result)
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(kafka.TopicJobsCompleted, result.JobID)
	if err != nil {
		return err
	}
	return p.publisher.Publish(ctx, msg)
}

// isInputError reports whether err is caused by the molecule itself rather
// than by infrastructure.
func isInputError(err error) bool {
	return errors.IsInput(err) || domain.IsInvalidGraph(err)
}

func targetLabel(i int, in MoleculeInput) string {
	switch {
	case in.ObjectKey != "":
		return in.ObjectKey
	case in.Molecule != nil && in.Molecule.Name != "":
		return fmt.Sprintf("#%d %s", i, in.Molecule.Name)
	}
	return "#" + strconv.Itoa(i)
}

//Personal.AI order the ending
