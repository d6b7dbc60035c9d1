// Package matching is the application layer over the matcher: it resolves
// molecule inputs, applies the configured defaults and limits, caches
// completed results and hands batch jobs to Kafka.
package matching

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/MolMatch/internal/config"
	domain "github.com/turtacn/MolMatch/internal/domain/matching"
	"github.com/turtacn/MolMatch/internal/domain/molecule"
	"github.com/turtacn/MolMatch/internal/infrastructure/database/redis"
	"github.com/turtacn/MolMatch/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MolMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolMatch/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolMatch/pkg/errors"
)

// ResultCache is the part of redis.Cache the service uses.
type ResultCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// MoleculeStore loads stored molecules by object key.
type MoleculeStore interface {
	FindByKey(ctx context.Context, key string) (*molecule.Molecule, error)
	ListKeys(ctx context.Context, prefix string, limit int) ([]string, error)
}

// Deps wires the service. Only Config is required; a nil Cache, Store or
// Publisher disables result caching, object-key inputs or job submission.
type Deps struct {
	Config    config.MatchingConfig
	Matcher   *domain.Matcher
	Cache     ResultCache
	Store     MoleculeStore
	Publisher kafka.Publisher
	Metrics   *prometheus.AppMetrics
	Logger    logging.Logger
}

type Service struct {
	cfg       config.MatchingConfig
	defaults  domain.Options
	matcher   *domain.Matcher
	cache     ResultCache
	store     MoleculeStore
	publisher kafka.Publisher
	metrics   *prometheus.AppMetrics
	logger    logging.Logger
}

// NewService validates the configured defaults and builds the service.
func NewService(d Deps) (*Service, error) {
	defaults, err := d.Config.Options()
	if err != nil {
		return nil, err
	}
	if d.Matcher == nil {
		d.Matcher = domain.NewMatcher(nil)
	}
	if d.Logger == nil {
		d.Logger = logging.NewNopLogger()
	}
	return &Service{
		cfg:       d.Config,
		defaults:  defaults,
		matcher:   d.Matcher,
		cache:     d.Cache,
		store:     d.Store,
		publisher: d.Publisher,
		metrics:   d.Metrics,
		logger:    d.Logger.Named("matching"),
	}, nil
}

// Match runs one query against one target.
func (s *Service) Match(ctx context.Context, req MatchRequest) (*MatchResponse, error) {
	opts, err := s.options(req.Options)
	if err != nil {
		return nil, err
	}
	query, err := s.resolve(ctx, "query", req.Query)
	if err != nil {
		return nil, err
	}
	target, err := s.resolve(ctx, "target", req.Target)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, query, target, opts)
}

// run matches resolved molecules, going through the cache. Each run interns
// its labels and binds its R-groups in a session of its own.
func (s *Service) run(ctx context.Context, query, target *molecule.Molecule, opts matchOptions) (*MatchResponse, error) {
	runID := uuid.NewString()
	log := s.logger.With(logging.String("run_id", runID), logging.String(logging.FieldMode, string(opts.Mode)))

	key := cacheKey(query, target, opts)
	if cached, ok := s.lookup(ctx, key, log); ok {
		return &MatchResponse{
			RunID: runID, Status: cached.Status, Mappings: cached.Mappings,
			Stats: cached.Stats, Options: opts.Options, Cached: true,
		}, nil
	}

	session := s.matcher.Session()
	for label, members := range opts.rgroups {
		if _, err := session.Registry().Bind(label, members...); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeMatchConfigInvalid, "invalid rgroup").WithDetail(label)
		}
	}

	done := s.metrics.TrackActive()
	res, err := session.Match(ctx, query, target, opts.Options)
	done()
	if err != nil {
		log.Warn("match rejected", logging.ErrorFields(err)...)
		return nil, err
	}

	s.metrics.RecordMatch(string(opts.Mode), string(res.Status), res.Stats.Elapsed, res.Stats.StatesExpanded, len(res.Mappings))
	log.Info("match finished",
		logging.String(logging.FieldStatus, string(res.Status)),
		logging.Int("query_atoms", res.Stats.QueryAtoms),
		logging.Int("target_atoms", res.Stats.TargetAtoms),
		logging.Int("mappings", len(res.Mappings)),
		logging.Int64("states_expanded", res.Stats.StatesExpanded),
		logging.Int64(logging.FieldDuration, res.Stats.Elapsed.Milliseconds()))

	// A timed-out result depends on machine load, so it is never reused.
	if s.cache != nil && res.Status.Completed() {
		entry := cachedResult{Status: res.Status, Mappings: res.Mappings, Stats: res.Stats}
		if err := s.cache.Set(ctx, key, entry, s.cfg.CacheTTL); err != nil {
			log.Warn("failed to cache result", logging.Err(err))
		}
	}

	return &MatchResponse{RunID: runID, Status: res.Status, Mappings: res.Mappings, Stats: res.Stats, Options: opts.Options}, nil
}

func (s *Service) lookup(ctx context.Context, key string, log logging.Logger) (cachedResult, bool) {
	var entry cachedResult
	if s.cache == nil {
		return entry, false
	}
	err := s.cache.Get(ctx, key, &entry)
	switch {
	case err == nil:
		s.metrics.RecordCacheLookup("hit")
		log.Debug("result cache hit")
		return entry, true
	case err == redis.ErrCacheMiss:
		s.metrics.RecordCacheLookup("miss")
	default:
		s.metrics.RecordCacheLookup("error")
		log.Warn("result cache unavailable", logging.Err(err))
	}
	return entry, false
}

// SubmitJob assigns a job ID and publishes the job for the workers.
func (s *Service) SubmitJob(ctx context.Context, req JobRequest) (string, error) {
	if s.publisher == nil {
		return "", errors.New(errors.ErrCodeServiceUnavailable, "batch jobs are not enabled")
	}
	if err := s.checkJob(req); err != nil {
		return "", err
	}
	if _, err := s.options(req.Options); err != nil {
		return "", err
	}

	if req.JobID == "" {
		req.JobID = uuid.NewString()
	}
	req.SubmittedAt = time.Now().UTC()

	env, err := kafka.NewEventEnvelope(ctx, kafka.EventJobRequested, "molmatch", req)
	if err != nil {
		return "", err
	}
	msg, err := env.ToMessage(kafka.TopicJobsRequested, req.JobID)
	if err != nil {
		return "", err
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		return "", err
	}
	s.logger.Info("job submitted",
		logging.String(logging.FieldJobID, req.JobID),
		logging.Int("targets", len(req.Targets)),
		logging.String("target_prefix", req.TargetPrefix))
	return req.JobID, nil
}

// maxJobTargets bounds the explicit targets plus the prefix expansion.
const maxJobTargets = 10000

func (s *Service) checkJob(req JobRequest) error {
	if len(req.Targets) == 0 && req.TargetPrefix == "" {
		return errors.New(errors.ErrCodeJobPayloadInvalid, "job has no targets")
	}
	if len(req.Targets) > maxJobTargets {
		return errors.Newf(errors.ErrCodeJobPayloadInvalid, "job has %d targets, limit is %d", len(req.Targets), maxJobTargets)
	}
	if req.TargetPrefix != "" && s.store == nil {
		return errors.New(errors.ErrCodeJobPayloadInvalid, "target_prefix requires a molecule store")
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Inputs
// ─────────────────────────────────────────────────────────────────────────────

// options merges in over the configured defaults and applies the limits.
func (s *Service) options(in OptionsInput) (matchOptions, error) {
	opts := matchOptions{Options: s.defaults}
	var err error
	if in.Mode != nil {
		if opts.Mode, err = domain.ParseMode(*in.Mode); err != nil {
			return opts, errors.Wrap(err, errors.ErrCodeMatchConfigInvalid, "invalid mode")
		}
	}
	if in.BondEquivalence != nil {
		if opts.BondEquivalence, err = domain.ParseBondEquivalence(*in.BondEquivalence); err != nil {
			return opts, errors.Wrap(err, errors.ErrCodeMatchConfigInvalid, "invalid bond equivalence")
		}
	}
	if in.SortOrder != nil {
		if opts.SortOrder, err = domain.ParseSortOrder(*in.SortOrder); err != nil {
			return opts, errors.Wrap(err, errors.ErrCodeMatchConfigInvalid, "invalid sort order")
		}
	}
	if in.Timeout != nil {
		if opts.TimeLimit, err = time.ParseDuration(*in.Timeout); err != nil {
			return opts, errors.Wrap(err, errors.ErrCodeMatchConfigInvalid, "invalid timeout")
		}
	}
	if in.MatchBondType != nil {
		opts.MatchBondType = *in.MatchBondType
	}
	if in.MatchStereo != nil {
		opts.MatchStereo = *in.MatchStereo
	}
	if in.ResultLimit != nil {
		opts.ResultLimit = *in.ResultLimit
	}
	if in.Parallelism != nil {
		opts.Parallelism = *in.Parallelism
	}
	if in.MCSTolerance != nil {
		opts.MCSTolerance = *in.MCSTolerance
	}
	if in.UniqueTargets != nil {
		opts.UniqueTargets = *in.UniqueTargets
	}
	if in.LookAhead != nil {
		opts.LookAhead = *in.LookAhead
	}
	if opts.rgroups, err = rgroups(in.RGroups); err != nil {
		return opts, err
	}
	// Bond equivalence is meaningless without bond typing; drop it rather
	// than reject a request that only switched bond typing off.
	if !opts.MatchBondType && in.BondEquivalence == nil {
		opts.BondEquivalence = domain.EquivalenceStrict
	}
	if s.cfg.MaxTimeLimit > 0 && opts.TimeLimit > s.cfg.MaxTimeLimit {
		opts.TimeLimit = s.cfg.MaxTimeLimit
	}
	return opts, opts.Validate()
}

// rgroups checks R-group bindings and puts their members in canonical order.
func rgroups(in map[string][]string) (map[string][]string, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string][]string, len(in))
	for label, members := range in {
		if label == "" || label == "*" || label == "R" {
			return nil, errors.Newf(errors.ErrCodeMatchConfigInvalid, "rgroup label %q is empty or reserved", label)
		}
		set := make([]string, 0, len(members))
		for _, m := range members {
			if m == "" {
				return nil, errors.Newf(errors.ErrCodeMatchConfigInvalid, "rgroup %s has an empty member", label)
			}
			set = append(set, m)
		}
		slices.Sort(set)
		out[label] = slices.Compact(set)
	}
	return out, nil
}

// resolve turns an input into a validated molecule.
func (s *Service) resolve(ctx context.Context, role string, in MoleculeInput) (*molecule.Molecule, error) {
	set := 0
	for _, ok := range []bool{in.Molfile != "", in.Molecule != nil, in.ObjectKey != ""} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return nil, errors.Newf(errors.ErrCodeValidation, "%s: exactly one of molfile, molecule or object_key is required", role)
	}

	var (
		m   *molecule.Molecule
		err error
	)
	switch {
	case in.Molfile != "":
		m, err = molecule.ParseMolfile(strings.NewReader(in.Molfile))
	case in.Molecule != nil:
		m = in.Molecule
	default:
		if s.store == nil {
			return nil, errors.Newf(errors.ErrCodeValidation, "%s: object_key inputs are not enabled", role)
		}
		m, err = s.store.FindByKey(ctx, in.ObjectKey)
	}
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if s.cfg.MaxAtoms > 0 && m.AtomCount() > s.cfg.MaxAtoms {
		return nil, errors.Newf(errors.ErrCodeValidation, "%s has %d atoms, limit is %d", role, m.AtomCount(), s.cfg.MaxAtoms)
	}
	return m, nil
}

// cacheKey hashes both molecule digests with the options that can change the
// result. The time limit is left out: only completed runs are cached, and a
// completed run does not depend on it.
func cacheKey(query, target *molecule.Molecule, opts matchOptions) string {
	opts.TimeLimit = 0
	o, _ := json.Marshal(opts.Options)
	g, _ := json.Marshal(opts.rgroups)
	h := sha256.New()
	h.Write([]byte("v1\x00"))
	h.Write([]byte(query.Digest()))
	h.Write([]byte{0})
	h.Write([]byte(target.Digest()))
	h.Write([]byte{0})
	h.Write(o)
	h.Write([]byte{0})
	h.Write(g)
	return "match:" + hex.EncodeToString(h.Sum(nil))
}

//Personal.AI order the ending
