package client

import (
	"context"

	"github.com/google/uuid"

	app "github.com/turtacn/MolMatch/internal/application/matching"
	domain "github.com/turtacn/MolMatch/internal/domain/matching"
	"github.com/turtacn/MolMatch/pkg/errors"
)

// Wire types shared with the server.
type (
	MoleculeInput = app.MoleculeInput
	OptionsInput  = app.OptionsInput
	MatchRequest  = app.MatchRequest
	MatchResponse = app.MatchResponse
	JobRequest    = app.JobRequest
	Mapping       = domain.Mapping
	Pair          = domain.Pair
	Status        = domain.Status
)

const (
	StatusComplete = domain.StatusComplete
	StatusTimedOut = domain.StatusTimedOut
	StatusNoMatch  = domain.StatusNoMatch
)

// JobAccepted is the response to SubmitJob.
type JobAccepted struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// Liveness is the body of /healthz.
type Liveness struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Readiness is the body of /readyz.
type Readiness struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentStatus `json:"components,omitempty"`
}

type ComponentStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Match runs one query against one target on the server.
func (c *Client) Match(ctx context.Context, req *MatchRequest) (*MatchResponse, error) {
	if req == nil {
		return nil, errors.New(errors.ErrCodeValidation, "match request is nil")
	}
	var resp MatchResponse
	if err := c.post(ctx, "/api/v1/match", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitJob queues a batch job. A job ID is assigned before sending when the
// request has none, so a retried submission keeps the same ID.
func (c *Client) SubmitJob(ctx context.Context, req *JobRequest) (*JobAccepted, error) {
	if req == nil {
		return nil, errors.New(errors.ErrCodeValidation, "job request is nil")
	}
	if len(req.Targets) == 0 && req.TargetPrefix == "" {
		return nil, errors.New(errors.ErrCodeValidation, "job needs targets or a target prefix")
	}
	cp := *req
	if cp.JobID == "" {
		cp.JobID = uuid.NewString()
	}
	var resp JobAccepted
	if err := c.post(ctx, "/api/v1/jobs", &cp, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health calls /healthz.
func (c *Client) Health(ctx context.Context) (*Liveness, error) {
	var resp Liveness
	if err := c.get(ctx, "/healthz", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ready calls /readyz. A not-ready server answers 503, which is returned as
// an *APIError after the retries are spent.
func (c *Client) Ready(ctx context.Context) (*Readiness, error) {
	var resp Readiness
	if err := c.get(ctx, "/readyz", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

//Personal.AI order the ending
