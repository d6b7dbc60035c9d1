package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	app "github.com/turtacn/MolMatch/internal/application/matching"
	"github.com/turtacn/MolMatch/pkg/errors"
)

// MatchService runs synchronous matches.
type MatchService interface {
	Match(ctx context.Context, req app.MatchRequest) (*app.MatchResponse, error)
}

// JobService accepts batch jobs.
type JobService interface {
	SubmitJob(ctx context.Context, req app.JobRequest) (string, error)
}

type MatchHandler struct {
	matches MatchService
	jobs    JobService
	maxBody int64
}

// NewMatchHandler builds the handler. jobs may be nil when batch jobs are
// disabled; Submit then answers 503.
func NewMatchHandler(matches MatchService, jobs JobService, maxBody int64) *MatchHandler {
	return &MatchHandler{matches: matches, jobs: jobs, maxBody: maxBody}
}

// JobAccepted is the 202 body of Submit.
type JobAccepted struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// Match handles POST /api/v1/match. A timed-out run is still a 200: the
// status field says TIMED_OUT and the mappings found so far are returned.
func (h *MatchHandler) Match(c *gin.Context) {
	var req app.MatchRequest
	if err := bindJSON(c, &req, h.maxBody); err != nil {
		writeAppError(c, err)
		return
	}
	resp, err := h.matches.Match(c.Request.Context(), req)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Submit handles POST /api/v1/jobs.
func (h *MatchHandler) Submit(c *gin.Context) {
	if h.jobs == nil {
		writeAppError(c, errors.New(errors.ErrCodeServiceUnavailable, "batch jobs are not enabled"))
		return
	}
	var req app.JobRequest
	if err := bindJSON(c, &req, h.maxBody); err != nil {
		writeAppError(c, err)
		return
	}
	id, err := h.jobs.SubmitJob(c.Request.Context(), req)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, JobAccepted{JobID: id, Status: "accepted"})
}

//Personal.AI order the ending
