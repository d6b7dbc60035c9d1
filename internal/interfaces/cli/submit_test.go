package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "github.com/turtacn/MolMatch/internal/application/matching"
	"github.com/turtacn/MolMatch/internal/config"
	"github.com/turtacn/MolMatch/internal/infrastructure/messaging/kafka"
	httpserver "github.com/turtacn/MolMatch/internal/interfaces/http"
	"github.com/turtacn/MolMatch/internal/interfaces/http/handlers"
	"github.com/turtacn/MolMatch/internal/testutil"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*kafka.ProducerMessage
}

func (p *recordingPublisher) Publish(_ context.Context, msg *kafka.ProducerMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) jobs(t *testing.T) []app.JobRequest {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]app.JobRequest, 0, len(p.msgs))
	for _, m := range p.msgs {
		var env kafka.EventEnvelope
		require.NoError(t, json.Unmarshal(m.Value, &env))
		var req app.JobRequest
		require.NoError(t, json.Unmarshal(env.Payload, &req))
		out = append(out, req)
	}
	return out
}

func startServer(t *testing.T, pub *recordingPublisher) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	deps := app.Deps{Config: config.Default().Matching}
	if pub != nil {
		deps.Publisher = pub
	}
	svc, err := app.NewService(deps)
	require.NoError(t, err)
	server := httptest.NewServer(httpserver.NewRouter(httpserver.RouterConfig{
		MatchHandler:  handlers.NewMatchHandler(svc, svc, 1<<20),
		HealthHandler: handlers.NewHealthHandler("test"),
	}))
	t.Cleanup(server.Close)
	return server.URL
}

func TestMatch_RemoteServer(t *testing.T) {
	url := startServer(t, nil)
	dir := t.TempDir()
	q := writeMolfile(t, dir, "q.mol", testutil.Hydroxyl())
	tg := writeMolfile(t, dir, "t.mol", testutil.Ethanol())

	res := run(t, "", "match", "--server", url, "--query", q, "--target", tg)
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "mappings: 1")
	assert.Contains(t, res.stdout, "0:1")
}

func TestMatch_RemoteServerInputError(t *testing.T) {
	url := startServer(t, nil)
	dir := t.TempDir()
	q := writeMolfile(t, dir, "q.mol", testutil.Hydroxyl())
	tg := writeMolfile(t, dir, "t.mol", testutil.Ethanol())

	res := run(t, "", "match", "--server", url, "--query", q, "--target", tg, "--mode", "fuzzy")
	assert.Equal(t, ExitError, res.code)
	assert.Contains(t, res.stderr, "MATCH_")
}

func TestMatch_RemoteServerBadURL(t *testing.T) {
	dir := t.TempDir()
	q := writeMolfile(t, dir, "q.mol", testutil.Hydroxyl())
	res := run(t, "", "match", "--server", "ftp://x", "--query", q, "--target", q)
	assert.Equal(t, ExitUsage, res.code)
}

func TestSubmit(t *testing.T) {
	pub := &recordingPublisher{}
	url := startServer(t, pub)
	dir := t.TempDir()
	q := writeMolfile(t, dir, "q.mol", testutil.Hydroxyl())
	a := writeMolfile(t, dir, "a.mol", testutil.Ethanol())

	res := run(t, marshalMolfile(t, testutil.Methane()),
		"submit", "--server", url, "--query", q, "--target", a, "--target", "-",
		"--target-object", "library/x.mol", "--job-id", "job-7", "--limit", "1")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Equal(t, "job_id: job-7  status: accepted\n", res.stdout)

	jobs := pub.jobs(t)
	require.Len(t, jobs, 1)
	assert.Equal(t, "job-7", jobs[0].JobID)
	require.Len(t, jobs[0].Targets, 3)
	assert.NotEmpty(t, jobs[0].Targets[1].Molfile)
	assert.Equal(t, "library/x.mol", jobs[0].Targets[2].ObjectKey)
	require.NotNil(t, jobs[0].Options.ResultLimit)
	assert.Equal(t, 1, *jobs[0].Options.ResultLimit)
	assert.Nil(t, jobs[0].Options.Mode)
}

func TestSubmit_JSONOutputGeneratesID(t *testing.T) {
	url := startServer(t, &recordingPublisher{})
	dir := t.TempDir()
	q := writeMolfile(t, dir, "q.mol", testutil.Hydroxyl())
	a := writeMolfile(t, dir, "a.mol", testutil.Ethanol())

	res := run(t, "", "submit", "--server", url, "--query", q, "--target", a, "-o", "json")
	require.Equal(t, ExitOK, res.code, res.stderr)
	var accepted struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &accepted))
	assert.NotEmpty(t, accepted.JobID)
	assert.Equal(t, "accepted", accepted.Status)
}

func TestSubmit_InputErrorNotRetried(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"MATCH_005","message":"invalid match job payload"}`))
	}))
	defer server.Close()
	q := writeMolfile(t, t.TempDir(), "q.mol", testutil.Hydroxyl())

	res := run(t, "", "submit", "--server", server.URL, "--query", q, "--target-prefix", "p/")
	assert.Equal(t, ExitError, res.code)
	assert.Contains(t, res.stderr, "MATCH_005")
	assert.Equal(t, 1, calls)
}

func TestSubmit_UsageErrors(t *testing.T) {
	q := writeMolfile(t, t.TempDir(), "q.mol", testutil.Hydroxyl())
	tests := []struct {
		name string
		args []string
	}{
		{"missing server", []string{"submit", "--query", q, "--target-prefix", "p/"}},
		{"missing query", []string{"submit", "--server", "http://x", "--target-prefix", "p/"}},
		{"missing targets", []string{"submit", "--server", "http://x", "--query", q}},
		{"two stdin inputs", []string{"submit", "--server", "http://x", "--query", "-", "--target", "-"}},
		{"bad output", []string{"submit", "--server", "http://x", "--query", q, "--target-prefix", "p/", "-o", "table"}},
		{"bad server url", []string{"submit", "--server", "ftp://x", "--query", q, "--target-prefix", "p/"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, "", tt.args...)
			assert.Equal(t, ExitUsage, res.code, res.stderr)
		})
	}
}

//Personal.AI order the ending
