package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	app "github.com/turtacn/MolMatch/internal/application/matching"
	"github.com/turtacn/MolMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolMatch/pkg/client"
)

type submitFlags struct {
	matchFlags

	targets       []string
	targetObjects []string
	targetPrefix  string
	jobID         string
}

// NewSubmitCmd creates the submit command, which queues a batch job on a
// MolMatch API server.
func NewSubmitCmd() *cobra.Command {
	f := &submitFlags{}

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a batch match job to a MolMatch server",
		Long: `Queue one query against many targets. Targets are molfiles (--target,
repeatable), object keys in the server's bucket (--target-object, repeatable)
or every object under --target-prefix. Results are published by the worker.`,
		Example: `  molmatch submit --server http://localhost:8080 --query q.mol --target a.mol --target b.mol
  molmatch submit --server http://localhost:8080 --query-object queries/q1.mol --target-prefix library/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.server, "server", "", "MolMatch API server URL (required)")
	fl.StringVar(&f.query, "query", "", "query molfile path")
	fl.StringVar(&f.queryObject, "query-object", "", "query object key in the molecule bucket")
	fl.StringArrayVar(&f.targets, "target", nil, "target molfile path (repeatable)")
	fl.StringArrayVar(&f.targetObjects, "target-object", nil, "target object key (repeatable)")
	fl.StringVar(&f.targetPrefix, "target-prefix", "", "match every stored object under this prefix")
	fl.StringVar(&f.jobID, "job-id", "", "job ID to use instead of a generated one")
	f.registerOptions(fl)
	fl.StringVarP(&f.output, "output", "o", outputText, "output format (text, json)")

	return cmd
}

func runSubmit(cmd *cobra.Command, f *submitFlags) error {
	if f.output != outputText && f.output != outputJSON {
		return &ExitCodeError{Code: ExitUsage, Err: fmt.Errorf("invalid output format %q (must be text or json)", f.output)}
	}
	if f.server == "" {
		return &ExitCodeError{Code: ExitUsage, Err: fmt.Errorf("--server is required")}
	}
	if err := exactlyOne("query", f.query, f.queryObject); err != nil {
		return &ExitCodeError{Code: ExitUsage, Err: err}
	}
	if len(f.targets) == 0 && len(f.targetObjects) == 0 && f.targetPrefix == "" {
		return &ExitCodeError{Code: ExitUsage, Err: fmt.Errorf("one of --target, --target-object or --target-prefix is required")}
	}
	stdinReaders := 0
	for _, p := range append([]string{f.query}, f.targets...) {
		if p == stdinPath {
			stdinReaders++
		}
	}
	if stdinReaders > 1 {
		return &ExitCodeError{Code: ExitUsage, Err: fmt.Errorf("only one input can read stdin")}
	}

	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	req := client.JobRequest{
		JobID:        f.jobID,
		TargetPrefix: f.targetPrefix,
		Options:      f.optionsInput(cmd.Flags()),
	}
	if req.Query, err = moleculeInput(cmd.InOrStdin(), f.query, f.queryObject); err != nil {
		return err
	}
	for _, p := range f.targets {
		in, err := moleculeInput(cmd.InOrStdin(), p, "")
		if err != nil {
			return err
		}
		req.Targets = append(req.Targets, in)
	}
	for _, key := range f.targetObjects {
		req.Targets = append(req.Targets, app.MoleculeInput{ObjectKey: key})
	}

	c, err := newAPIClient(f.server, cliCtx.Logger)
	if err != nil {
		return &ExitCodeError{Code: ExitUsage, Err: err}
	}
	accepted, err := c.SubmitJob(cmd.Context(), &req)
	if err != nil {
		return err
	}
	cliCtx.Logger.Debug("job submitted", logging.String(logging.FieldJobID, accepted.JobID))

	return renderAccepted(cmd.OutOrStdout(), f.output, accepted)
}

func renderAccepted(w io.Writer, format string, accepted *client.JobAccepted) error {
	if format == outputJSON {
		return printJSON(w, accepted)
	}
	_, err := fmt.Fprintf(w, "job_id: %s  status: %s\n", accepted.JobID, accepted.Status)
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// API client
// ─────────────────────────────────────────────────────────────────────────────

func newAPIClient(server string, logger logging.Logger) (*client.Client, error) {
	return client.NewClient(server,
		client.WithUserAgent("molmatch-cli/"+Version),
		client.WithLogger(sdkLogger{logger}),
	)
}

// sdkLogger adapts the structured logger to the SDK's printf-style one.
type sdkLogger struct{ l logging.Logger }

func (s sdkLogger) Debugf(format string, args ...interface{}) { s.l.Debug(fmt.Sprintf(format, args...)) }
func (s sdkLogger) Infof(format string, args ...interface{})  { s.l.Info(fmt.Sprintf(format, args...)) }
func (s sdkLogger) Errorf(format string, args ...interface{}) { s.l.Error(fmt.Sprintf(format, args...)) }

//Personal.AI order the ending
