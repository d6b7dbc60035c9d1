package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	app "github.com/turtacn/MolMatch/internal/application/matching"
	domain "github.com/turtacn/MolMatch/internal/domain/matching"
	"github.com/turtacn/MolMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolMatch/internal/infrastructure/storage/minio"
	"github.com/turtacn/MolMatch/pkg/errors"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputText  = "text"

	stdinPath = "-"
)

type matchFlags struct {
	query        string
	target       string
	queryObject  string
	targetObject string

	mode            string
	bondType        bool
	bondEquivalence string
	stereo          bool
	timeout         string
	limit           int
	order           string
	parallel        int
	tolerance       int
	unique          bool

	server string
	output string
}

// NewMatchCmd creates the match command.
func NewMatchCmd() *cobra.Command {
	f := &matchFlags{}

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match a query molecule against a target molecule",
		Long: `Run one match locally. Molecules are MDL V2000 molfiles read from disk
("-" reads stdin) or objects from the configured MinIO bucket.

Options left unset use the matching section of the configuration.
The exit code is 0 for COMPLETE and NO_MATCH, 3 for TIMED_OUT.`,
		Example: `  molmatch match --query hydroxyl.mol --target ethanol.mol
  molmatch match --query a.mol --target b.mol --mode mcs --tolerance 1 --output json
  molmatch match --query-object queries/q1.mol --target -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(cmd, f)
		},
	}

	f.register(cmd.Flags())

	return cmd
}

func (f *matchFlags) register(fl *pflag.FlagSet) {
	fl.StringVar(&f.query, "query", "", "query molfile path")
	fl.StringVar(&f.target, "target", "", "target molfile path")
	fl.StringVar(&f.queryObject, "query-object", "", "query object key in the molecule bucket")
	fl.StringVar(&f.targetObject, "target-object", "", "target object key in the molecule bucket")
	fl.StringVar(&f.server, "server", "", "run the match on a MolMatch API server instead of locally")
	f.registerOptions(fl)
	fl.StringVarP(&f.output, "output", "o", outputTable, "output format (table, json, text)")
}

// registerOptions adds the flags that map onto OptionsInput.
func (f *matchFlags) registerOptions(fl *pflag.FlagSet) {
	fl.StringVar(&f.mode, "mode", "", "match mode (exact, mcs)")
	fl.BoolVar(&f.bondType, "bond-type", false, "require bond orders to match")
	fl.StringVar(&f.bondEquivalence, "bond-equivalence", "", "bond order equivalence (strict, aromatic)")
	fl.BoolVar(&f.stereo, "stereo", false, "require stereo descriptors to match")
	fl.StringVar(&f.timeout, "timeout", "", "time limit as a duration, e.g. 500ms or 10s")
	fl.IntVar(&f.limit, "limit", 0, "maximum number of mappings, 0 for all")
	fl.StringVar(&f.order, "order", "", "ranking order (asc, desc)")
	fl.IntVar(&f.parallel, "parallel", 0, "number of search workers")
	fl.IntVar(&f.tolerance, "tolerance", 0, "MCS size tolerance below the best size")
	fl.BoolVar(&f.unique, "unique", false, "drop mappings that cover the same target atoms")
}

func runMatch(cmd *cobra.Command, f *matchFlags) error {
	switch f.output {
	case outputTable, outputJSON, outputText:
	default:
		return &ExitCodeError{Code: ExitUsage, Err: fmt.Errorf("invalid output format %q (must be table, json or text)", f.output)}
	}
	if err := exactlyOne("query", f.query, f.queryObject); err != nil {
		return &ExitCodeError{Code: ExitUsage, Err: err}
	}
	if err := exactlyOne("target", f.target, f.targetObject); err != nil {
		return &ExitCodeError{Code: ExitUsage, Err: err}
	}
	if f.query == stdinPath && f.target == stdinPath {
		return &ExitCodeError{Code: ExitUsage, Err: fmt.Errorf("only one of --query and --target can read stdin")}
	}

	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := cliCtx.Logger

	req := app.MatchRequest{Options: f.optionsInput(cmd.Flags())}
	if req.Query, err = moleculeInput(cmd.InOrStdin(), f.query, f.queryObject); err != nil {
		return err
	}
	if req.Target, err = moleculeInput(cmd.InOrStdin(), f.target, f.targetObject); err != nil {
		return err
	}

	var resp *app.MatchResponse
	if f.server != "" {
		// Object keys resolve against the server's bucket.
		c, err := newAPIClient(f.server, logger)
		if err != nil {
			return &ExitCodeError{Code: ExitUsage, Err: err}
		}
		if resp, err = c.Match(ctx, &req); err != nil {
			return err
		}
	} else {
		svc, err := localService(cmd, cliCtx, f.queryObject != "" || f.targetObject != "")
		if err != nil {
			return err
		}
		if resp, err = svc.Match(ctx, req); err != nil {
			return err
		}
	}
	logger.Debug("match command finished",
		logging.String(logging.FieldStatus, string(resp.Status)),
		logging.Int("mappings", len(resp.Mappings)))

	if err := render(cmd.OutOrStdout(), f.output, resp); err != nil {
		return err
	}
	if resp.Status == domain.StatusTimedOut {
		return &ExitCodeError{Code: ExitTimedOut}
	}
	return nil
}

func localService(cmd *cobra.Command, cliCtx *CLIContext, needStore bool) (*app.Service, error) {
	deps := app.Deps{Config: cliCtx.Config.Matching, Logger: cliCtx.Logger}
	if needStore {
		if !cliCtx.Config.MinIO.Enabled {
			return nil, &ExitCodeError{Code: ExitUsage, Err: fmt.Errorf("object inputs need minio.enabled in the configuration")}
		}
		client, err := minio.NewClient(cmd.Context(), cliCtx.Config.MinIO, cliCtx.Logger)
		if err != nil {
			return nil, err
		}
		deps.Store = minio.NewMoleculeRepository(client, cliCtx.Logger)
	}
	return app.NewService(deps)
}

func exactlyOne(role, path, object string) error {
	switch {
	case path == "" && object == "":
		return fmt.Errorf("one of --%s or --%s-object is required", role, role)
	case path != "" && object != "":
		return fmt.Errorf("--%s and --%s-object are mutually exclusive", role, role)
	}
	return nil
}

func moleculeInput(stdin io.Reader, path, object string) (app.MoleculeInput, error) {
	if object != "" {
		return app.MoleculeInput{ObjectKey: object}, nil
	}
	var (
		data []byte
		err  error
	)
	if path == stdinPath {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return app.MoleculeInput{}, errors.Wrap(err, errors.ErrCodeMoleculeNotFound, "failed to read molfile").WithDetail(path)
	}
	return app.MoleculeInput{Molfile: string(data)}, nil
}

// optionsInput passes only the flags the user set, so configured defaults
// stay in effect for the rest.
func (f *matchFlags) optionsInput(fl *pflag.FlagSet) app.OptionsInput {
	var in app.OptionsInput
	set := fl.Changed
	if set("mode") {
		in.Mode = &f.mode
	}
	if set("bond-type") {
		in.MatchBondType = &f.bondType
	}
	if set("bond-equivalence") {
		in.BondEquivalence = &f.bondEquivalence
	}
	if set("stereo") {
		in.MatchStereo = &f.stereo
	}
	if set("timeout") {
		in.Timeout = &f.timeout
	}
	if set("limit") {
		in.ResultLimit = &f.limit
	}
	if set("order") {
		in.SortOrder = &f.order
	}
	if set("parallel") {
		in.Parallelism = &f.parallel
	}
	if set("tolerance") {
		in.MCSTolerance = &f.tolerance
	}
	if set("unique") {
		in.UniqueTargets = &f.unique
	}
	return in
}

// ─────────────────────────────────────────────────────────────────────────────
// Rendering
// ─────────────────────────────────────────────────────────────────────────────

func render(w io.Writer, format string, resp *app.MatchResponse) error {
	switch format {
	case outputJSON:
		return printJSON(w, resp)
	case outputText:
		return renderText(w, resp)
	default:
		return renderTable(w, resp)
	}
}

func summary(resp *app.MatchResponse) string {
	s := resp.Stats
	return fmt.Sprintf("status: %s  mode: %s  mappings: %d  query_atoms: %d  target_atoms: %d  states: %d  elapsed: %s",
		resp.Status, resp.Options.Mode, len(resp.Mappings), s.QueryAtoms, s.TargetAtoms, s.StatesExpanded, s.Elapsed)
}

func renderTable(w io.Writer, resp *app.MatchResponse) error {
	rows := make([][]string, len(resp.Mappings))
	for i, m := range resp.Mappings {
		rows[i] = []string{strconv.Itoa(i + 1), strconv.Itoa(m.Size()), formatPairs(m)}
	}
	if _, err := fmt.Fprintln(w, summary(resp)); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	_, err := fmt.Fprint(w, FormatTable([]string{"#", "SIZE", "PAIRS (query:target)"}, rows))
	return err
}

func renderText(w io.Writer, resp *app.MatchResponse) error {
	if _, err := fmt.Fprintln(w, summary(resp)); err != nil {
		return err
	}
	for _, m := range resp.Mappings {
		if _, err := fmt.Fprintln(w, formatPairs(m)); err != nil {
			return err
		}
	}
	return nil
}

func formatPairs(m domain.Mapping) string {
	pairs := m.Pairs()
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = strconv.Itoa(p.Query) + ":" + strconv.Itoa(p.Target)
	}
	return strings.Join(parts, " ")
}

//Personal.AI order the ending
