package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/saworbit/scratchfile/internal/logging"
	"github.com/saworbit/scratchfile/internal/metrics"
	"github.com/saworbit/scratchfile/internal/version"
	"github.com/saworbit/scratchfile/pkg/config"
	"github.com/saworbit/scratchfile/pkg/digest"
	"github.com/saworbit/scratchfile/pkg/history"
	"github.com/saworbit/scratchfile/pkg/pack"
	"github.com/saworbit/scratchfile/pkg/scratch"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := execute(&app{}, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// app carries state shared by every subcommand for one invocation.
type app struct {
	configPath string
	flags      flagOverrides

	cfg    *config.Config
	logger *zap.Logger
}

// flagOverrides hold values that win over file and env config when set.
type flagOverrides struct {
	logLevel        string
	stateDir        string
	metricsTextfile string
	hashAlgo        string
	strict          bool
}

func execute(a *app, args []string, stdout, stderr io.Writer) error {
	if args == nil {
		// cobra falls back to os.Args when handed nil
		args = []string{}
	}

	root := a.newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	a.finish()
	return err
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "scratchfile",
		Short:        "Write the decimal text of 0 through 999999 to ./scratch",
		Version:      version.Version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWrite()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&a.flags.stateDir, "state-dir", "", "Directory where run history is stored")
	pf.StringVar(&a.flags.metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file on exit")
	pf.StringVar(&a.flags.hashAlgo, "hash-algo", "", "Digest hash: sha256 or blake3")
	root.Flags().BoolVar(&a.flags.strict, "strict", false, "Exit non-zero when the write fails")

	root.AddCommand(
		a.newWriteCmd(),
		a.newVerifyCmd(),
		a.newDigestCmd(),
		a.newPackCmd(),
		a.newHistoryCmd(),
	)
	return root
}

func (a *app) newWriteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Create or truncate ./scratch and write the sequence into it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWrite()
		},
	}

	cmd.Flags().BoolVar(&a.flags.strict, "strict", false, "Exit non-zero when the write fails")
	return cmd
}

func (a *app) newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [path]",
		Short: "Check that a scratch file (plain, .zst or .xz) holds exactly the sequence",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runVerify(cmd.OutOrStdout(), pathArg(args))
		},
	}
}

func (a *app) newDigestCmd() *cobra.Command {
	var expectRoot string

	cmd := &cobra.Command{
		Use:   "digest [path]",
		Short: "Print the content identifier and Merkle root of a scratch file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDigest(cmd.OutOrStdout(), pathArg(args), expectRoot)
		},
	}

	cmd.Flags().StringVar(&expectRoot, "expect-root", "", "Fail unless the Merkle root equals this hex value")
	return cmd
}

func (a *app) newPackCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "pack [path]",
		Short: "Compress a scratch file to path.zst or path.xz",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("format") {
				format = a.cfg.PackFormat
			}
			return a.runPack(cmd.OutOrStdout(), pathArg(args), format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "Compression format: zstd or xz")
	return cmd
}

func (a *app) newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded write runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHistory(cmd.OutOrStdout(), limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list (0 for all)")
	return cmd
}

// setup resolves configuration (defaults, file, env, then flags) and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.flags.logLevel
	}
	if flags.Changed("state-dir") {
		cfg.StateDir = a.flags.stateDir
	}
	if flags.Changed("metrics-textfile") {
		cfg.MetricsTextfile = a.flags.metricsTextfile
	}
	if flags.Changed("hash-algo") {
		cfg.HashAlgo = a.flags.hashAlgo
	}
	if flags.Changed("strict") {
		cfg.StrictExit = a.flags.strict
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	if a.logger == nil {
		logger, err := logging.New(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		a.logger = logger
	}

	metrics.SetBuildInfo(version.Version)
	return nil
}

// finish exports metrics and flushes the logger; it runs after every command,
// including failed ones.
func (a *app) finish() {
	if a.logger == nil {
		return
	}
	if a.cfg != nil && a.cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(a.cfg.MetricsTextfile); err != nil {
			a.logger.Warn("metrics export failed", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// runWrite performs the scratch write. A failure is logged with its full cause
// chain and, unless strict exit is configured, does not fail the command.
func (a *app) runWrite() error {
	start := time.Now()
	res, err := scratch.NewWriter(a.logger).Run()
	if err != nil {
		return a.writeFailed(start, res, err)
	}

	metrics.ObserveWrite(start, "", res.Bytes, res.Values)
	a.logger.Info("scratch file written",
		zap.String("path", res.Path),
		zap.Int("values", res.Values),
		zap.Int64("bytes", res.Bytes),
		zap.Duration("duration", res.Duration),
	)

	a.recordSuccess(res)
	return nil
}

func (a *app) writeFailed(start time.Time, res scratch.Result, err error) error {
	op := "unknown"
	fields := []zap.Field{
		zap.String("path", res.Path),
		zap.Int("values", res.Values),
		zap.Int64("bytes", res.Bytes),
	}

	var ioErr *scratch.IOError
	if errors.As(err, &ioErr) {
		op = string(ioErr.Op)
		if ioErr.Op == scratch.OpOpen && errors.Is(err, fs.ErrPermission) {
			if hint := writeDenialHint(filepath.Dir(ioErr.Path)); hint != "" {
				fields = append(fields, zap.String("hint", hint))
			}
		}
	}
	fields = append(fields, zap.String("op", op), zap.Error(err))

	metrics.ObserveWrite(start, op, res.Bytes, res.Values)
	a.logger.Error("scratch write failed", fields...)

	a.record(history.Run{
		Outcome: history.OutcomeError,
		Bytes:   res.Bytes,
		Values:  res.Values,
		Error:   err.Error(),
	})

	if a.cfg.StrictExit {
		return err
	}
	return nil
}

// recordSuccess digests the new file and stores the run, warning when the
// content differs from the previous successful run.
func (a *app) recordSuccess(res scratch.Result) {
	if !a.cfg.HistoryEnabled() {
		return
	}

	d, err := digest.New(a.cfg.HashAlgo, a.cfg.LeafSizeBytes())
	if err != nil {
		a.logger.Warn("history skipped", zap.Error(err))
		return
	}
	dg, err := d.File(res.Path)
	if err != nil {
		a.logger.Warn("history skipped", zap.Error(err))
		return
	}

	a.record(history.Run{
		Outcome: history.OutcomeSuccess,
		Bytes:   res.Bytes,
		Values:  res.Values,
		CID:     dg.CID,
		Root:    dg.RootHex(),
	})
}

// record stores a run when history is enabled. History problems are logged
// and never change the outcome of the write itself.
func (a *app) record(run history.Run) {
	if !a.cfg.HistoryEnabled() {
		return
	}

	store, err := history.Open(a.cfg.StateDir)
	if err != nil {
		a.logger.Warn("history unavailable", zap.String("state_dir", a.cfg.StateDir), zap.Error(err))
		return
	}
	defer store.Close()

	if run.Outcome == history.OutcomeSuccess {
		prev, ok, err := store.LastSuccess()
		switch {
		case err != nil:
			a.logger.Warn("history lookup failed", zap.Error(err))
		case ok && prev.CID != run.CID:
			a.logger.Warn("scratch content differs from previous run",
				zap.String("previous_cid", prev.CID),
				zap.String("previous_run", prev.ID),
				zap.String("cid", run.CID),
			)
		}
	}

	run, err = store.Record(run)
	if err != nil {
		a.logger.Warn("history record failed", zap.Error(err))
		return
	}
	a.logger.Debug("run recorded", zap.String("id", run.ID), zap.String("outcome", run.Outcome))

	if n, err := store.Count(); err == nil {
		metrics.SetHistoryRuns(n)
	}
}

func (a *app) runVerify(out io.Writer, path string) error {
	r, err := pack.Open(path)
	if err != nil {
		metrics.ObserveVerify("error")
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()

	rep, err := scratch.Verify(r, scratch.Count)
	metrics.ObserveVerify(verifyOutcome(err))
	if err != nil {
		a.logger.Error("scratch verification failed",
			zap.String("path", path),
			zap.Int("values", rep.Values),
			zap.Int64("offset", rep.Bytes),
			zap.Error(err),
		)
		return fmt.Errorf("verify %s: %w", path, err)
	}

	fmt.Fprintf(out, "%s: ok, %d values, %d bytes\n", path, rep.Values, rep.Bytes)
	return nil
}

func verifyOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, scratch.ErrTruncated):
		return "truncated"
	case errors.Is(err, scratch.ErrMismatch):
		return "mismatch"
	case errors.Is(err, scratch.ErrTrailingData):
		return "trailing"
	default:
		return "error"
	}
}

func (a *app) runDigest(out io.Writer, path, expectRoot string) error {
	d, err := digest.New(a.cfg.HashAlgo, a.cfg.LeafSizeBytes())
	if err != nil {
		return err
	}

	dg, err := d.File(path)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "path\t%s\n", dg.Path)
	fmt.Fprintf(tw, "size\t%d\n", dg.Size)
	fmt.Fprintf(tw, "cid\t%s\n", dg.CID)
	fmt.Fprintf(tw, "merkle_root\t%s\n", dg.RootHex())
	fmt.Fprintf(tw, "leaves\t%d\n", len(dg.Leaves))
	if err := tw.Flush(); err != nil {
		return err
	}

	if expectRoot == "" {
		return nil
	}
	if err := digest.VerifyRoot(dg, expectRoot); err != nil {
		return err
	}
	fmt.Fprintln(out, "root matches")
	return nil
}

func (a *app) runPack(out io.Writer, path, format string) error {
	start := time.Now()
	stats, err := pack.File(path, format)
	if err != nil {
		return err
	}

	metrics.ObservePack(start, stats.Format, stats.InBytes, stats.OutBytes)
	a.logger.Info("scratch file packed",
		zap.String("source", stats.Source),
		zap.String("dest", stats.Dest),
		zap.String("format", stats.Format),
		zap.Int64("in_bytes", stats.InBytes),
		zap.Int64("out_bytes", stats.OutBytes),
	)

	fmt.Fprintf(out, "%s -> %s (%s): %d -> %d bytes, ratio %.4f\n",
		stats.Source, stats.Dest, stats.Format, stats.InBytes, stats.OutBytes, stats.Ratio())
	return nil
}

func (a *app) runHistory(out io.Writer, limit int) error {
	if !a.cfg.HistoryEnabled() {
		return fmt.Errorf("history requires --state-dir or SCRATCH_STATE_DIR")
	}

	store, err := history.Open(a.cfg.StateDir)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tOUTCOME\tBYTES\tDETAIL\tID")
	for _, run := range runs {
		detail := run.CID
		if run.Outcome != history.OutcomeSuccess {
			detail = run.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			run.Time().UTC().Format(time.RFC3339), run.Outcome, run.Bytes, detail, run.ID)
	}
	return tw.Flush()
}

func pathArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return scratch.FileName
}
