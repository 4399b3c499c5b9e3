package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Akashdeep-Patra/filegrass/internal/config"
	"github.com/Akashdeep-Patra/filegrass/internal/git"
	"github.com/Akashdeep-Patra/filegrass/internal/history"
	"github.com/Akashdeep-Patra/filegrass/internal/ui"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := buildRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "filegrass",
		Short: "Aggregate a git repository's history into JSON",
		Long: `filegrass walks the history of a git repository and writes one JSON
document describing every commit, every file change and every file.

Commits are listed newest first and numbered so that the oldest one is 1.
Each file change carries its insertions, deletions, blob ids and, for
renames, the source and destination paths.`,
		RunE:          runGenerate,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"filegrass %s\n  commit:  %s\n  built:   %s\n  go:      %s\n  os/arch: %s/%s\n",
		version, commit, date, runtime.Version(), runtime.GOOS, runtime.GOARCH,
	))

	addSourceFlags(rootCmd.PersistentFlags())

	rootCmd.Flags().Bool("pretty", false, "Indent the JSON output")
	rootCmd.Flags().StringP("output", "o", "", "Write the document to a file instead of stdout")
	rootCmd.Flags().Bool("watch", false, "Regenerate the document whenever the repository changes")

	rootCmd.AddCommand(buildSummaryCmd())
	rootCmd.AddCommand(buildVersionCmd())
	rootCmd.AddCommand(buildCompletionCmd())

	return rootCmd
}

// addSourceFlags registers the flags shared by every command that reads
// history.
func addSourceFlags(fs *pflag.FlagSet) {
	fs.StringP("path", "p", ".", "Path to the git repository")
	fs.IntP("count", "n", 0, "Read at most this many commits (0 reads all)")
	fs.String("backend", config.DefaultBackend, "History backend: cli or gogit")
	fs.Int("jobs", 0, "Commits diffed concurrently (0 uses all CPUs)")
	fs.String("merges", config.DefaultMerges, "Merge commits: skip or reject")
	fs.String("log-level", config.DefaultLogLevel, "Log level: debug, info, warn or error")
}

// session is what every history command needs after flag parsing.
type session struct {
	cfg *config.Config
	log *slog.Logger
	src git.Source
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	repoPath, _ := cmd.Flags().GetString("path")
	src, err := openSource(cmd.Context(), repoPath, cfg.Backend)
	if err != nil {
		return nil, fmt.Errorf("opening repository: %w", err)
	}
	logger.Debug("opened repository", "path", repoPath, "backend", cfg.Backend)
	return &session{cfg: cfg, log: logger, src: src}, nil
}

func openSource(ctx context.Context, path, backend string) (git.Source, error) {
	switch backend {
	case config.BackendGoGit:
		return git.NewGoGitService(path)
	default:
		return git.NewCLIService(ctx, path)
	}
}

// aggregate builds the document from src with the session's settings.
func (s *session) aggregate(ctx context.Context, src git.Source) (*history.Document, error) {
	policy, err := history.ParseMergePolicy(s.cfg.Merges)
	if err != nil {
		return nil, err
	}
	return history.NewAggregator(src,
		history.WithLimit(s.cfg.MaxCount),
		history.WithJobs(s.cfg.Jobs),
		history.WithMergePolicy(policy),
		history.WithLogger(s.log),
	).Aggregate(ctx)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		return s.watch(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), output)
	}

	doc, err := s.aggregate(cmd.Context(), s.src)
	if err != nil {
		return err
	}
	_, err = writeDocument(cmd.OutOrStdout(), output, doc, s.cfg.Pretty)
	return err
}

// writeDocument encodes doc as JSON to path, or to w when path is empty or
// "-". It returns the number of bytes written.
func writeDocument(w io.Writer, path string, doc *history.Document, pretty bool) (int, error) {
	var buf []byte
	var err error
	if pretty {
		buf, err = json.MarshalIndent(doc, "", "  ")
	} else {
		buf, err = json.Marshal(doc)
	}
	if err != nil {
		return 0, fmt.Errorf("encoding document: %w", err)
	}
	buf = append(buf, '\n')

	if path == "" || path == "-" {
		n, err := w.Write(buf)
		return n, err
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	return len(buf), nil
}

func buildSummaryCmd() *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print commit and file tables instead of JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			doc, err := s.aggregate(cmd.Context(), s.src)
			if err != nil {
				return err
			}
			return ui.WriteSummary(cmd.OutOrStdout(), doc, ui.SummaryOptions{MaxRows: rows})
		},
	}

	cmd.Flags().IntVar(&rows, "rows", 20, "Rows per table (0 shows all)")

	return cmd
}

func buildVersionCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			info := map[string]string{
				"version": version,
				"commit":  commit,
				"date":    date,
				"go":      runtime.Version(),
				"os":      runtime.GOOS,
				"arch":    runtime.GOARCH,
			}
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			fmt.Fprintf(out, "filegrass %s\n", version)
			fmt.Fprintf(out, "  commit:  %s\n", commit)
			fmt.Fprintf(out, "  built:   %s\n", date)
			fmt.Fprintf(out, "  go:      %s\n", runtime.Version())
			fmt.Fprintf(out, "  os/arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	return cmd
}

// buildCompletionCmd creates the `filegrass completion` subcommand for shell completions.
func buildCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for filegrass.

Examples:
  # Bash (add to ~/.bashrc)
  filegrass completion bash > /etc/bash_completion.d/filegrass

  # Zsh (add to ~/.zshrc before compinit)
  filegrass completion zsh > "${fpath[1]}/_filegrass"

  # Fish
  filegrass completion fish > ~/.config/fish/completions/filegrass.fish

  # PowerShell
  filegrass completion powershell > filegrass.ps1`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}

	return cmd
}
