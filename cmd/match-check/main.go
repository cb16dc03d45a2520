// Command match-check classifies a saved email or a single attachment
// against a profile without touching any watcher state.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/mikey/shortlist-watcher/internal/attachments"
	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/mikey/shortlist-watcher/internal/di"
	"github.com/mikey/shortlist-watcher/internal/mailparse"
	"github.com/mikey/shortlist-watcher/internal/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

var (
	flags   = &di.CLIFlags{}
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "match-check [file.eml]",
	Short: "Classify a saved email against a profile",
	Long: `match-check reads an RFC 5322 message from a file or stdin and prints the
header, content, attachment and fused verdicts for the given profile.

Examples:
  # Check a saved message against the configured profile
  match-check shortlist.eml

  # Override the profile on the command line
  match-check --name "Krish Verma" --reg 22BCE2382 < shortlist.eml`,
	Args:    cobra.MaximumNArgs(1),
	Version: version,
	RunE:    runCheck,
}

var scanCmd = &cobra.Command{
	Use:   "scan <file>",
	Short: "Classify a single attachment file (csv, xlsx, pdf, txt)",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.Name, "name", "", "profile name")
	pf.StringVar(&flags.RegistrationNumber, "reg", "", "profile registration number")
	pf.StringSliceVar(&flags.Emails, "email", nil, "profile email addresses (primary first)")
	pf.StringVar(&flags.ProfileFile, "profile", "", "path to a profile JSON file")
	pf.Float64Var(&flags.Threshold, "threshold", 0, "name overlap threshold for attachment matching")
	pf.BoolVar(&flags.NoEmailSignals, "no-email-signals", false, "do not count email addresses as identity signals")
	pf.StringSliceVar(&flags.Trusted, "trusted", nil, "trusted sender addresses or domains")
	pf.BoolVar(&flags.GateAttachment, "gate-attachments", false, "skip attachments from untrusted senders")
	pf.BoolVar(&flags.Verbose, "verbose", false, "enable verbose logging")
	pf.BoolVar(&flags.JSONLog, "json-log", false, "output logs in JSON format")
	pf.StringVar(&flags.ConfigFile, "config", "", "path to config file (overrides matching flags)")

	rootCmd.AddCommand(scanCmd)
}

type checkDeps struct {
	dig.In

	Profile   core.Profile
	Evaluator *pipeline.Evaluator
	Scanner   *attachments.Scanner
	Logger    *zap.Logger
}

func withDeps(fn func(checkDeps) error) error {
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}
	return container.Invoke(func(d checkDeps) error {
		defer d.Logger.Sync()
		if d.Profile.IsEmpty() {
			return fmt.Errorf("profile is empty: pass --name/--reg/--email or --profile")
		}
		return fn(d)
	})
}

func runCheck(cmd *cobra.Command, args []string) error {
	var r io.Reader = os.Stdin
	id := "stdin"
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer f.Close()
		r, id = f, filepath.Base(args[0])
	}

	msg, err := mailparse.Parse(id, r)
	if err != nil {
		return err
	}

	return withDeps(func(d checkDeps) error {
		ev := d.Evaluator.Evaluate(context.Background(), d.Profile, msg, nil, nil)
		return printJSON(cmd.OutOrStdout(), ev)
	})
}

func runScan(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	blob := core.AttachmentBlob{
		Filename: filepath.Base(args[0]),
		MIMEType: mime.TypeByExtension(filepath.Ext(args[0])),
		Data:     data,
	}

	return withDeps(func(d checkDeps) error {
		return printJSON(cmd.OutOrStdout(), d.Scanner.ScanBlob(d.Profile, blob))
	})
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
