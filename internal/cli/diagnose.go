package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"OAIHealthCheck/internal/domain"
	"OAIHealthCheck/internal/harvest"
	"OAIHealthCheck/internal/report"
	"OAIHealthCheck/internal/usecase"
)

type diagnoseOptions struct {
	limit              int
	years              []string
	types              []string
	languages          []string
	formats            []string
	missingDescription bool
	missingRights      bool
	confirmID          string
	csvPath            string
	sqlitePath         string
}

func (o diagnoseOptions) filter() domain.FilterSpec {
	return domain.FilterSpec{
		Years:                  domain.NewSet(o.years...),
		Types:                  domain.NewSet(o.types...),
		Languages:              domain.NewSet(o.languages...),
		Formats:                domain.NewSet(o.formats...),
		OnlyMissingDescription: o.missingDescription,
		OnlyMissingRights:      o.missingRights,
	}
}

func newDiagnoseCommand(root *rootOptions) *cobra.Command {
	var opts diagnoseOptions

	cmd := &cobra.Command{
		Use:   "diagnose <endpoint|name>",
		Short: "Harvest a sample and report its metadata quality",
		Long: `Harvest up to --limit records from the endpoint, derive year, format, type
and language, apply the filters and print the health report.

Limits above 5000 require repeating the repository identifier, either with
--confirm-id or at the interactive prompt.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("limit") {
				opts.limit = root.app.Config().Harvest.DefaultLimit
			}
			return runDiagnose(cmd, root, args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "maximum records to harvest (default: harvest.defaultLimit)")
	cmd.Flags().StringVar(&opts.confirmID, "confirm-id", "", "repository identifier confirming a limit above 5000")
	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "also write the filtered records to this CSV file")
	cmd.Flags().StringVar(&opts.sqlitePath, "sqlite", "", "also write the filtered records to this SQLite file")
	addFilterFlags(cmd.Flags(), &opts)

	return cmd
}

func addFilterFlags(f *pflag.FlagSet, opts *diagnoseOptions) {
	f.StringArrayVar(&opts.years, "year", nil, "keep only these years (repeatable)")
	f.StringArrayVar(&opts.types, "type", nil, "keep only these document types (repeatable)")
	f.StringArrayVar(&opts.languages, "lang", nil, "keep only these languages (repeatable)")
	f.StringArrayVar(&opts.formats, "format", nil, "keep only these format categories (repeatable)")
	f.BoolVar(&opts.missingDescription, "missing-description", false, "keep only records without a description")
	f.BoolVar(&opts.missingRights, "missing-rights", false, "keep only records without rights")
}

func runDiagnose(cmd *cobra.Command, root *rootOptions, target string, opts diagnoseOptions) error {
	ctx := cmd.Context()
	a := root.app
	session := a.Session()
	stderr := cmd.ErrOrStderr()
	endpoint := a.Config().ResolveEndpoint(target)

	if _, err := session.Identify(ctx, endpoint); err != nil {
		if harvest.RequiresConfirmation(opts.limit) {
			return err
		}
		a.Logger().Warn("identify failed, harvesting anyway", "endpoint", endpoint, "error", err)
	}

	confirmation, err := confirm(root, session, endpoint, opts, stderr)
	if err != nil {
		return err
	}

	progress := &progressLine{w: stderr}
	res, err := session.Harvest(ctx, usecase.HarvestRequest{
		Endpoint:     endpoint,
		Limit:        opts.limit,
		Confirmation: confirmation,
	}, progress.update)
	progress.finish()
	if err != nil {
		return err
	}
	if res.Cached {
		_, _ = fmt.Fprintln(stderr, "using cached sample")
	}

	spec := opts.filter()
	rep := session.Report(res.Sample, spec, a.ReportOptions())
	if err := report.Render(cmd.OutOrStdout(), rep, root.output); err != nil {
		return err
	}

	if opts.csvPath != "" {
		if err := writeCSVFile(opts.csvPath, func(w io.Writer) error {
			return session.ExportCSV(w, res.Sample, spec)
		}); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stderr, "wrote %s\n", opts.csvPath)
	}
	if opts.sqlitePath != "" {
		if err := session.ExportSnapshot(ctx, opts.sqlitePath, res.Sample, spec); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stderr, "wrote %s\n", opts.sqlitePath)
	}
	return nil
}

// confirm returns the identifier confirmation for large limits, prompting
// when --confirm-id was not given.
func confirm(root *rootOptions, session *usecase.Session, endpoint string, opts diagnoseOptions, w io.Writer) (string, error) {
	if !harvest.RequiresConfirmation(opts.limit) || opts.confirmID != "" {
		return opts.confirmID, nil
	}

	id, ok := session.Identity(endpoint)
	if !ok {
		return "", domain.ErrIdentityRequired
	}
	if !id.RepositoryIdentifier.Present() {
		return "", domain.ErrConfirmationUnavailable
	}

	_, _ = fmt.Fprintf(w, "Harvesting %d records from %s (%s).\n", opts.limit, id.Name, endpoint)
	prompter := root.deps.Prompter
	if prompter == nil {
		prompter = newReadlinePrompter()
	}
	answer, err := prompter.Prompt("Type the repository identifier to confirm: ")
	if err != nil {
		if errors.Is(err, ErrPromptCancelled) {
			return "", fmt.Errorf("harvest not confirmed: %w", domain.ErrConfirmationRequired)
		}
		return "", err
	}
	return answer, nil
}

// progressLine redraws one "harvested n/limit" line on w.
type progressLine struct {
	w      io.Writer
	active bool
}

func (p *progressLine) update(done, limit int) {
	p.active = true
	_, _ = fmt.Fprintf(p.w, "\rharvested %d/%d", done, limit)
}

func (p *progressLine) finish() {
	if p.active {
		_, _ = fmt.Fprintln(p.w)
		p.active = false
	}
}

func writeCSVFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return write(f)
}
