package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nonibytes/zenscan/pkg/zenscan/message"
	"github.com/nonibytes/zenscan/pkg/zenscan/scan"
)

func newScanCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Create, query, update, delete or execute scans on the server",
	}
	cmd.AddCommand(
		newScanCreateCommand(a),
		newScanQueryCommand(a),
		newScanUpdateCommand(a),
		newScanDeleteCommand(a),
		newScanExecuteCommand(a),
	)
	return cmd
}

// scanFlags are shared by create, update and execute.
type scanFlags struct {
	name        string
	description string
	criteria    string
	rank        string
	symbols     []string
	markets     []string
	maxMatches  int
	active      bool
}

func (f *scanFlags) bind(cmd *cobra.Command, withDefinition bool) {
	fs := cmd.Flags()
	if withDefinition {
		fs.StringVar(&f.name, "name", "", "scan name")
		fs.StringVar(&f.description, "description", "", "scan description")
		fs.BoolVar(&f.active, "active", false, "mark the scan active")
	}
	fs.StringVar(&f.criteria, "criteria", "", "criteria tuple, @file or - for stdin")
	fs.StringVar(&f.rank, "rank", "", "rank expression tuple or @file")
	fs.StringSliceVar(&f.symbols, "symbols", nil, "target symbols")
	fs.StringSliceVar(&f.markets, "markets", nil, "target markets")
	fs.IntVar(&f.maxMatches, "max-matches", 0, "maximum match count (0 for server default)")
}

func newScanCreateCommand(a *app) *cobra.Command {
	var f scanFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Save a new scan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.name == "" {
				return fmt.Errorf("--name is required")
			}
			crit, err := ResolveCriteria(f.criteria, a.stdin)
			if err != nil {
				return err
			}
			rank, err := ResolveRank(f.rank, a.stdin)
			if err != nil {
				return err
			}
			target, err := ResolveTarget(f.symbols, f.markets)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client, err := a.openClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			id, err := client.CreateScan(ctx, message.CreateScanDefinition{
				Name:          f.name,
				Description:   f.description,
				Criteria:      crit,
				Target:        target,
				Rank:          rank,
				MaxMatchCount: f.maxMatches,
				Active:        f.active,
			})
			if err != nil {
				return err
			}
			if a.format() == FormatJSON {
				PrintJSON(a.stdout, map[string]string{"ScanID": id})
				return nil
			}
			fmt.Fprintf(a.stdout, "Created scan: %s\n", id)
			return nil
		},
	}
	f.bind(cmd, true)
	return cmd
}

func newScanQueryCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "query <scan-id>",
		Short: "Fetch one scan with its criteria",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := a.openClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			d, err := client.QueryScan(ctx, args[0])
			if err != nil {
				return err
			}
			return PrintScan(a.stdout, a.format(), d)
		},
	}
}

func newScanUpdateCommand(a *app) *cobra.Command {
	var f scanFlags
	cmd := &cobra.Command{
		Use:   "update <scan-id>",
		Short: "Save a new version of a scan; unset flags keep the current values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := a.openClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			d, err := client.QueryScan(ctx, args[0])
			if err != nil {
				return err
			}
			if err := f.applyTo(cmd, a, &d); err != nil {
				return err
			}
			saved, err := client.UpdateScan(ctx, d)
			if err != nil {
				return err
			}
			if a.format() == FormatJSON {
				return PrintScan(a.stdout, a.format(), saved)
			}
			fmt.Fprintf(a.stdout, "Updated scan %s to version %d\n", saved.ID, saved.Metadata.VersionNumber)
			return nil
		},
	}
	f.bind(cmd, true)
	return cmd
}

// applyTo overwrites the fields of d whose flags were set.
func (f *scanFlags) applyTo(cmd *cobra.Command, a *app, d *scan.Descriptor) error {
	fs := cmd.Flags()
	if fs.Changed("name") {
		d.Name = f.name
	}
	if fs.Changed("description") {
		d.Description = f.description
	}
	if fs.Changed("active") {
		d.Active = f.active
	}
	if fs.Changed("max-matches") {
		d.MaxMatchCount = f.maxMatches
	}
	if fs.Changed("criteria") {
		crit, err := ResolveCriteria(f.criteria, a.stdin)
		if err != nil {
			return err
		}
		d.Criteria = crit
	}
	if fs.Changed("rank") {
		rank, err := ResolveRank(f.rank, a.stdin)
		if err != nil {
			return err
		}
		d.Rank = rank
	}
	if fs.Changed("symbols") || fs.Changed("markets") {
		target, err := ResolveTarget(f.symbols, f.markets)
		if err != nil {
			return err
		}
		d.Target = target
	}
	return nil
}

func newScanDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <scan-id>",
		Short: "Delete a saved scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := a.openClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.DeleteScan(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Deleted: %s\n", args[0])
			return nil
		},
	}
}

func newScanExecuteCommand(a *app) *cobra.Command {
	var f scanFlags
	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Run criteria once without saving a scan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			crit, err := ResolveCriteria(f.criteria, a.stdin)
			if err != nil {
				return err
			}
			rank, err := ResolveRank(f.rank, a.stdin)
			if err != nil {
				return err
			}
			target, err := ResolveTarget(f.symbols, f.markets)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client, err := a.openClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			err = client.ExecuteScan(ctx, message.ExecuteScanDefinition{
				Criteria:      crit,
				Target:        target,
				Rank:          rank,
				MaxMatchCount: f.maxMatches,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "Execution requested")
			return nil
		},
	}
	f.bind(cmd, false)
	return cmd
}
