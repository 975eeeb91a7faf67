package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nonibytes/zenscan/pkg/zenscan/criteria"
	"github.com/nonibytes/zenscan/pkg/zenscan/scan"
	"github.com/nonibytes/zenscan/pkg/zenscan/scanlist"
	"github.com/nonibytes/zenscan/pkg/zenscan/wire"
)

type OutputFormat string

const (
	FormatPretty OutputFormat = "pretty"
	FormatJSON   OutputFormat = "json"
)

func ParseOutputFormat(s string) OutputFormat {
	switch OutputFormat(s) {
	case FormatPretty, FormatJSON:
		return OutputFormat(s)
	default:
		return FormatPretty
	}
}

func PrintJSON(w io.Writer, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(b))
}

// PrintOutline writes one line per node, children indented under parents.
func PrintOutline(w io.Writer, n criteria.Node) {
	printOutline(w, n, 0)
}

type fielded interface {
	Field() string
	SubField() string
}

func printOutline(w io.Writer, n criteria.Node, depth int) {
	line := strings.Repeat("  ", depth) + n.Kind().String()
	if f, ok := n.(fielded); ok {
		name := f.Field()
		if sub := f.SubField(); sub != "" {
			name += "/" + sub
		}
		line += " " + name
	}
	fmt.Fprintln(w, line)
	for _, child := range criteria.Children(n) {
		printOutline(w, child, depth+1)
	}
}

// PrintScan writes a descriptor in the requested format.
func PrintScan(w io.Writer, f OutputFormat, d scan.Descriptor) error {
	if f == FormatJSON {
		body, err := scan.Snapshot(d)
		if err != nil {
			return err
		}
		PrintJSON(w, body)
		return nil
	}
	fmt.Fprintf(w, "ID:          %s\n", d.ID)
	fmt.Fprintf(w, "Name:        %s\n", d.Name)
	if d.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", d.Description)
	}
	fmt.Fprintf(w, "Target:      %s %s\n", d.Target.Type, strings.Join(d.Target.List(), ","))
	fmt.Fprintf(w, "Version:     %d (%s)\n", d.Metadata.VersionNumber, d.Metadata.VersionID)
	if d.Metadata.LastSavedTime != nil {
		fmt.Fprintf(w, "Saved:       %s\n", d.Metadata.LastSavedTime.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Active:      %t\n", d.Active)
	if d.MaxMatchCount > 0 {
		fmt.Fprintf(w, "Max matches: %d\n", d.MaxMatchCount)
	}
	if d.Criteria != nil {
		b, err := wire.Marshal(d.Criteria)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Criteria:    %s\n", b)
	}
	if d.Rank != nil {
		b, _ := json.Marshal(wire.EncodeNumeric(d.Rank))
		fmt.Fprintf(w, "Rank:        %s\n", b)
	}
	return nil
}

// PrintScanList writes a table (or JSON array) of descriptors.
func PrintScanList(w io.Writer, f OutputFormat, scans []scan.Descriptor) error {
	if f == FormatJSON {
		out := make([]scan.Wire, 0, len(scans))
		for _, d := range scans {
			body, err := scan.Snapshot(d)
			if err != nil {
				return err
			}
			out = append(out, body)
		}
		PrintJSON(w, out)
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTARGET\tVERSION\tACTIVE")
	for _, d := range scans {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%t\n", d.ID, d.Name, d.Target.Type, d.Metadata.VersionNumber, d.Active)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n--- %d scans ---\n", len(scans))
	return nil
}

func PrintStats(w io.Writer, f OutputFormat, s scanlist.ApplyStats) {
	if f == FormatJSON {
		PrintJSON(w, map[string]int{
			"added":   s.Added,
			"updated": s.Updated,
			"removed": s.Removed,
			"cleared": s.Cleared,
		})
		return
	}
	fmt.Fprintf(w, "added %d, updated %d, removed %d, cleared %d\n", s.Added, s.Updated, s.Removed, s.Cleared)
}
