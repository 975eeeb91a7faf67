package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nonibytes/zenscan/pkg/zenscan/criteria"
	"github.com/nonibytes/zenscan/pkg/zenscan/wire"
)

func newCriteriaCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "criteria",
		Short: "Inspect criteria tuples offline",
	}
	cmd.AddCommand(newCriteriaDecodeCommand(a), newCriteriaEncodeCommand(a))
	return cmd
}

func criteriaArg(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}

func newCriteriaDecodeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "decode [tuple|@file|-]",
		Short: "Decode a criteria tuple and print its structure",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := ResolveInput(criteriaArg(args), a.stdin)
			if err != nil {
				return err
			}
			node, err := wire.Unmarshal(data)
			if err != nil {
				return err
			}
			if a.format() == FormatJSON {
				PrintJSON(a.stdout, map[string]any{
					"kind":     node.Kind().String(),
					"category": node.Kind().Category().String(),
					"fields":   criteria.Fields(node),
				})
				return nil
			}
			PrintOutline(a.stdout, node)
			return nil
		},
	}
}

func newCriteriaEncodeCommand(a *app) *cobra.Command {
	var indent bool
	cmd := &cobra.Command{
		Use:   "encode [tuple|@file|-]",
		Short: "Decode then re-encode a criteria tuple in canonical form",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := ResolveInput(criteriaArg(args), a.stdin)
			if err != nil {
				return err
			}
			node, err := wire.Unmarshal(data)
			if err != nil {
				return err
			}
			if indent {
				PrintJSON(a.stdout, wire.Encode(node))
				return nil
			}
			out, err := json.Marshal(wire.Encode(node))
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, string(out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&indent, "indent", false, "indent the output")
	return cmd
}
