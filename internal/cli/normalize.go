package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lifenjoy/campaigns/pkg/campaign_blocks"
)

// NewNormalizeCmd creates the normalize command
func NewNormalizeCmd() *cobra.Command {
	var (
		output  string
		compact bool
	)

	cmd := &cobra.Command{
		Use:   "normalize <file>",
		Short: "Convert a campaign document to the section shape",
		Long: `Read a stored blocks payload and print it in the current section shape.

Legacy flat block lists are wrapped in a single section. Use "-" to read
from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}

			if campaign_blocks.IsLegacy(raw) {
				fmt.Fprintln(cmd.ErrOrStderr(), "legacy block list wrapped in a section")
			}

			data, err := campaign_blocks.Marshal(campaign_blocks.Normalize(raw))
			if err != nil {
				return fmt.Errorf("failed to serialize document: %w", err)
			}

			if !compact {
				var indented bytes.Buffer
				if err := json.Indent(&indented, data, "", "  "); err != nil {
					return err
				}
				data = indented.Bytes()
			}
			return writeOutput(cmd, output, append(data, '\n'))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the document to a file instead of stdout")
	cmd.Flags().BoolVar(&compact, "compact", false, "print without indentation")
	return cmd
}
