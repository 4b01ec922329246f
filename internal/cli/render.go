package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lifenjoy/campaigns/pkg/campaign_blocks"
	"github.com/lifenjoy/campaigns/pkg/campaign_page"
)

// NewRenderCmd creates the render command
func NewRenderCmd() *cobra.Command {
	var (
		output      string
		title       string
		description string
		imageURL    string
		fragment    bool
		blockID     string
	)

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a campaign document to HTML",
		Long: `Render a stored blocks payload as the public page.

Images stored in the bucket render as placeholders since no storage is
configured. Use --fragment to print only the document body, or --block to
print a single block.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}

			renderer := campaign_blocks.NewRenderer(nil)
			sections := campaign_blocks.Normalize(raw)
			if blockID != "" {
				block, ok := campaign_blocks.FindBlock(sections, blockID)
				if !ok {
					return fmt.Errorf("block %s not found", blockID)
				}
				return writeOutput(cmd, output, []byte(renderer.RenderBlock(cmd.Context(), block)+"\n"))
			}

			body := renderer.Render(cmd.Context(), sections, campaign_blocks.PublicMode)
			if fragment {
				return writeOutput(cmd, output, []byte(body+"\n"))
			}

			if title == "" {
				title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}

			pages, err := campaign_page.NewRenderer()
			if err != nil {
				return err
			}
			html, err := pages.Render(campaign_page.Page{
				Title:       title,
				Description: description,
				ImageURL:    imageURL,
				Body:        body,
			})
			if err != nil {
				return fmt.Errorf("failed to render page: %w", err)
			}
			return writeOutput(cmd, output, []byte(html))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the page to a file instead of stdout")
	cmd.Flags().StringVar(&title, "title", "", "page title (defaults to the file name)")
	cmd.Flags().StringVar(&description, "description", "", "og:description of the page")
	cmd.Flags().StringVar(&imageURL, "image", "", "og:image URL of the page")
	cmd.Flags().BoolVar(&fragment, "fragment", false, "print the document body only")
	cmd.Flags().StringVar(&blockID, "block", "", "print the markup of one block by id")
	return cmd
}
