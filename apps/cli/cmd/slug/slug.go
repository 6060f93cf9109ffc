package slug

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cardledger/cardledger/platform/go/slugparse"
)

// Command groups slug inspection helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slug",
		Short: "Slug decomposition helpers",
	}

	cmd.AddCommand(decomposeCommand())
	return cmd
}

func decomposeCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "decompose <slug>...",
		Short: "Split card slugs into card number and player slug",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine := slugparse.New(slugparse.Default())

			for _, raw := range args {
				d := engine.Decompose(strings.ToLower(strings.TrimSpace(raw)))

				if asJSON {
					out, err := json.Marshal(struct {
						Slug       string `json:"slug"`
						CardNumber string `json:"cardNumber"`
						PlayerSlug string `json:"playerSlug"`
					}{Slug: raw, CardNumber: d.CardNumber, PlayerSlug: d.PlayerSlug})
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), string(out))
					continue
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s\tcardNumber=%s\tplayerSlug=%s\n", raw, d.CardNumber, d.PlayerSlug)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit one JSON object per slug")

	return cmd
}
