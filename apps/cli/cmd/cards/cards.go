package cards

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	cardsrepo "github.com/cardledger/cardledger/domains/cards/be/repo"
	cardsservice "github.com/cardledger/cardledger/domains/cards/be/service"
	"github.com/cardledger/cardledger/platform/go/persistence"
	"github.com/cardledger/cardledger/platform/go/requesttrace"
	"github.com/cardledger/cardledger/platform/go/slugparse"
)

// Command groups catalog card helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cards",
		Short: "Catalog card helpers (checklist import)",
	}

	cmd.AddCommand(importCommand())
	return cmd
}

// Checklist CSV columns: cardNumber, playerName, teamAbbr, attributes (JSON, optional).
// The first row is treated as a header when it starts with "cardNumber".
func importCommand() *cobra.Command {
	var (
		databaseURL string
		filePath    string
		setName     string
		dryRun      bool
	)

	c := &cobra.Command{
		Use:   "import",
		Short: "Import a set checklist CSV into the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			rows, err := readChecklist(filePath)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				return errors.New("checklist contains no rows")
			}

			if dryRun {
				engine := slugparse.New(slugparse.Default())
				for _, row := range rows {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", row.cardNumber, row.playerName, engine.Decompose(strings.ToLower(row.cardNumber)).CardNumber)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "dry run: %d rows parsed\n", len(rows))
				return nil
			}

			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL})
			if err != nil {
				return fmt.Errorf("init pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			cardStore, err := persistence.NewCardStore(ctx, pool)
			if err != nil {
				return fmt.Errorf("init card store: %w", err)
			}

			svc := cardsservice.New(
				cardsrepo.NewPostgresRepository(cardStore),
				slugparse.New(slugparse.Default()),
				persistence.NewAttributeValidator(),
				nil,
			)

			audit := requesttrace.System("cli-import")

			imported := 0
			skipped := 0
			for _, row := range rows {
				var teamAbbr *string
				if row.teamAbbr != "" {
					teamAbbr = &row.teamAbbr
				}

				_, err := svc.Create(ctx, audit, cardsservice.CreateInput{
					SetName:    setName,
					CardNumber: row.cardNumber,
					PlayerName: row.playerName,
					TeamAbbr:   teamAbbr,
					Attributes: row.attributes,
				})
				switch {
				case err == nil:
					imported++
				case errors.Is(err, cardsservice.ErrConflict):
					skipped++
				default:
					return fmt.Errorf("import %s: %w", row.cardNumber, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d cards, skipped %d duplicates\n", imported, skipped)
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "postgres connection string")
	c.Flags().StringVar(&filePath, "file", "", "checklist CSV file")
	c.Flags().StringVar(&setName, "set", "", "set name for every imported card")
	c.Flags().BoolVar(&dryRun, "dry-run", false, "parse and print without writing")

	_ = c.MarkFlagRequired("file")
	_ = c.MarkFlagRequired("set")

	return c
}

type checklistRow struct {
	cardNumber string
	playerName string
	teamAbbr   string
	attributes []byte
}

func readChecklist(path string) ([]checklistRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open checklist: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var rows []checklistRow
	first := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read checklist: %w", err)
		}

		if first {
			first = false
			if len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "cardNumber") {
				continue
			}
		}

		if len(record) < 1 || strings.TrimSpace(record[0]) == "" {
			continue
		}

		row := checklistRow{cardNumber: strings.TrimSpace(record[0])}
		if len(record) > 1 {
			row.playerName = strings.TrimSpace(record[1])
		}
		if len(record) > 2 {
			row.teamAbbr = strings.ToLower(strings.TrimSpace(record[2]))
		}
		if len(record) > 3 && strings.TrimSpace(record[3]) != "" {
			raw := strings.TrimSpace(record[3])
			if !json.Valid([]byte(raw)) {
				return nil, fmt.Errorf("row %s: attributes column is not valid JSON", row.cardNumber)
			}
			row.attributes = []byte(raw)
		}

		rows = append(rows, row)
	}

	return rows, nil
}
