package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pantheon-hub/underliv/internal/domain/garment"
	"github.com/pantheon-hub/underliv/pkg/timeutil"
)

func (c *cli) addCmd() *cobra.Command {
	var (
		color        string
		material     string
		customWashes int
		accessories  []string
		purchased    string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a garment to the drawer",
		Example: `  underliv add "Lucky boxers" --material cotton
  underliv add "Space briefs" --material custom --washes 150 --accessory cape`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft := garment.Draft{
				Name:         args[0],
				Color:        color,
				Material:     garment.Material(material),
				CustomWashes: customWashes,
				Accessories:  accessories,
				PurchaseDate: timeutil.StartOfDay(c.env.clock()),
			}
			if purchased != "" {
				d, err := timeutil.ParseDate(purchased)
				if err != nil {
					return fmt.Errorf("--purchased must be YYYY-MM-DD: %w", err)
				}
				draft.PurchaseDate = d
			}

			return c.run(cmd, func(ctx context.Context, col collection) error {
				g, err := col.Add(ctx, draft)
				if err != nil {
					return err
				}
				if c.asJSON {
					return writeJSON(c.env.out, g)
				}
				printGarment(c.env.out, "Added", g)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&color, "color", garment.DefaultColor, "display color (hex)")
	f.StringVarP(&material, "material", "m", string(garment.MaterialCotton), "one of: "+materialNames())
	f.IntVar(&customWashes, "washes", 0, "expected washes for custom material (0 means 100)")
	f.StringSliceVar(&accessories, "accessory", nil, "accessory label, repeatable")
	f.StringVar(&purchased, "purchased", "", "purchase date YYYY-MM-DD (default today)")
	return cmd
}

func materialNames() string {
	names := make([]string, 0, len(garment.Materials()))
	for _, m := range garment.Materials() {
		names = append(names, string(m))
	}
	return strings.Join(names, ", ")
}

func (c *cli) listCmd() *cobra.Command {
	var activeOnly bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List garments in the drawer",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, col collection) error {
				items, err := col.List(ctx)
				if err != nil {
					return err
				}
				if activeOnly {
					active := items[:0]
					for _, g := range items {
						if g.IsActive() {
							active = append(active, g)
						}
					}
					items = active
				}
				if c.asJSON {
					return writeJSON(c.env.out, items)
				}
				return printGarments(c.env.out, items, c.env.clock())
			})
		},
	}
	cmd.Flags().BoolVar(&activeOnly, "active", false, "hide retired garments")
	return cmd
}

type washOutput struct {
	Garment  garment.Garment       `json:"garment"`
	Unlocked []garment.Achievement `json:"unlocked"`
}

func (c *cli) washCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wash <id>",
		Short: "Record one wash",
		Long:  "Record one wash. The id may be shortened to any unique prefix.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, col collection) error {
				res, err := col.Wash(ctx, args[0])
				if err != nil {
					return err
				}
				if c.asJSON {
					return writeJSON(c.env.out, washOutput{Garment: res.Garment, Unlocked: res.Unlocked})
				}
				printWash(c.env.out, res)
				return nil
			})
		},
	}
}

func (c *cli) retireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retire <id>",
		Short: "Retire a garment for good",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, col collection) error {
				g, changed, err := col.Retire(ctx, args[0])
				if err != nil {
					return err
				}
				if c.asJSON {
					return writeJSON(c.env.out, g)
				}
				if !changed {
					fmt.Fprintf(c.env.out, "%s is already retired\n", g.Name)
					return nil
				}
				printGarment(c.env.out, "Retired", g)
				fmt.Fprintf(c.env.out, "It survived %d washes.\n", g.WashCount)
				return nil
			})
		},
	}
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a garment and its history",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, col collection) error {
				if err := col.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(c.env.out, okStyle.Render("Deleted"))
				return nil
			})
		},
	}
}

func (c *cli) leaderboardCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "leaderboard",
		Aliases: []string{"top"},
		Short:   "Show the hall of fame across all users",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit cannot be negative")
			}
			return c.run(cmd, func(ctx context.Context, col collection) error {
				board, err := col.Leaderboard(ctx, limit)
				if err != nil {
					return err
				}
				if c.asJSON {
					return writeJSON(c.env.out, board)
				}
				return printBoard(c.env.out, board)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "entries per ranking (0 uses the configured default)")
	return cmd
}

func (c *cli) achievementsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "achievements [id]",
		Short: "Show the achievement catalog, or one garment's achievements",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, col collection) error {
				if len(args) == 0 {
					catalog, err := col.Achievements(ctx)
					if err != nil {
						return err
					}
					if c.asJSON {
						return writeJSON(c.env.out, catalog)
					}
					return printCatalog(c.env.out, catalog)
				}

				items, err := col.List(ctx)
				if err != nil {
					return err
				}
				g, err := resolveID(items, args[0])
				if err != nil {
					return err
				}
				if c.asJSON {
					return writeJSON(c.env.out, g.Achievements)
				}
				printGarmentAchievements(c.env.out, g)
				return nil
			})
		},
	}
}
