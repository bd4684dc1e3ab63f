package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbourn/welder-tracker/internal/app"
	"github.com/tbourn/welder-tracker/internal/utils"
)

func newWelderCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "welder",
		Short: "Manage welders",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add NAME",
			Short: "Register a welder",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(g, func(cmd *cobra.Command, args []string, a *app.App) error {
				w, err := a.Welders.Add(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "welder %d: %s\n", w.ID, w.Name)
				return err
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List welders",
			Args:  cobra.NoArgs,
			RunE: withApp(g, func(cmd *cobra.Command, _ []string, a *app.App) error {
				list, err := a.Welders.List(cmd.Context())
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tNAME\tADDED")
				for _, w := range list {
					fmt.Fprintf(tw, "%d\t%s\t%s\n", w.ID, w.Name, stamp(w.CreatedAt, a.Calendar.Location))
				}
				return tw.Flush()
			}),
		},
		&cobra.Command{
			Use:   "show ID",
			Short: "Show a welder's card grouped by month and article",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(g, func(cmd *cobra.Command, args []string, a *app.App) error {
				id, err := utils.ParseID(args[0])
				if err != nil {
					return err
				}
				card, err := a.Records.WelderCard(cmd.Context(), id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (#%d)\n", card.Welder.Name, card.Welder.ID)
				if len(card.Months) == 0 {
					_, err = fmt.Fprintln(out, "no records")
					return err
				}
				tw := newTable(out)
				for _, m := range card.Months {
					fmt.Fprintf(tw, "%s\t\t\t\n", m.Label)
					for _, art := range m.Articles {
						fmt.Fprintf(tw, "\t%s\t%s\t%s\n", art.Article, qty(art.Quantity), stamp(art.LatestAt, a.Calendar.Location))
					}
				}
				return tw.Flush()
			}),
		},
	)
	return cmd
}
