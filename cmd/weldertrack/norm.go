package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbourn/welder-tracker/internal/app"
	"github.com/tbourn/welder-tracker/internal/domain"
)

func newNormCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "norm",
		Short: "Manage the article catalogue",
	}
	printNorms := func(cmd *cobra.Command, list []domain.Norm) error {
		for _, n := range list {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), n.Article); err != nil {
				return err
			}
		}
		return nil
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add ARTICLE",
			Short: "Add an article code",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(g, func(cmd *cobra.Command, args []string, a *app.App) error {
				n, err := a.Norms.Add(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "norm %d: %s\n", n.ID, n.Article)
				return err
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List article codes",
			Args:  cobra.NoArgs,
			RunE: withApp(g, func(cmd *cobra.Command, _ []string, a *app.App) error {
				list, err := a.Norms.List(cmd.Context())
				if err != nil {
					return err
				}
				return printNorms(cmd, list)
			}),
		},
		&cobra.Command{
			Use:   "similar TEXT",
			Short: "Suggest article codes matching TEXT, ignoring case",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(g, func(cmd *cobra.Command, args []string, a *app.App) error {
				list, err := a.Norms.Similar(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printNorms(cmd, list)
			}),
		},
	)
	return cmd
}
