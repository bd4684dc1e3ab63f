package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbourn/welder-tracker/internal/app"
	"github.com/tbourn/welder-tracker/internal/utils"
)

func newRecordCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Log and correct production entries",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add WELDER_ID ARTICLE QUANTITY",
			Short: "Add produced quantity; merges into this month's record for the article",
			Args:  cobra.ExactArgs(3),
			RunE: withApp(g, func(cmd *cobra.Command, args []string, a *app.App) error {
				id, err := utils.ParseID(args[0])
				if err != nil {
					return err
				}
				res, err := a.Records.Add(cmd.Context(), id, args[1], args[2])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if res == nil {
					_, err = fmt.Fprintln(out, "nothing to add")
					return err
				}
				if res.Merged {
					_, err = fmt.Fprintf(out, "record %d: %s %s -> %s\n", res.Record.ID, res.Record.Article,
						qty(res.History.OldQuantity), qty(res.History.NewQuantity))
					return err
				}
				_, err = fmt.Fprintf(out, "record %d: %s %s (new)\n", res.Record.ID, res.Record.Article, qty(res.Record.Quantity))
				return err
			}),
		},
		&cobra.Command{
			Use:   "set RECORD_ID QUANTITY",
			Short: "Correct a record to an absolute quantity",
			Args:  cobra.ExactArgs(2),
			RunE: withApp(g, func(cmd *cobra.Command, args []string, a *app.App) error {
				id, err := utils.ParseID(args[0])
				if err != nil {
					return err
				}
				res, err := a.Records.Correct(cmd.Context(), id, args[1])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch {
				case res == nil:
					_, err = fmt.Fprintln(out, "nothing to change")
				case !res.Changed:
					_, err = fmt.Fprintf(out, "record %d unchanged: %s\n", res.Record.ID, qty(res.Record.Quantity))
				default:
					_, err = fmt.Fprintf(out, "record %d: %s -> %s\n", res.Record.ID,
						qty(res.History.OldQuantity), qty(res.History.NewQuantity))
				}
				return err
			}),
		},
		&cobra.Command{
			Use:   "list WELDER_ID",
			Short: "List a welder's records, newest first",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(g, func(cmd *cobra.Command, args []string, a *app.App) error {
				id, err := utils.ParseID(args[0])
				if err != nil {
					return err
				}
				list, err := a.Records.ListByWelder(cmd.Context(), id)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tARTICLE\tQUANTITY\tDATE")
				for _, r := range list {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, r.Article, qty(r.Quantity), stamp(r.Date, a.Calendar.Location))
				}
				return tw.Flush()
			}),
		},
	)
	return cmd
}

func newHistoryCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "history RECORD_ID",
		Short: "Show the quantity change log of a record",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(g, func(cmd *cobra.Command, args []string, a *app.App) error {
			id, err := utils.ParseID(args[0])
			if err != nil {
				return err
			}
			list, err := a.Records.History(cmd.Context(), id)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "no changes")
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "DATE\tOLD\tNEW")
			for _, h := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", stamp(h.Date, a.Calendar.Location), qty(h.OldQuantity), qty(h.NewQuantity))
			}
			return tw.Flush()
		}),
	}
}
