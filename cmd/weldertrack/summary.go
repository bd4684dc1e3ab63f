package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tbourn/welder-tracker/internal/app"
	"github.com/tbourn/welder-tracker/internal/report"
	"github.com/tbourn/welder-tracker/internal/sysutil"
)

func newSummaryCmd(g *globals) *cobra.Command {
	var xlsxPath string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print monthly totals per article and welder",
		Args:  cobra.NoArgs,
		RunE: withApp(g, func(cmd *cobra.Command, _ []string, a *app.App) error {
			months, err := a.Records.Summary(cmd.Context())
			if err != nil {
				return err
			}
			if xlsxPath != "" {
				f, err := os.Create(xlsxPath)
				if err != nil {
					return err
				}
				if err := report.WriteSummary(f, months); err != nil {
					_ = f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "summary written to %s\n", xlsxPath)
				return err
			}

			if len(months) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "no records")
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			for _, m := range months {
				fmt.Fprintf(tw, "%s\t\t\n", sysutil.FirstNonEmpty(m.Title, m.Label))
				for _, art := range m.Articles {
					fmt.Fprintf(tw, "\t%s\t%s\n", art.Article, qty(art.TotalQuantity))
					for _, name := range art.WelderNames() {
						fmt.Fprintf(tw, "\t  %s\t%s\n", name, qty(art.WelderDetails[name]))
					}
				}
			}
			return tw.Flush()
		}),
	}
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write the summary workbook to this file instead of printing")
	return cmd
}
