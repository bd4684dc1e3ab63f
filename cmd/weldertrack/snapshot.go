package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tbourn/welder-tracker/internal/app"
	"github.com/tbourn/welder-tracker/internal/services"
	"github.com/tbourn/welder-tracker/internal/sysutil"
)

func newExportCmd(g *globals) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup of the whole store",
		Args:  cobra.NoArgs,
		RunE: withApp(g, func(cmd *cobra.Command, _ []string, a *app.App) error {
			snap, err := a.Snapshots.Export(cmd.Context())
			if err != nil {
				return err
			}
			if out == "-" {
				return services.WriteJSON(cmd.OutOrStdout(), snap)
			}
			path := sysutil.FirstNonEmpty(out, services.FileName(time.Now()))
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := services.WriteJSON(f, snap); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "exported %d welders, %d records, %d norms, %d history entries to %s\n",
				len(snap.Data.Welders), len(snap.Data.Records), len(snap.Data.Norms), len(snap.Data.History), path)
			return err
		}),
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", `output file ("-" for stdout; default welder-tracker-backup-<date>.json)`)
	return cmd
}

// errStdinReplace is returned when a replace import would need stdin for both
// the document and the confirmation.
var errStdinReplace = errors.New("replace import from stdin cannot be confirmed interactively; pass --yes or a file path")

func newImportCmd(g *globals) *cobra.Command {
	var (
		mode string
		yes  bool
	)
	cmd := &cobra.Command{
		Use:   "import FILE|-",
		Short: "Load a JSON backup (additive merge or full replace)",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(g, func(cmd *cobra.Command, args []string, a *app.App) error {
			ctx := cmd.Context()
			if args[0] == "-" && mode == services.ModeReplace && !yes {
				return errStdinReplace
			}
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			snap, err := services.Decode(ctx, in, a.Config.MaxImportBytes)
			if err != nil {
				return err
			}

			var rep *services.ImportReport
			switch mode {
			case services.ModeAdditive:
				rep, err = a.Snapshots.ImportAdditive(ctx, snap)
			case services.ModeReplace:
				rep, err = a.Snapshots.ImportReplace(ctx, snap, promptConfirmer(cmd, yes))
			default:
				return fmt.Errorf("unknown mode %q (want additive or replace)", mode)
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(),
				"%s import: welders +%d (skipped %d), norms +%d (skipped %d), records +%d, history +%d\n",
				rep.Mode, rep.WeldersAdded, rep.WeldersSkipped, rep.NormsAdded, rep.NormsSkipped,
				rep.RecordsAdded, rep.HistoryAdded)
			return err
		}),
	}
	cmd.Flags().StringVar(&mode, "mode", services.ModeAdditive, "additive or replace")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm a replace import without asking")
	return cmd
}

// promptConfirmer asks on the command's stdin before a replace import wipes
// the store. With assumeYes it confirms without asking.
func promptConfirmer(cmd *cobra.Command, assumeYes bool) services.Confirmer {
	return services.ConfirmFunc(func(_ context.Context, p services.ImportPreview) (bool, error) {
		if assumeYes {
			return true, nil
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Current store: %d welders, %d records, %d norms, %d history entries.\n",
			p.Current.Welders, p.Current.Records, p.Current.Norms, p.Current.History)
		fmt.Fprintf(out, "Backup: %d welders, %d records, %d norms, %d history entries.\n",
			len(p.Incoming.Welders), len(p.Incoming.Records), len(p.Incoming.Norms), len(p.Incoming.History))
		fmt.Fprint(out, "All current data will be replaced. Continue? [y/N] ")

		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && err != io.EOF {
			return false, err
		}
		return sysutil.IsAffirmative(line), nil
	})
}
