package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/harpa/backend/internal/domain"
	"github.com/harpa/backend/internal/infrastructure/csvsource"
	"github.com/harpa/backend/internal/usecase"
)

func newLookupCmd(a *app) *cobra.Command {
	var storeID string
	var manual bool

	cmd := &cobra.Command{
		Use:   "lookup <query>",
		Short: "Resolve a barcode to its placements",
		Long:  "Normalizes the query and runs the same matching as a scan. --manual enables last-digits search for short queries.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			svc, done, err := a.openSession(ctx, storeID)
			if err != nil {
				return err
			}
			defer done()

			out, err := svc.HandleInput(ctx, args[0], !manual)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if a.format != formatText {
				return render(w, a.format, out.Result)
			}
			writeLookup(w, out.Result)
			return nil
		},
	}

	cmd.Flags().StringVar(&storeID, "store", "", "store number (required)")
	cmd.Flags().BoolVar(&manual, "manual", false, "treat the query as typed rather than scanned")
	_ = cmd.MarkFlagRequired("store")
	return cmd
}

func writeLookup(w io.Writer, r *domain.MatchResult) {
	switch r.Outcome {
	case domain.OutcomeDelete:
		fmt.Fprintf(w, "DELETE %s: %s is on the delete list\n", r.CanonicalUPC, r.DeleteEntry.ProductName)
		return
	case domain.OutcomeNotFound:
		fmt.Fprintf(w, "%s not found\n", r.CanonicalUPC)
		return
	}

	fmt.Fprintf(w, "%d match(es) for %s (%s)\n", len(r.Candidates), r.CanonicalUPC, r.Strategy)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBAY\tPOS\tPEG\tUPC\tDESCRIPTION")
	for _, rec := range r.Candidates {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.ID, rec.Bay, rec.Position, rec.PegAddress, rec.UPC, rec.Description)
	}
	tw.Flush()
}

type bayRow struct {
	Bay   int    `json:"bay"`
	Items int    `json:"items"`
	First string `json:"first,omitempty"`
}

type baysReport struct {
	Store      string   `json:"store"`
	Planogram  string   `json:"pog"`
	Bays       []bayRow `json:"bays"`
	Unassigned int      `json:"unassigned"`
}

func newBaysCmd(a *app) *cobra.Command {
	var storeID string

	cmd := &cobra.Command{
		Use:   "bays",
		Short: "List the bays of a store's planogram",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, done, err := a.openSession(cmd.Context(), storeID)
			if err != nil {
				return err
			}
			defer done()

			idx := svc.Index()
			report := baysReport{Store: storeID, Planogram: idx.PlanogramID(), Bays: []bayRow{}}
			for _, bay := range idx.AllBays() {
				items := idx.ItemsInBay(bay)
				row := bayRow{Bay: bay, Items: len(items)}
				if len(items) > 0 {
					row.First = items[0].Description
				}
				report.Bays = append(report.Bays, row)
			}
			for _, rec := range idx.Records() {
				if !rec.BayValid {
					report.Unassigned++
				}
			}

			w := cmd.OutOrStdout()
			if a.format != formatText {
				return render(w, a.format, report)
			}

			fmt.Fprintf(w, "store %s runs %s: %d bay(s)\n", report.Store, report.Planogram, len(report.Bays))
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "BAY\tITEMS\tFIRST")
			for _, row := range report.Bays {
				fmt.Fprintf(tw, "%d\t%d\t%s\n", row.Bay, row.Items, row.First)
			}
			tw.Flush()
			if report.Unassigned > 0 {
				fmt.Fprintf(w, "%d placement(s) have no usable bay number\n", report.Unassigned)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&storeID, "store", "", "store number (required)")
	_ = cmd.MarkFlagRequired("store")
	return cmd
}

func newLayoutCmd(a *app) *cobra.Command {
	var (
		storeID string
		bay     int
		width   float64
		height  float64
	)

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print pixel geometry for one bay",
		Long:  "Fits the board into a width x height viewport and prints each product's bounding box. A zero height leaves the height unconstrained.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, done, err := a.openSession(cmd.Context(), storeID)
			if err != nil {
				return err
			}
			defer done()

			out, err := svc.BayLayout(bay, domain.Viewport{Width: width, Height: height})
			if err != nil {
				return eris.Wrapf(err, "bay %d", bay)
			}

			w := cmd.OutOrStdout()
			if a.format != formatText {
				return render(w, a.format, out)
			}
			writeLayout(w, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&storeID, "store", "", "store number (required)")
	cmd.Flags().IntVar(&bay, "bay", 1, "bay number")
	cmd.Flags().Float64Var(&width, "width", 1024, "viewport width in pixels")
	cmd.Flags().Float64Var(&height, "height", 0, "viewport height in pixels")
	_ = cmd.MarkFlagRequired("store")
	return cmd
}

func writeLayout(w io.Writer, l *usecase.BayLayout) {
	fmt.Fprintf(w, "bay %d (%d of %d) at %.2f px/in, board %.0fx%.0f px\n",
		l.Bay, l.BayPosition, l.BayCount, l.PPI, l.BoardWidthPx, l.BoardHeightPx)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "ID\tPEG\tHOLE X\tHOLE Y\tLEFT\tTOP\tWIDTH\tHEIGHT\t")
	for _, item := range l.Items {
		g := item.Geometry
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\t\n",
			item.Record.ID, item.Record.PegAddress,
			g.Hole.X, g.Hole.Y, g.Box.Left, g.Box.Top, g.Box.Width, g.Box.Height)
	}
	tw.Flush()
}

func newValidateCmd(a *app) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load the data files and report rejected rows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, report, err := a.loader().Load(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if a.format != formatText {
				if err := render(w, a.format, report); err != nil {
					return err
				}
			} else {
				writeReport(w, report)
			}

			if strict && len(report.Rejected) > 0 {
				return eris.Errorf("%d row(s) rejected", len(report.Rejected))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any row is rejected")
	return cmd
}

func writeReport(w io.Writer, r *csvsource.LoadReport) {
	fmt.Fprintf(w, "placements: %d\nstores: %d\ndelete list: %d\nfiles: %d\n",
		r.Placements, r.Stores, r.DeleteEntries, r.Files)
	if len(r.Missing) > 0 {
		fmt.Fprintf(w, "missing optional sources: %s\n", strings.Join(r.Missing, ", "))
	}
	if len(r.Rejected) == 0 {
		fmt.Fprintln(w, "no rows rejected")
		return
	}

	fmt.Fprintf(w, "rejected: %d\n", len(r.Rejected))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tLINE\tREASON")
	for _, rej := range r.Rejected {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", rej.File, rej.Line, rej.Reason)
	}
	tw.Flush()
}
