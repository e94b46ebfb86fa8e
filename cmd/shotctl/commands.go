package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/okian/framecount/internal/client"
	"github.com/okian/framecount/internal/domain/pricing"
)

func newAddCmd(c *cli) *cobra.Command {
	var preview string
	cmd := &cobra.Command{
		Use:   "add NAME FRAMES",
		Short: "Add one shot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			frames, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("frames must be an integer: %w", err)
			}
			view, err := c.client().AddShot(cmd.Context(), args[0], frames, preview)
			if err != nil {
				return err
			}
			cmd.Printf("added %s (%d frames) %s [%s]\n", view.Name, view.Frames, view.PriceFormatted, view.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&preview, "preview", "", "Preview image reference")
	return cmd
}

func newEditCmd(c *cli) *cobra.Command {
	var (
		name   string
		frames int
	)
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Rename a shot or change its frames",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var namePtr *string
			var framesPtr *int
			if cmd.Flags().Changed("name") {
				namePtr = &name
			}
			if cmd.Flags().Changed("frames") {
				framesPtr = &frames
			}
			if namePtr == nil && framesPtr == nil {
				return errors.New("nothing to change: pass --name and/or --frames")
			}
			view, err := c.client().UpdateShot(cmd.Context(), args[0], namePtr, framesPtr)
			if err != nil {
				return err
			}
			cmd.Printf("updated %s (%d frames) %s\n", view.Name, view.Frames, view.PriceFormatted)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New shot name")
	cmd.Flags().IntVar(&frames, "frames", 0, "New frame count")
	return cmd
}

func newImportCmd(c *cli) *cobra.Command {
	var (
		mimeType string
		noWait   bool
	)
	cmd := &cobra.Command{
		Use:   "import IMAGE",
		Short: "Extract shots from a screenshot of a file listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if mimeType == "" {
				mimeType = http.DetectContentType(data)
			}

			cl := c.client()
			status, err := cl.SubmitImport(cmd.Context(), data, mimeType)
			if err != nil {
				return err
			}
			if noWait {
				cmd.Printf("queued %s\n", status.ID)
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), importTimeout)
			defer cancel()
			status, err = cl.WaitImport(ctx, status.ID)
			if err != nil {
				return err
			}
			cmd.Printf("import %s: %d candidates, %d added, %d duplicates, %d skipped\n",
				status.ID, status.Candidates, status.Added, status.Duplicates, status.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&mimeType, "type", "", "Image MIME type (sniffed when empty)")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Return after queueing instead of waiting for the result")
	return cmd
}

func newListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List shots with prices and totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := c.client().Shots(cmd.Context())
			if err != nil {
				return err
			}
			return printMarkdown(cmd, c.raw, shotsMarkdown(list))
		},
	}
}

func newRmCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID...",
		Short: "Remove shots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl := c.client()
			for _, id := range args {
				if err := cl.RemoveShot(cmd.Context(), id); err != nil {
					return fmt.Errorf("%s: %w", id, err)
				}
				cmd.Printf("removed %s\n", id)
			}
			return nil
		},
	}
}

func newTiersCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "tiers",
		Short: "Show the pricing tiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tiers, err := c.client().Tiers(cmd.Context())
			if err != nil {
				return err
			}
			return printMarkdown(cmd, c.raw, tiersMarkdown(tiers))
		},
	}
}

func newSetTiersCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "set-tiers MIN-MAX:PRICE:LABEL...",
		Short:   "Replace the pricing tiers and re-price every shot",
		Example: `  shotctl set-tiers "0-100:125000:Kategori 1" "101-200:150000:Kategori 2" "201-inf:225000:Kategori 3"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tiers := make([]pricing.Tier, 0, len(args))
			for _, spec := range args {
				tier, err := client.ParseTier(spec)
				if err != nil {
					return err
				}
				tiers = append(tiers, tier)
			}
			views, err := c.client().ReplaceTiers(cmd.Context(), tiers)
			if err != nil {
				return err
			}
			return printMarkdown(cmd, c.raw, tiersMarkdown(views))
		},
	}
}

func newRmTierCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "rm-tier INDEX",
		Short: "Remove a tier that no shot is priced by",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("index must be an integer: %w", err)
			}
			views, err := c.client().RemoveTier(cmd.Context(), index)
			if err != nil {
				return err
			}
			return printMarkdown(cmd, c.raw, tiersMarkdown(views))
		},
	}
}

func newReportCmd(c *cli) *cobra.Command {
	var (
		q   client.ReportQuery
		out string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the estimate as markdown, csv or json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, _, err := c.client().Report(cmd.Context(), q)
			if err != nil {
				return err
			}
			if out != "" {
				if err := os.WriteFile(out, body, reportFileMode); err != nil {
					return err
				}
				cmd.Printf("wrote %s\n", out)
				return nil
			}
			if q.Format == "" || q.Format == "markdown" || q.Format == "md" {
				return printMarkdown(cmd, c.raw, string(body))
			}
			_, err = cmd.OutOrStdout().Write(body)
			return err
		},
	}
	cmd.Flags().StringVarP(&q.Format, "format", "f", "markdown", "markdown, csv or json")
	cmd.Flags().StringVar(&q.Title, "title", "", "Report title")
	cmd.Flags().StringVar(&q.Author, "author", "", "Artist name")
	cmd.Flags().StringVar(&q.Period, "period", "", "Billing period")
	cmd.Flags().StringVar(&q.ReportID, "id", "", "Report id (random when empty)")
	cmd.Flags().StringVar(&q.Notes, "notes", "", "Closing notes")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the report to a file instead of the terminal")
	return cmd
}

const reportFileMode = 0o600
