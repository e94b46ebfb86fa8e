package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/okian/framecount/internal/client"
	"github.com/okian/framecount/internal/domain/types"
)

const wordWrap = 100

// printMarkdown renders md for the terminal, or prints it as-is when raw.
func printMarkdown(cmd *cobra.Command, raw bool, md string) error {
	if raw {
		_, err := fmt.Fprint(cmd.OutOrStdout(), md)
		return err
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return err
	}
	out, err := renderer.Render(md)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

func shotsMarkdown(list client.ShotList) string {
	var b strings.Builder
	if len(list.Shots) == 0 {
		b.WriteString("_No shots yet._\n")
		return b.String()
	}
	b.WriteString("| # | Shot | Frames | Tier | Price | ID |\n")
	b.WriteString("|---|------|-------:|------|------:|----|\n")
	for i, s := range list.Shots {
		tier := s.TierLabel
		if tier == "" {
			tier = "-"
		}
		fmt.Fprintf(&b, "| %d | %s | %d | %s | %s | `%s` |\n",
			i+1, escapeCell(s.Name), s.Frames, escapeCell(tier), s.PriceFormatted, s.ID)
	}
	fmt.Fprintf(&b, "\n**Total:** %d shots, %d frames, %s\n",
		list.Summary.ShotCount, list.Summary.TotalFrames, list.Summary.TotalFormatted)
	return b.String()
}

func tiersMarkdown(tiers []types.TierView) string {
	var b strings.Builder
	if len(tiers) == 0 {
		b.WriteString("_No tiers: every shot prices at zero._\n")
		return b.String()
	}
	b.WriteString("| # | Label | Range | Price | Shots |\n")
	b.WriteString("|---|-------|-------|------:|------:|\n")
	for _, t := range tiers {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %d |\n",
			t.Index, escapeCell(t.Label), t.RangeLabel, t.PriceFormatted, t.ShotCount)
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
