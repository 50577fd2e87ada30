package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sohta/kotoba/internal/memory"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview review scheduling for a hypothetical card (no database)",
	Long: `Show the card state each rating would produce on the next review.

This is a stateless developer tool for tuning retention targets; no
database is touched. Omit --stability to preview a brand-new card.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().Float64("stability", 0, "Current stability in days (0 = new card)")
	previewCmd.Flags().Float64("difficulty", 5, "Current difficulty (1-10)")
	previewCmd.Flags().Int("elapsed", 0, "Days since the last review")
	previewCmd.Flags().Float64("retention", 0, "Target recall probability (0 = default)")
}

func runPreview(cmd *cobra.Command, args []string) error {
	stability, _ := cmd.Flags().GetFloat64("stability")
	difficulty, _ := cmd.Flags().GetFloat64("difficulty")
	elapsed, _ := cmd.Flags().GetInt("elapsed")
	retention, _ := cmd.Flags().GetFloat64("retention")

	sched, err := memory.NewScheduler(memory.Config{RequestedRetention: retention})
	if err != nil {
		return err
	}

	now := time.Now()
	card := memory.NewCard("preview", now)
	if stability > 0 {
		card.Stability = stability
		card.Difficulty = difficulty
		card.Reps = 1
		card.LastReview = now.AddDate(0, 0, -elapsed)
		card.Due = card.LastReview.AddDate(0, 0, sched.Interval(stability))
	}

	if card.Reviewed() {
		fmt.Printf("Card: stability %.1fd, difficulty %.1f, reviewed %dd ago\n",
			stability, difficulty, elapsed)
		fmt.Printf("Recall probability now: %.0f%%\n\n",
			sched.Retrievability(card, now)*100)
	} else {
		fmt.Println("Card: new, never reviewed")
		fmt.Println()
	}

	preview := sched.PreviewCard(card, now)

	fmt.Printf("%-8s  %9s  %12s  %11s  %s\n",
		"Rating", "Interval", "Stability", "Difficulty", "Due")
	fmt.Println(strings.Repeat("─", 60))
	for _, r := range []memory.Rating{memory.Again, memory.Hard, memory.Good, memory.Easy} {
		c, ok := preview[r]
		if !ok {
			continue
		}
		days := int(c.Due.Sub(now).Hours() / 24)
		fmt.Printf("%-8s  %8dd  %11.1fd  %11.1f  %s\n",
			r.String(), days, c.Stability, c.Difficulty, c.Due.Local().Format("2006-01-02"))
	}
	return nil
}
