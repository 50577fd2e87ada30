package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sohta/kotoba/internal/learner"
	"github.com/sohta/kotoba/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a learner's profile and service activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		language, _ := cmd.Flags().GetString("language")

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}

		s, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		ctx := context.Background()
		p, _, err := s.ProfileRepo().Get(ctx, userID, language)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		if p == nil {
			fmt.Printf("No profile for %s (%s) yet.\n", userID, language)
			return nil
		}

		fmt.Printf("Learner %s — %s\n", p.UserID, p.Language)
		fmt.Println(strings.Repeat("─", 60))
		fmt.Printf("Ability:     %+.2f (standard error %.2f)\n", p.AbilityEstimate, p.AbilityConfidence)
		fmt.Printf("Difficulty:  %.2f suggested\n", p.SuggestedDifficulty())
		fmt.Printf("Readiness:   %s (%.0f%%)\n", p.Readiness.Level, p.Readiness.Confidence*100)
		fmt.Printf("Study time:  %.0f minutes\n", p.TotalStudyMinutes)

		fmt.Println("\nSkills")
		for _, sk := range learner.AllSkills() {
			fmt.Printf("  %-12s %3d\n", sk.String(), p.SkillScore(sk))
		}

		if cov := p.VocabCoverage; cov.TotalWords > 0 {
			fmt.Printf("\nVocabulary (%s): %d known / %d learning of %d (%.0f%%)\n",
				cov.TargetLevel, cov.Known, cov.Learning, cov.TotalWords, cov.Percent())
		}

		if top := learner.TopInterests(p.InterestWeights, 5); len(top) > 0 {
			fmt.Printf("\nInterests: %s\n", strings.Join(top, ", "))
		}

		if len(p.WeakAreas) > 0 {
			fmt.Println("\nWeak areas")
			for _, w := range p.WeakAreas {
				fmt.Printf("  %-12s %-20s score %d\n", w.Skill.String(), w.Topic, w.Score)
			}
		}

		// 21 matches the engine's default maturity threshold.
		cards, err := s.CardRepo().Stats(ctx, userID, language, 21)
		if err != nil {
			return fmt.Errorf("load card stats: %w", err)
		}
		if cards.Total > 0 {
			fmt.Printf("\nCards: %d tracked, %d reviewed, %d mature\n",
				cards.Total, cards.Reviewed, cards.Mature)
		}

		since := time.Now().AddDate(0, 0, -30)
		counts, err := s.EventRepo().CountByType(ctx, since)
		if err != nil {
			return fmt.Errorf("count events: %w", err)
		}
		totals, err := s.EventRepo().LLMTotals(ctx, since)
		if err != nil {
			return fmt.Errorf("aggregate LLM events: %w", err)
		}

		if len(counts) > 0 || totals.Requests > 0 {
			fmt.Println("\nService activity (last 30 days, all learners)")
			fmt.Printf("  interactions %d, reviews %d, content served %d, placements %d\n",
				counts[store.EventInteraction],
				counts[store.EventReview],
				counts[store.EventContentServed],
				counts[store.EventPlacementCompleted])
			if totals.Requests > 0 {
				fmt.Printf("  LLM requests %d (%d failed), tokens %d in / %d out\n",
					totals.Requests, totals.Failures, totals.InputTokens, totals.OutputTokens)
			}
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().StringP("user", "u", "", "User ID (required)")
	statsCmd.Flags().StringP("language", "l", "", "Language code (required)")
	_ = statsCmd.MarkFlagRequired("user")
	_ = statsCmd.MarkFlagRequired("language")
}
