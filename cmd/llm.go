package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sohta/kotoba/internal/llm"
	"github.com/sohta/kotoba/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect LLM providers and request/response events",
}

// withEventRepo opens the store, hands its event log to fn and closes
// the store afterwards. Every llm subcommand except status reads the
// same log, so the open/close dance lives here once.
func withEventRepo(cmd *cobra.Command, fn func(ctx context.Context, events store.EventRepo) error) error {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()
	return fn(context.Background(), s.EventRepo())
}

var llmStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the configured provider chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := llm.ConfigFromEnv()
		if os.Getenv("KOTOBA_LLM_PROVIDER") == "" {
			if discovered, ok := llm.DiscoverConfig(); ok {
				cfg = discovered
			}
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		chain, err := llm.NewChain(cmd.Context(), cfg, nil)
		if err != nil {
			return fmt.Errorf("build provider chain: %w", err)
		}

		fmt.Printf("Primary provider: %s\n", cfg.Provider)
		for i, p := range chain {
			role := "fallback"
			if i == 0 {
				role = "primary"
			}
			fmt.Printf("  %d. %-32s %s\n", i+1, p.ModelID(), role)
		}
		return nil
	},
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		since, _ := cmd.Flags().GetDuration("since")

		return withEventRepo(cmd, func(ctx context.Context, events store.EventRepo) error {
			opts := store.QueryOpts{Limit: limit}
			if since > 0 {
				opts.From = time.Now().Add(-since)
			}
			recs, err := events.QueryLLMEvents(ctx, opts)
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}

			shown := 0
			for _, e := range recs {
				if purpose != "" && e.Purpose != purpose {
					continue
				}
				status := "ok  "
				if !e.Success {
					status = "FAIL"
				}
				fmt.Printf("%6d  %s  %s  %-14s  %-26s  %6d in %6d out  %5dms\n",
					e.ID,
					e.CreatedAt.Local().Format("01-02 15:04"),
					status,
					e.Purpose,
					clip(e.Model, 26),
					e.InputTokens,
					e.OutputTokens,
					e.LatencyMs,
				)
				shown++
			}
			if shown == 0 {
				fmt.Println("No matching LLM events.")
			}
			return nil
		})
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View full request/response for an LLM event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id uint
		if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		return withEventRepo(cmd, func(ctx context.Context, events store.EventRepo) error {
			e, err := events.GetLLMEvent(ctx, id)
			if err != nil {
				return fmt.Errorf("get event: %w", err)
			}
			if e == nil {
				return fmt.Errorf("event %d not found", id)
			}

			fmt.Printf("Event %d — %s\n", e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			fmt.Println(strings.Repeat("─", 60))
			fmt.Printf("Provider:  %s (%s)\n", e.Provider, e.Model)
			fmt.Printf("Purpose:   %s\n", e.Purpose)
			fmt.Printf("Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
			fmt.Printf("Latency:   %dms\n", e.LatencyMs)
			if price := llm.LookupCost(e.Model); price != nil {
				fmt.Printf("Cost:      %s\n", formatCost(price.Cost(e.InputTokens, e.OutputTokens)))
			}
			if !e.Success {
				fmt.Printf("Failed:    %s\n", e.ErrorMessage)
			}

			printPayload("REQUEST", e.RequestBody)
			printPayload("RESPONSE", e.ResponseBody)
			return nil
		})
	},
}

// printPayload prints a titled request or response body block.
func printPayload(title, body string) {
	fmt.Println()
	fmt.Printf("── %s %s\n", title, strings.Repeat("─", 55-len(title)))
	if body == "" {
		fmt.Println("(not captured)")
		return
	}
	fmt.Println(body)
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated LLM token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEventRepo(cmd, func(ctx context.Context, events store.EventRepo) error {
			byPurpose, err := events.LLMUsageByPurpose(ctx)
			if err != nil {
				return fmt.Errorf("aggregate by purpose: %w", err)
			}
			if len(byPurpose) == 0 {
				fmt.Println("No LLM usage recorded yet.")
				return nil
			}

			fmt.Println("Usage by purpose")
			fmt.Println(strings.Repeat("─", 72))
			var calls, in, out int64
			for _, u := range byPurpose {
				fmt.Printf("  %-16s %6d calls  %9d in %9d out  avg %dms\n",
					u.Purpose, u.Calls, u.InputTokens, u.OutputTokens, u.AvgLatencyMs)
				calls += u.Calls
				in += u.InputTokens
				out += u.OutputTokens
			}
			fmt.Println(strings.Repeat("─", 72))
			fmt.Printf("  %-16s %6d calls  %9d in %9d out\n", "total", calls, in, out)

			byModel, err := events.LLMUsageByModel(ctx)
			if err != nil {
				return fmt.Errorf("aggregate by model: %w", err)
			}

			fmt.Println("\nEstimated cost")
			fmt.Println(strings.Repeat("─", 72))
			var (
				total    float64
				unpriced []string
			)
			for _, u := range byModel {
				price := llm.LookupCost(u.Model)
				if price == nil {
					unpriced = append(unpriced, u.Model)
					continue
				}
				c := price.Cost(int(u.InputTokens), int(u.OutputTokens))
				total += c
				fmt.Printf("  %-30s %6d calls  %9d in %9d out  %9s\n",
					clip(u.Model, 30), u.Calls, u.InputTokens, u.OutputTokens, formatCost(c))
			}
			fmt.Println(strings.Repeat("─", 72))
			label := "total"
			if len(unpriced) > 0 {
				label = "total (excl. unpriced)"
			}
			fmt.Printf("  %-30s %42s\n", label, formatCost(total))
			if len(unpriced) > 0 {
				fmt.Printf("\nNo pricing for: %s\n", strings.Join(unpriced, ", "))
			}
			return nil
		})
	},
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (e.g. content-gen, content-grading)")
	llmListCmd.Flags().Duration("since", 0, "Only show events newer than this age (e.g. 24h)")

	llmCmd.AddCommand(llmStatusCmd, llmListCmd, llmViewCmd, llmStatsCmd)
}
