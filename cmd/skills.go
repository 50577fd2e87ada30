package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sohta/kotoba/internal/learner"
	"github.com/sohta/kotoba/internal/placement"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "List tracked skills and proficiency scales",
	Long: `Print the skill names interactions may test and the level scale
each language's ability estimate maps onto.`,
	Run: func(cmd *cobra.Command, args []string) {
		core := make(map[learner.Skill]bool)
		for _, s := range learner.CoreSkills() {
			core[s] = true
		}

		fmt.Println("Skills")
		fmt.Println(strings.Repeat("─", 32))
		for _, s := range learner.AllSkills() {
			marker := ""
			if core[s] {
				marker = "  (core)"
			}
			fmt.Printf("  %s%s\n", s.String(), marker)
		}

		for _, scale := range []placement.Scale{placement.JLPTScale, placement.CEFRScale} {
			fmt.Printf("\nScale %s\n", scale.Name)
			fmt.Println(strings.Repeat("─", 32))
			for i, level := range scale.Levels {
				switch {
				case i == 0:
					fmt.Printf("  %-4s ability < %.2f\n", level, scale.Cutoffs[0])
				case i == len(scale.Levels)-1:
					fmt.Printf("  %-4s ability >= %.2f\n", level, scale.Cutoffs[i-1])
				default:
					fmt.Printf("  %-4s %.2f to %.2f\n", level, scale.Cutoffs[i-1], scale.Cutoffs[i])
				}
			}
		}
	},
}
