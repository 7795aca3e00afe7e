package riskgate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riskgate/riskgate/internal/rules"
)

func init() {
	var rulesFile string
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the active rule set",
		RunE: func(_ *cobra.Command, _ []string) error {
			set, source, err := rules.Load(rulesFile)
			if err != nil {
				return err
			}
			fmt.Printf("source: %s\n", source)
			for _, r := range set {
				fmt.Printf("%-8s %-6s %-24s %s\n", r.RuleID, r.Severity, r.Category, r.Description)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&rulesFile, "rules", "", "YAML rule specification file (default: builtin rules)")
	rootCmd.AddCommand(cmd)
}
