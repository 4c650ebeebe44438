package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thedjpetersen/flow-like-water/internal/manifest"
)

var validateCmd = &cobra.Command{
	Use:   "validate <manifest>",
	Short: "Validate a workflow manifest without running it",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	m, err := manifest.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (%d root group(s))\n", args[0], len(m.Groups))
	return nil
}
