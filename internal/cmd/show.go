package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/thedjpetersen/flow-like-water/internal/manifest"
)

var showCmd = &cobra.Command{
	Use:   "show <manifest>",
	Short: "Print the task tree a manifest defines",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	m, err := manifest.Load(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if m.Workflow.Name != "" {
		fmt.Fprintf(out, "workflow: %s\n", m.Workflow.Name)
	}
	for _, g := range m.Groups {
		fmt.Fprintf(out, "%s/\n", g.ID)
		printChildren(out, g.Children, 1)
	}
	return nil
}

func printChildren(out io.Writer, children []manifest.NodeSpec, depth int) {
	indent := strings.Repeat("  ", depth)
	for i := range children {
		c := &children[i]
		if c.IsGroup() {
			fmt.Fprintf(out, "%s%s/\n", indent, c.ID)
			printChildren(out, c.Children, depth+1)
			continue
		}

		var notes []string
		if c.Condition != "" {
			notes = append(notes, "condition")
		}
		if c.Retries != nil && *c.Retries > 0 {
			notes = append(notes, fmt.Sprintf("retries=%d", *c.Retries))
		}
		if c.WaitMs != nil && *c.WaitMs > 0 {
			notes = append(notes, fmt.Sprintf("wait=%s", time.Duration(*c.WaitMs)*time.Millisecond))
		}

		if len(notes) > 0 {
			fmt.Fprintf(out, "%s%s  [%s]\n", indent, c.ID, strings.Join(notes, ", "))
		} else {
			fmt.Fprintf(out, "%s%s\n", indent, c.ID)
		}
	}
}
