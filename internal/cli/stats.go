package cli

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/phanxgames/canopy"
)

type statsOpts struct {
	source sourceFlags
	at     string
}

func (c *CLI) statsCommand() *cobra.Command {
	opts := statsOpts{}
	cmd := &cobra.Command{
		Use:   "stats [source]",
		Short: "Print node, leaf and level counts for a tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStats(cmd.Context(), args, opts)
		},
	}
	opts.source.register(cmd)
	cmd.Flags().StringVar(&opts.at, "at", "", "report on the subtree at a deep link")
	return cmd
}

// treeStats summarizes a subtree.
type treeStats struct {
	Nodes   int
	Leaves  int
	Depth   int
	Pending int
	Levels  map[string]int
}

func collectStats(n *canopy.Node) treeStats {
	st := treeStats{Levels: make(map[string]int)}
	base := n.Depth()
	var walk func(*canopy.Node)
	walk = func(n *canopy.Node) {
		st.Nodes++
		st.Levels[n.Level]++
		st.Depth = max(st.Depth, n.Depth()-base)
		if n.NeedsChildren() {
			st.Pending++
		}
		if n.IsLeaf() {
			st.Leaves++
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(n)
	return st
}

// sortedLevels orders canonical ranks first, then "Level N" by N, then the
// rest alphabetically.
func sortedLevels(levels map[string]int) []string {
	keys := make([]string, 0, len(levels))
	for k := range levels {
		keys = append(keys, k)
	}
	rank := func(s string) int {
		if i := slices.Index(canopy.Levels, s); i >= 0 {
			return i
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(s, "Level ")); err == nil && strings.HasPrefix(s, "Level ") {
			return len(canopy.Levels) + n
		}
		return 1 << 30
	}
	slices.SortFunc(keys, func(a, b string) int {
		if ra, rb := rank(a), rank(b); ra != rb {
			return ra - rb
		}
		return strings.Compare(a, b)
	})
	return keys
}

func (c *CLI) runStats(ctx context.Context, args []string, opts statsOpts) error {
	cfg, _, err := c.loadConfig()
	if err != nil {
		return err
	}
	in, err := c.resolveInput(ctx, newClient(cfg, loggerFromContext(ctx)), args, opts.source)
	if err != nil {
		return err
	}
	t, node, err := loadTree(in, opts.at)
	if err != nil {
		return err
	}

	st := collectStats(node)
	num := func(v int) string { return StyleNumber.Render(humanize.Comma(int64(v))) }
	fmt.Fprintln(c.out, StyleTitle.Render(strings.Join(t.PathNames(node), " › ")))
	printField(c.out, "nodes", num(st.Nodes))
	printField(c.out, "leaves", num(st.Leaves))
	printField(c.out, "depth", num(st.Depth))
	if st.Pending > 0 {
		printField(c.out, "lazy", num(st.Pending)+StyleDim.Render(" unexpanded"))
	}
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, StyleDim.Render("Levels"))
	for _, level := range sortedLevels(st.Levels) {
		printField(c.out, level, num(st.Levels[level]))
	}
	return nil
}
