package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type findOpts struct {
	source   sourceFlags
	suggest  int
	linkOnly bool
}

func (c *CLI) findCommand() *cobra.Command {
	opts := findOpts{}
	cmd := &cobra.Command{
		Use:   "find [source] <query>",
		Short: "Search a tree by name and print the match's deep link",
		Long: `Find runs the explorer's search: an exact name match wins, then the first
name containing the query, then the best fuzzy match.`,
		Example: `  canopy find taxonomy.json "felis catus"
  canopy find --demo --link panthera`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := args[len(args)-1]
			return c.runFind(cmd.Context(), args[:len(args)-1], query, opts)
		},
	}
	opts.source.register(cmd)
	cmd.Flags().IntVar(&opts.suggest, "suggest", 0, "also list up to N fuzzy suggestions")
	cmd.Flags().BoolVar(&opts.linkOnly, "link", false, "print only the deep link")
	return cmd
}

func (c *CLI) runFind(ctx context.Context, args []string, query string, opts findOpts) error {
	cfg, _, err := c.loadConfig()
	if err != nil {
		return err
	}
	in, err := c.resolveInput(ctx, newClient(cfg, loggerFromContext(ctx)), args, opts.source)
	if err != nil {
		return err
	}
	t, _, err := loadTree(in, "")
	if err != nil {
		return err
	}

	n, kind := t.Find(query)
	if n == nil {
		return fmt.Errorf("no match for %q", query)
	}
	link := t.Link(n)
	if opts.linkOnly {
		fmt.Fprintln(c.out, link)
		return nil
	}

	fmt.Fprintln(c.out, StyleTitle.Render(n.Name)+" "+StyleDim.Render("("+kind.String()+" match)"))
	printField(c.out, "level", StyleValue.Render(n.Level))
	printField(c.out, "path", StyleValue.Render(strings.Join(t.PathNames(n), " › ")))
	printField(c.out, "children", StyleNumber.Render(humanize.Comma(int64(n.NumChildren()))))
	printField(c.out, "leaves", StyleNumber.Render(humanize.Comma(int64(n.Leaves()))))
	printField(c.out, "link", StyleLink.Render(in.ref()+"#"+link))

	if opts.suggest > 0 {
		if names := t.Suggest(query, opts.suggest); len(names) > 0 {
			fmt.Fprintln(c.out)
			fmt.Fprintln(c.out, StyleDim.Render("Suggestions"))
			for _, name := range names {
				printInfo(c.out, "%s", name)
			}
		}
	}
	return nil
}
