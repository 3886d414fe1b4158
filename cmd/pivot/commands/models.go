package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/pivotproxy/pivot/internal/transform"
)

// modelsCommand returns the 'models' subcommand.
func modelsCommand() *cli.Command {
	return &cli.Command{
		Name:   "models",
		Usage:  "Print the model id mapping table",
		Action: modelsAction,
	}
}

// modelsAction prints the prefix-ordered model mapping, Claude-style family
// id on the left, vendor-qualified slug on the right.
func modelsAction(ctx context.Context, cmd *cli.Command) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, pair := range transform.Models() {
		fmt.Fprintf(w, "%s\t%s\n", pair.ID, pair.Slug)
	}
	return w.Flush()
}
