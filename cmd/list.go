package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	listLimit int
	listBlobs bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent episodes",
	RunE:  runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "Maximum number of episodes (default from config, at most 100)")
	listCmd.Flags().BoolVar(&listBlobs, "blobs", false, "List stored audio objects instead of episodes")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	pipeline, cfg, closeFn, err := openPipeline(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if listBlobs {
		keys, err := pipeline.ListAudio(ctx, cfg.Blob.Prefix)
		if err != nil {
			return err
		}
		for _, key := range keys {
			fmt.Println(key)
		}
		return nil
	}

	records, err := pipeline.ListRecent(ctx, listLimit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No episodes yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CREATED\tSLUG\tWORDS\tAUDIO\tTOPIC")
	for _, r := range records {
		words := "-"
		if r.WordCount > 0 {
			words = fmt.Sprint(r.WordCount)
		}
		coverage := r.Coverage
		if coverage == "" {
			coverage = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.CreatedAt.Local().Format(time.DateTime), r.Slug, words, coverage, r.Topic)
	}
	return w.Flush()
}
