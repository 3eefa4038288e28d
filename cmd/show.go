package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var showOut string

var showCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "Show a recorded episode",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOut, "out", "o", "", "Write the stored audio to this file")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	pipeline, _, closeFn, err := openPipeline(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	record, err := pipeline.Lookup(ctx, args[0])
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("no episode with slug %q", args[0])
	}

	fmt.Println(titleStyle.Render(record.Topic))
	fmt.Println(infoStyle.Render(record.URL))
	fmt.Printf("Created: %s\n", record.CreatedAt.Local().Format("2006-01-02 15:04"))
	if record.DurationClass != "" {
		fmt.Printf("Duration: %s\n", record.DurationClass)
	}
	if record.Coverage != "" {
		fmt.Printf("Audio: %s\n", record.Coverage)
	}
	fmt.Println()
	fmt.Println(record.Script)

	if showOut == "" {
		return nil
	}

	data, err := pipeline.FetchAudio(ctx, record)
	if err != nil {
		return err
	}
	if err := os.WriteFile(showOut, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", showOut, err)
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("✓ Wrote %d bytes to %s", len(data), showOut)))
	return nil
}
