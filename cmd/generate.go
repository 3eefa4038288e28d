package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"topicast/internal/app"
	"topicast/internal/script"

	"github.com/spf13/cobra"
)

var (
	generateTopics   []string
	generateDuration string
	generateLanguage string
	generateFeed     string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an episode for one or more topics",
	Long: `Generate writes a script, synthesizes audio and records an episode for
each topic. Repeat --topic to run several topics concurrently, or use --feed
to pick a topic from an RSS or Atom feed.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringArrayVarP(&generateTopics, "topic", "t", nil, "Topic to talk about (repeatable)")
	generateCmd.Flags().StringVarP(&generateDuration, "duration", "d", "", "Duration class: short, medium or long")
	generateCmd.Flags().StringVarP(&generateLanguage, "language", "l", "", "Language code for speech synthesis")
	generateCmd.Flags().StringVarP(&generateFeed, "feed", "f", "", "RSS or Atom feed to pick a topic from")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if len(generateTopics) == 0 && generateFeed == "" {
		return errors.New("please provide --topic or --feed")
	}

	var duration script.DurationClass
	if generateDuration != "" {
		d, err := script.ParseDurationClass(generateDuration)
		if err != nil {
			return err
		}
		duration = d
	}

	ctx := cmd.Context()
	pipeline, cfg, closeFn, err := openPipeline(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	topics := generateTopics
	if generateFeed != "" {
		topic, err := pipeline.TopicFromFeed(ctx, generateFeed)
		if err != nil {
			return err
		}
		slog.Info("Picked topic from feed", "topic", topic)
		topics = append(topics, topic)
	}

	reqs := make([]app.Request, 0, len(topics))
	for _, topic := range topics {
		reqs = append(reqs, app.Request{Topic: topic, Duration: duration, Language: generateLanguage})
	}

	results, err := pipeline.Batch(ctx, reqs, cfg.Batch.Workers)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		fmt.Println()
		if r.Err != nil {
			failed++
			fmt.Println(app.DescribeFailure(r.Err))
			continue
		}
		fmt.Println(r.Result.Message)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d topics failed", failed, len(results))
	}
	return nil
}
