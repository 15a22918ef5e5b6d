package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	analyzeOutput string
	analyzeDump   string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <deck.pptx>",
	Short: "Analyze a slide deck for inconsistencies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		deckPath := args[0]
		if _, err := os.Stat(deckPath); err != nil {
			return eris.Wrapf(err, "deck %s", deckPath)
		}

		e, err := initPipeline(ctx, analyzeDump)
		if err != nil {
			return err
		}
		defer e.Close()

		report, err := e.Pipeline.Run(ctx, deckPath)
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal report")
		}
		data = append(data, '\n')

		if analyzeOutput == "" || analyzeOutput == "-" {
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(analyzeOutput, data, 0o644); err != nil {
			return eris.Wrapf(err, "write report to %s", analyzeOutput)
		}
		zap.L().Info("report written", zap.String("path", analyzeOutput))
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "write report to file (default stdout)")
	analyzeCmd.Flags().StringVar(&analyzeDump, "dump-response", "", "write the raw model reply to file for debugging")
	rootCmd.AddCommand(analyzeCmd)
}
