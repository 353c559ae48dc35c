package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/quokka/pkg/api"
	"github.com/unowned-ai/quokka/pkg/diary"
)

var (
	genContentFlag    string
	genTypeFlag       string
	genDiaryIDFlag    string
	genComplimentFlag string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Call a single generation endpoint",
	Long: `Calls one endpoint of the generation service and prints the response envelope
{success, data, error}. Useful for checking a deployment or re-requesting media
for an existing diary_id.`,
}

var generateTextCmd = &cobra.Command{
	Use:   "text",
	Short: "Generate the compliment for a diary entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		companion, err := diary.ParseCompanion(genTypeFlag)
		if err != nil {
			return err
		}
		if strings.TrimSpace(genContentFlag) == "" {
			return errors.New("diary content cannot be empty")
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		return printEnvelope(cmd, client.GenerateText(cmd.Context(), genContentFlag, string(companion)))
	},
}

var generateImageCmd = &cobra.Command{
	Use:   "image",
	Short: "Generate the image for a diary_id",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		return printEnvelope(cmd, client.GenerateImage(cmd.Context(), genDiaryIDFlag, genComplimentFlag))
	},
}

var generateVoiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "Generate the voice message for a diary_id",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		return printEnvelope(cmd, client.GenerateVoice(cmd.Context(), genDiaryIDFlag, genComplimentFlag))
	},
}

// printEnvelope prints env and turns an unsuccessful call into the command error.
func printEnvelope(cmd *cobra.Command, env api.Envelope) error {
	if err := printJSON(cmd.OutOrStdout(), env); err != nil {
		return err
	}
	if !env.Success {
		return errors.New(env.Error)
	}
	return nil
}

func initGenerateCmd() {
	generateTextCmd.Flags().StringVarP(&genContentFlag, "content", "c", "", "Diary text (required)")
	generateTextCmd.Flags().StringVarP(&genTypeFlag, "type", "t", "", "Companion type: F or T (required)")
	generateTextCmd.MarkFlagRequired("content")
	generateTextCmd.MarkFlagRequired("type")

	for _, c := range []*cobra.Command{generateImageCmd, generateVoiceCmd} {
		c.Flags().StringVar(&genDiaryIDFlag, "diary-id", "", "diary_id returned by the text call (required)")
		c.Flags().StringVar(&genComplimentFlag, "compliment", "", "Compliment returned by the text call")
		c.MarkFlagRequired("diary-id")
	}

	generateCmd.AddCommand(generateTextCmd, generateImageCmd, generateVoiceCmd)
}
