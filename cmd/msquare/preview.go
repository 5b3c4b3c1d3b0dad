package main

import (
	"fmt"
	"time"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/aretw0/msquare/internal/cli"
	"github.com/aretw0/msquare/internal/presentation/tui"
	"github.com/aretw0/msquare/pkg/domain"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview the stacking-cards effect in the terminal",
	Long: `Auto-scrolls the portfolio projects through the scroll-stack engine and draws every frame.
The stack section of the config file tunes the effect. Without projects, sample cards are shown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		site, logger, err := openSite(cmd)
		if err != nil {
			return err
		}
		defer site.Close()

		stack, err := site.Config.StackConfig()
		if err != nil {
			return err
		}
		width, _ := cmd.Flags().GetInt("width")
		height, _ := cmd.Flags().GetInt("height")
		category, _ := cmd.Flags().GetString("category")
		linger, _ := cmd.Flags().GetDuration("linger")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		projects, err := site.Portfolio.List(sigCtx, category)
		if err != nil {
			return err
		}

		profile := termenv.ColorProfile()
		tui.PrintBanner(cmd.OutOrStdout(), profile)

		err = cli.RunPreview(sigCtx, cli.PreviewOptions{
			Cards:   projectCards(projects),
			Stack:   stack,
			Width:   width,
			Height:  height,
			FPS:     site.Config.Preview.FPS,
			Step:    site.Config.Preview.ScrollStep,
			Linger:  linger,
			Out:     cmd.OutOrStdout(),
			Profile: profile,
			Hooks:   site.Metrics.StackHooks(),
			Logger:  logger,
		})
		if sig := sigCtx.Signal(); sig != nil {
			cli.PrintSystemMessage(cmd.OutOrStdout(), "Interrupted (%v).", sig)
		}
		return err
	},
}

func projectCards(projects []domain.Project) []tui.CardContent {
	cards := make([]tui.CardContent, 0, len(projects))
	for _, p := range projects {
		body := fmt.Sprintf("**%s** · %s", p.Category, p.Description)
		if len(p.Media) > 0 {
			body += fmt.Sprintf("\n\n_%d media_", len(p.Media))
		}
		cards = append(cards, tui.CardContent{Title: p.Title, Body: body})
	}
	return cards
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().Int("width", 0, "Frame width in columns (default: terminal width)")
	previewCmd.Flags().Int("height", 0, "Frame height in rows (default: terminal height)")
	previewCmd.Flags().String("category", "", "Only preview projects of this category")
	previewCmd.Flags().Duration("linger", 2*time.Second, "How long the final frame stays on screen")
}
