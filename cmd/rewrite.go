package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/theapemachine/senseable-go/pkg/pipeline"
	"github.com/theapemachine/senseable-go/pkg/saf"
)

var (
	textFlag    string
	userFlag    string
	styleFlag   string
	jsonFlag    bool
	cultureFlag []string

	rewriteCmd = &cobra.Command{
		Use:   "rewrite",
		Short: "Rewrite a single text from the command line",
		Long:  longRewrite,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := textFlag
			if text == "" {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return err
				}
				text = strings.TrimSpace(string(data))
			}

			if text == "" {
				return fmt.Errorf("no text given, use --text or pipe via stdin")
			}

			system, err := bootstrap()
			if err != nil {
				return err
			}

			opts := pipeline.Options{CultureTags: cultureFlag}
			if styleFlag != "" {
				opts.Style = saf.RewriteStyle(styleFlag)
			}

			result, err := system.pipeline.Rewrite(cmd.Context(), text, userFlag, opts)
			if err != nil {
				return err
			}

			if jsonFlag {
				return json.NewEncoder(os.Stdout).Encode(result)
			}

			fmt.Println(result.Output)
			for _, decision := range result.Decisions {
				fmt.Fprintf(os.Stderr, "  %q -> %q: %s\n",
					decision.Expr.Surface, decision.Replacement, decision.Justification)
			}

			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(rewriteCmd)

	rewriteCmd.Flags().StringVarP(&textFlag, "text", "t", "", "Text to rewrite (reads stdin when omitted)")
	rewriteCmd.Flags().StringVarP(&userFlag, "user", "u", "anonymous", "User profile to rewrite for")
	rewriteCmd.Flags().StringVar(&styleFlag, "style", "", "Rewrite style override (minimal, gentle, full)")
	rewriteCmd.Flags().StringSliceVar(&cultureFlag, "culture", nil, "Culture tag overrides")
	rewriteCmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the full result as JSON")
}

var longRewrite = `
Rewrite one text and print the result.

Examples:
  senseable-go rewrite --text "Her voice was a glistening bell" --user alice

  echo "The silence was deafening" | senseable-go rewrite --style gentle
`
