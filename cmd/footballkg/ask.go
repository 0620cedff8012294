package footballkg

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/soundprediction/footballkg/pkg/prompts"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question about the graph",
	Long: `Generate a Cypher query for the question from the graph schema, run it
read-only and summarise the rows. Failures are printed as "Error: <message>".`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var (
	askShowQuery bool
	askShowRows  bool
)

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().BoolVar(&askShowQuery, "show-query", false, "print the generated Cypher query")
	askCmd.Flags().BoolVar(&askShowRows, "show-rows", false, "print the rows the query returned")
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	client, err := a.qaClient(ctx, false)
	if err != nil {
		return err
	}

	answer := client.Ask(ctx, strings.Join(args, " "))
	if askShowQuery && answer.Query != "" {
		fmt.Println(color.CyanString(answer.Query))
		fmt.Println()
	}
	if askShowRows && answer.Result != nil {
		rows, _, err := prompts.RecordsToTSV(answer.Result, 0, false)
		if err != nil {
			return err
		}
		fmt.Println(rows)
	}
	fmt.Println(answer.String())
	return nil
}
