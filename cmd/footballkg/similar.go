package footballkg

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var similarCmd = &cobra.Command{
	Use:   "similar [text]",
	Short: "List players whose name embedding is closest to the text",
	Long: `Embed the text with the configured embedding model and query the player
vector index for the nearest players by cosine similarity.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSimilar,
}

var similarLimit int

func init() {
	rootCmd.AddCommand(similarCmd)

	similarCmd.Flags().IntVarP(&similarLimit, "limit", "k", 5, "number of players to return")
}

func runSimilar(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	client, err := a.qaClient(ctx, true)
	if err != nil {
		return err
	}

	players, err := client.SimilarPlayers(ctx, strings.Join(args, " "), similarLimit)
	if err != nil {
		return err
	}
	if len(players) == 0 {
		fmt.Println("No players found.")
		return nil
	}
	for i, p := range players {
		fmt.Printf("%2d. %-30s %.4f\n", i+1, p.Name, p.Score)
	}
	return nil
}
