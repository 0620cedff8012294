package footballkg

import (
	"fmt"

	"github.com/soundprediction/footballkg/pkg/schema"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the graph schema given to the query generator",
	RunE:  runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	d, err := a.driver(ctx)
	if err != nil {
		return err
	}
	s, err := schema.NewIntrospector(d, a.logger).Fetch(ctx)
	if err != nil {
		return err
	}
	if s.Empty() {
		fmt.Println("The graph is empty.")
		return nil
	}
	fmt.Println(s.String())
	return nil
}
