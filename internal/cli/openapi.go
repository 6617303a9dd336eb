package cli

import (
	"encoding/json"
	"fmt"

	"blogapp/docs"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewOpenAPICommand creates the openapi command, which prints the API description.
func NewOpenAPICommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Print the OpenAPI (swagger 2.0) document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw := docs.SwaggerInfo.ReadDoc()

			switch format {
			case "json":
				_, err := fmt.Fprintln(cmd.OutOrStdout(), raw)
				return err
			case "yaml":
				var doc map[string]any
				if err := json.Unmarshal([]byte(raw), &doc); err != nil {
					return fmt.Errorf("decode swagger doc: %w", err)
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(doc); err != nil {
					return err
				}
				return enc.Close()
			default:
				return fmt.Errorf("invalid format %q: must be yaml or json", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "output format (yaml|json)")
	return cmd
}
