package cli

import (
	"github.com/spf13/cobra"

	"OAIHealthCheck/internal/report"
)

func newIdentifyCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "identify <endpoint|name>",
		Short: "Show what a repository says about itself",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint := opts.app.Config().ResolveEndpoint(args[0])
			id, err := opts.app.Session().Identify(cmd.Context(), endpoint)
			if err != nil {
				return err
			}
			return report.RenderIdentity(cmd.OutOrStdout(), report.NewIdentity(id), opts.output)
		},
	}
}
