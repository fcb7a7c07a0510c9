package cmd

import (
	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/cmd/plugins"
	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/cmd/sync"
	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/cmd/version"
	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/rootcmd"
	"github.com/jenkins-x/jx-helpers/v3/pkg/cobras"
	"github.com/jenkins-x/jx-logging/v3/pkg/log"
	"github.com/spf13/cobra"
)

// Main creates the new command
func Main() *cobra.Command {
	cmd := &cobra.Command{
		Annotations: map[string]string{
			cobra.CommandDisplayNameAnnotation: rootcmd.TopLevelCommand,
		},
		Short: "commands for sealing GitHub secrets into SealedSecret manifests using kubeseal",
		Run: func(cmd *cobra.Command, args []string) {
			err := cmd.Help()
			if err != nil {
				log.Logger().Error(err.Error())
			}
		},
	}
	cmd.AddCommand(cobras.SplitCommand(sync.NewCmdSync()))
	cmd.AddCommand(cobras.SplitCommand(version.NewCmdVersion()))
	cmd.AddCommand(plugins.NewCmdPlugins())
	return cmd
}
