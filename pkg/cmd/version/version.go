package version

import (
	"fmt"

	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/rootcmd"
	"github.com/jenkins-x/jx-helpers/v3/pkg/cobras/helper"
	"github.com/jenkins-x/jx-helpers/v3/pkg/cobras/templates"
	"github.com/jenkins-x/jx-helpers/v3/pkg/termcolor"
	"github.com/jenkins-x/jx-logging/v3/pkg/log"
	"github.com/spf13/cobra"
)

// Build information. Populated at build-time.
var (
	Version      string
	BuildDate    string
	GitCommit    string
	GitTreeState string
	GoVersion    string
)

const (
	// TestVersion used in test cases for the current version if no
	// version can be found - such as if the version property is not properly
	// included in the go test flags.
	TestVersion = "0.0.1"
)

var (
	cmdLong = templates.LongDesc(`
		Displays the version of this command
`)

	cmdExample = templates.Examples(`
		# displays the version of this command
		%s version
	`)
)

// Options the options for the version command
type Options struct {
	Short bool
}

// NewCmdVersion creates a command object for the command
func NewCmdVersion() (*cobra.Command, *Options) {
	o := &Options{}

	cmd := &cobra.Command{
		Use:     "version",
		Short:   "Displays the version of this command",
		Long:    cmdLong,
		Example: fmt.Sprintf(cmdExample, rootcmd.BinaryName),
		Run: func(cmd *cobra.Command, args []string) {
			err := o.Run()
			helper.CheckErr(err)
		},
	}
	cmd.Flags().BoolVarP(&o.Short, "short", "s", false, "only displays the version number")
	return cmd, o
}

// Run implements the command
func (o *Options) Run() error {
	if o.Short {
		log.Logger().Info(GetVersion())
		return nil
	}
	log.Logger().Infof("version: %s", termcolor.ColorInfo(GetVersion()))
	log.Logger().Infof("shaCommit: %s", termcolor.ColorInfo(GitCommit))
	log.Logger().Infof("buildDate: %s", termcolor.ColorInfo(BuildDate))
	log.Logger().Infof("goVersion: %s", termcolor.ColorInfo(GoVersion))
	log.Logger().Infof("gitTreeState: %s", termcolor.ColorInfo(GitTreeState))
	return nil
}

// GetVersion gets the current version string
func GetVersion() string {
	v := Version
	if v == "" {
		v = TestVersion
	}
	return v
}
