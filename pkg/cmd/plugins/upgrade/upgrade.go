package upgrade

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/plugins"
	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/rootcmd"
	"github.com/jenkins-x/jx-helpers/v3/pkg/cobras/helper"
	"github.com/jenkins-x/jx-helpers/v3/pkg/cobras/templates"
	"github.com/jenkins-x/jx-helpers/v3/pkg/termcolor"
	"github.com/jenkins-x/jx-logging/v3/pkg/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	cmdLong = templates.LongDesc(`
		Upgrades the binary plugins used to seal secrets (the kubeseal and kubectl binaries)
`)

	cmdExample = templates.Examples(`
		# upgrades the plugin binaries
		%s plugins upgrade

		# upgrades the plugin binaries and links them into a bin dir
		%s plugins upgrade --bin /usr/local/bin
	`)
)

// Options the options for upgrading the plugins
type Options struct {
	BinDir          string
	KubesealVersion string
	KubectlVersion  string
	SkipKubectl     bool

	// GetKubesealBinary downloads the kubeseal binary
	GetKubesealBinary func(version string) (string, error)

	// GetKubectlBinary downloads the kubectl binary
	GetKubectlBinary func(version string) (string, error)
}

// NewCmdUpgrade creates a command object for the command
func NewCmdUpgrade() (*cobra.Command, *Options) {
	o := &Options{}

	cmd := &cobra.Command{
		Use:     "upgrade",
		Short:   "Upgrades the binary plugins used to seal secrets (the kubeseal and kubectl binaries)",
		Long:    cmdLong,
		Example: fmt.Sprintf(cmdExample, rootcmd.BinaryName, rootcmd.BinaryName),
		Run: func(cmd *cobra.Command, args []string) {
			err := o.Run()
			helper.CheckErr(err)
		},
	}
	cmd.Flags().StringVarP(&o.BinDir, "bin", "", "", "if set creates a symlink in the bin dir to the plugin binaries")
	cmd.Flags().StringVarP(&o.KubesealVersion, "kubeseal-version", "", plugins.KubesealVersion, "the version of kubeseal to install")
	cmd.Flags().StringVarP(&o.KubectlVersion, "kubectl-version", "", plugins.KubectlVersion, "the version of kubectl to install")
	cmd.Flags().BoolVarP(&o.SkipKubectl, "skip-kubectl", "", false, "skips installing kubectl which is only needed when rendering Secrets with kubectl")

	return cmd, o
}

// Run implements the command
func (o *Options) Run() error {
	if o.GetKubesealBinary == nil {
		o.GetKubesealBinary = plugins.GetKubesealBinary
	}
	if o.GetKubectlBinary == nil {
		o.GetKubectlBinary = plugins.GetKubectlBinary
	}

	log.Logger().Infof("checking we have the correct kubeseal CLI version %s", termcolor.ColorInfo(o.KubesealVersion))
	bin, err := o.GetKubesealBinary(o.KubesealVersion)
	if err != nil {
		return errors.Wrapf(err, "failed to check kubeseal binary")
	}
	err = o.link(bin, plugins.KubesealPluginName)
	if err != nil {
		return err
	}

	if o.SkipKubectl {
		return nil
	}
	log.Logger().Infof("checking we have the correct kubectl CLI version %s", termcolor.ColorInfo(o.KubectlVersion))
	bin, err = o.GetKubectlBinary(o.KubectlVersion)
	if err != nil {
		return errors.Wrapf(err, "failed to check kubectl binary")
	}
	return o.link(bin, plugins.KubectlPluginName)
}

func (o *Options) link(bin, name string) error {
	if o.BinDir == "" {
		return nil
	}
	f := filepath.Join(o.BinDir, name)
	err := os.Remove(f)
	if err != nil && !os.IsNotExist(err) {
		log.Logger().Warnf("failed to remove %s due to %s", f, err.Error())
	}
	err = os.Symlink(bin, f)
	if err != nil {
		return errors.Wrapf(err, "failed to create symlink from %s to %s", bin, f)
	}
	return nil
}
