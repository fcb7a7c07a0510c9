package plugins

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/common"
	jenkinsv1 "github.com/jenkins-x/jx-api/v4/pkg/apis/jenkins.io/v1"
	"github.com/jenkins-x/jx-helpers/v3/pkg/extensions"
	"github.com/jenkins-x/jx-helpers/v3/pkg/homedir"
	"github.com/jenkins-x/jx-logging/v3/pkg/log"
	"github.com/pkg/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	// KubesealPluginName the name of the kubeseal plugin
	KubesealPluginName = "kubeseal"

	// KubectlPluginName the name of the kubectl plugin
	KubectlPluginName = "kubectl"
)

var (
	lookPath = exec.LookPath

	ensurePluginInstalled = extensions.EnsurePluginInstalled
)

// KubesealBinary resolves the kubeseal binary from the given path, $KUBESEAL_BIN, the $PATH
// or by downloading the default version
func KubesealBinary(bin string) (string, error) {
	return resolveBinary(bin, common.EnvKubesealBinary, KubesealPluginName, GetKubesealBinary)
}

// KubectlBinary resolves the kubectl binary from the given path, $KUBECTL_BIN, the $PATH
// or by downloading the default version
func KubectlBinary(bin string) (string, error) {
	return resolveBinary(bin, common.EnvKubectlBinary, KubectlPluginName, GetKubectlBinary)
}

func resolveBinary(bin, envVar, name string, download func(string) (string, error)) (string, error) {
	bin = common.GetEnvIfEmpty(bin, envVar)
	if bin != "" {
		return bin, nil
	}
	path, err := lookPath(name)
	if err == nil && path != "" {
		log.Logger().Debugf("using %s from the PATH at %s", name, path)
		return path, nil
	}
	log.Logger().Debugf("no %s on the PATH so downloading version %s", name, defaultVersion(name))
	return download("")
}

func defaultVersion(name string) string {
	if name == KubectlPluginName {
		return KubectlVersion
	}
	return KubesealVersion
}

// GetKubesealBinary returns the path to the locally installed kubeseal extension
func GetKubesealBinary(version string) (string, error) {
	if version == "" {
		version = KubesealVersion
	}
	pluginBinDir, err := getPluginBinDir()
	if err != nil {
		return "", err
	}
	plugin := CreateKubesealPlugin(version)
	return ensurePluginInstalled(plugin, pluginBinDir)
}

// CreateKubesealPlugin creates the kubeseal plugin
func CreateKubesealPlugin(version string) jenkinsv1.Plugin {
	binaries := extensions.CreateBinaries(func(p extensions.Platform) string {
		return fmt.Sprintf("https://github.com/bitnami-labs/sealed-secrets/releases/download/v%s/kubeseal-%s-%s-%s.tar.gz", version, version, strings.ToLower(p.Goos), strings.ToLower(p.Goarch))
	})

	plugin := jenkinsv1.Plugin{
		ObjectMeta: metav1.ObjectMeta{
			Name: KubesealPluginName,
		},
		Spec: jenkinsv1.PluginSpec{
			SubCommand:  "kubeseal",
			Binaries:    binaries,
			Description: "kubeseal binary",
			Name:        KubesealPluginName,
			Version:     version,
		},
	}
	return plugin
}

// GetKubectlBinary returns the path to the locally installed kubectl extension
func GetKubectlBinary(version string) (string, error) {
	if version == "" {
		version = KubectlVersion
	}
	pluginBinDir, err := getPluginBinDir()
	if err != nil {
		return "", err
	}
	plugin := CreateKubectlPlugin(version)
	return ensurePluginInstalled(plugin, pluginBinDir)
}

// CreateKubectlPlugin creates the kubectl plugin
func CreateKubectlPlugin(version string) jenkinsv1.Plugin {
	binaries := extensions.CreateBinaries(func(p extensions.Platform) string {
		answer := fmt.Sprintf("https://dl.k8s.io/release/v%s/bin/%s/%s/kubectl", version, strings.ToLower(p.Goos), strings.ToLower(p.Goarch))
		if p.IsWindows() {
			answer += ".exe"
		}
		return answer
	})

	plugin := jenkinsv1.Plugin{
		ObjectMeta: metav1.ObjectMeta{
			Name: KubectlPluginName,
		},
		Spec: jenkinsv1.PluginSpec{
			SubCommand:  "kubectl",
			Binaries:    binaries,
			Description: "kubectl binary",
			Name:        KubectlPluginName,
			Version:     version,
		},
	}
	return plugin
}

func getPluginBinDir() (string, error) {
	pluginBinDir, err := homedir.PluginBinDir(os.Getenv("JX_SEALED_SECRETS_HOME"), ".jx-sealed-secrets")
	if err != nil {
		return "", errors.Wrapf(err, "failed to find plugin home dir")
	}
	return pluginBinDir, nil
}
