package sealer

import (
	"bytes"
	"strings"

	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/sealedsecrets"
	"github.com/jenkins-x/jx-helpers/v3/pkg/cmdrunner"
	"github.com/jenkins-x/jx-helpers/v3/pkg/stringhelpers"
	"github.com/pkg/errors"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"
)

// Options the options for invoking kubeseal
type Options struct {
	// KubesealBinary the kubeseal binary
	KubesealBinary string

	// KubectlBinary the kubectl binary used to render Secrets if UseKubectl is enabled
	KubectlBinary string

	// UseKubectl renders the Secret to seal with kubectl rather than in process
	UseKubectl bool

	// Cert the certificate file or URL to seal against rather than fetching it from the controller
	Cert string

	// ControllerName the name of the sealed secrets controller
	ControllerName string

	// ControllerNamespace the namespace of the sealed secrets controller
	ControllerNamespace string

	// Scope the sealing scope
	Scope string

	// CommandRunner runs the commands; defaults to cmdrunner.DefaultCommandRunner
	CommandRunner cmdrunner.CommandRunner
}

// NewSealer creates a new sealer for the given mode
func NewSealer(mode string, o *Options) (Sealer, error) {
	if o == nil {
		o = &Options{}
	}
	if o.KubesealBinary == "" {
		return nil, errors.Errorf("no kubeseal binary specified")
	}
	if o.UseKubectl && o.KubectlBinary == "" {
		return nil, errors.Errorf("no kubectl binary specified")
	}
	if o.Scope != "" && stringhelpers.StringArrayIndex(sealedsecrets.ScopeValues, o.Scope) < 0 {
		return nil, errors.Errorf("unknown scope %s. Possible values: %s", o.Scope, strings.Join(sealedsecrets.ScopeValues, ", "))
	}
	if o.CommandRunner == nil {
		o.CommandRunner = cmdrunner.DefaultCommandRunner
	}
	switch mode {
	case "", ModeMerge:
		return &MergeSealer{Options: o}, nil
	case ModeRaw:
		return &RawSealer{Options: o}, nil
	default:
		return nil, errors.Errorf("unknown sealing mode %s. Possible values: %s", mode, strings.Join(ModeValues, ", "))
	}
}

// kubesealArgs returns the arguments common to all kubeseal invocations
func (o *Options) kubesealArgs() []string {
	var args []string
	if o.Cert != "" {
		args = append(args, "--cert", o.Cert)
	}
	if o.ControllerName != "" {
		args = append(args, "--controller-name", o.ControllerName)
	}
	if o.ControllerNamespace != "" {
		args = append(args, "--controller-namespace", o.ControllerNamespace)
	}
	if o.Scope != "" {
		args = append(args, "--scope", o.Scope)
	}
	return args
}

// run runs the command capturing stdout separately from stderr so warnings never end up in manifests.
// The command line never contains plaintext values as they are passed on stdin
func (o *Options) run(c *cmdrunner.Command) (string, error) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	c.Out = stdout
	c.Err = stderr
	text, err := o.CommandRunner(c)
	if err != nil {
		message := strings.TrimSpace(stderr.String())
		if message != "" {
			return "", errors.Wrapf(err, "failed to run %s: %s", c.CLI(), message)
		}
		return "", errors.Wrapf(err, "failed to run %s", c.CLI())
	}
	if stdout.Len() > 0 {
		return stdout.String(), nil
	}
	return text, nil
}

// secretYAML renders a Secret holding the single key to seal
func (o *Options) secretYAML(req *Request) ([]byte, error) {
	if o.UseKubectl {
		c := &cmdrunner.Command{
			Name: o.KubectlBinary,
			Args: []string{"create", "secret", "generic", req.Name,
				"--namespace", req.Namespace,
				"--dry-run=client",
				"--output", "yaml",
				"--from-file=" + req.Key + "=/dev/stdin",
			},
			In: bytes.NewReader(req.Value),
		}
		text, err := o.run(c)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			return nil, errors.Errorf("no Secret YAML returned by %s", c.CLI())
		}
		return []byte(text), nil
	}

	secret := &corev1.Secret{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "v1",
			Kind:       "Secret",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      req.Name,
			Namespace: req.Namespace,
		},
		Data: map[string][]byte{
			req.Key: req.Value,
		},
	}
	data, err := yaml.Marshal(secret)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal Secret %s to YAML", req.Name)
	}
	return data, nil
}
