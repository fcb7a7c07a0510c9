package sync

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/common"
	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/ghactions"
	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/mapping"
	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/plugins"
	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/reconcile"
	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/rootcmd"
	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/sealedsecrets"
	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/sealer"
	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/secretsource"
	"github.com/jenkins-x/jx-helpers/v3/pkg/cmdrunner"
	"github.com/jenkins-x/jx-helpers/v3/pkg/cobras/helper"
	"github.com/jenkins-x/jx-helpers/v3/pkg/cobras/templates"
	"github.com/jenkins-x/jx-helpers/v3/pkg/files"
	"github.com/jenkins-x/jx-helpers/v3/pkg/options"
	"github.com/jenkins-x/jx-helpers/v3/pkg/termcolor"
	"github.com/jenkins-x/jx-logging/v3/pkg/log"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	// CertificatesDir the directory of the per environment sealing certificates of the overlays layout
	CertificatesDir = "certificates"

	// CertificateSuffix the suffix appended to the environment name to give the certificate file name
	CertificateSuffix = "_sealedsecrets.crt"
)

var (
	info = termcolor.ColorInfo

	cmdLong = templates.LongDesc(`
		Seals the GitHub secrets referenced by the secrets-map.csv files into SealedSecret manifests

		Each row of a secrets-map.csv file maps a GitHub secret to a data key of a SealedSecret. A row is only sealed
		with kubeseal if the SHA-256 digest of the secret value differs from the digest annotation recorded on the manifest.
`)

	cmdExample = templates.Examples(`
* seals the secrets passed in the $SECRETS environment variable for the staging environment
` + rootcmd.BashExample("sync --namespace jx-staging --environment staging") + `
* reports which manifests would change without sealing anything
` + rootcmd.BashExample("sync --env-file .env --dry-run") + `
* seals the values one at a time with kubeseal --raw against an offline certificate
` + rootcmd.BashExample("sync --mode raw --cert pub-cert.pem") + `
* seals the *seal-github-secrets*.csv files of the kubernetes/*/overlays/*staging directories
` + rootcmd.BashExample("sync --layout overlays --environment staging") + `
`)
)

// Options contains the command line arguments for this command
type Options struct {
	options.BaseOptions

	Dir                 string
	Layout              string
	Namespace           string
	Environment         string
	Secrets             string
	SecretsFile         string
	EnvFile             string
	AnnotationPrefix    string
	Mode                string
	Scope               string
	KubesealBinary      string
	KubectlBinary       string
	Cert                string
	ControllerName      string
	ControllerNamespace string
	UseKubectl          bool
	DryRun              bool
	CommandRunner       cmdrunner.CommandRunner
	GitHub              *ghactions.Context
	Results             []reconcile.Result
}

// NewCmdSync creates the new command
func NewCmdSync() (*cobra.Command, *Options) {
	o := &Options{}
	command := &cobra.Command{
		Use:     "sync",
		Aliases: []string{"run"},
		Short:   "Seals the GitHub secrets referenced by the secrets-map.csv files into SealedSecret manifests",
		Long:    cmdLong,
		Example: cmdExample,
		Run: func(command *cobra.Command, args []string) {
			err := o.Run()
			if err != nil && o.GitHub != nil {
				o.GitHub.ReportError(os.Stdout, err)
			}
			helper.CheckErr(err)
		},
	}
	command.Flags().StringVarP(&o.Dir, "dir", "d", ".", "the root directory to search for "+mapping.FileName+" files")
	command.Flags().StringVarP(&o.Layout, "layout", "l", mapping.LayoutDefault, "how secrets map files are found and manifests named. Possible values: "+strings.Join(mapping.LayoutValues, ", "))
	command.Flags().StringVarP(&o.Namespace, "namespace", "n", "", "the namespace the SealedSecrets are bound to. Defaults to $"+common.EnvNamespace)
	command.Flags().StringVarP(&o.Environment, "environment", "e", "", "the environment to seal secrets for. Defaults to $"+common.EnvEnvironment)
	command.Flags().StringVarP(&o.Secrets, "secrets", "", "", "the JSON object of GitHub secrets. Defaults to $"+common.EnvSecrets)
	command.Flags().StringVarP(&o.SecretsFile, "secrets-file", "", "", "a file containing the JSON object of GitHub secrets")
	command.Flags().StringVarP(&o.EnvFile, "env-file", "", "", "a dotenv file to load before reading the environment variables. Variables already set are not overridden")
	command.Flags().StringVarP(&o.AnnotationPrefix, "annotation-prefix", "", "", "the prefix of the digest annotations. Defaults to $"+common.EnvAnnotationPrefix+" or "+common.DefaultAnnotationPrefix)
	command.Flags().StringVarP(&o.Mode, "mode", "m", sealer.ModeMerge, "how values are sealed. Possible values: "+strings.Join(sealer.ModeValues, ", "))
	command.Flags().StringVarP(&o.Scope, "scope", "", "", "the kubeseal scope of the SealedSecrets: strict, namespace-wide or cluster-wide")
	command.Flags().StringVarP(&o.KubesealBinary, "kubeseal-bin", "", "", "the kubeseal binary. Defaults to $"+common.EnvKubesealBinary+", the kubeseal on the PATH or a downloaded kubeseal")
	command.Flags().StringVarP(&o.KubectlBinary, "kubectl-bin", "", "", "the kubectl binary. Defaults to $"+common.EnvKubectlBinary+", the kubectl on the PATH or a downloaded kubectl")
	command.Flags().StringVarP(&o.Cert, "cert", "", "", "the certificate file or URL to seal against. Defaults to $"+common.EnvKubesealCert)
	command.Flags().StringVarP(&o.ControllerName, "controller-name", "", "", "the name of the sealed secrets controller. Defaults to $"+common.EnvKubesealControllerName)
	command.Flags().StringVarP(&o.ControllerNamespace, "controller-namespace", "", "", "the namespace of the sealed secrets controller. Defaults to $"+common.EnvKubesealControllerNamespace)
	command.Flags().BoolVarP(&o.UseKubectl, "use-kubectl", "", false, "renders the Secret to seal with kubectl rather than in process")
	command.Flags().BoolVarP(&o.DryRun, "dry-run", "", false, "reports which manifests would change without sealing or writing anything")

	o.BaseOptions.AddBaseFlags(command)
	return command, o
}

// Validate loads the env file and defaults any missing options from the environment
func (o *Options) Validate() error {
	if o.EnvFile != "" {
		err := godotenv.Load(o.EnvFile)
		if err != nil {
			return errors.Wrapf(err, "failed to load env file %s", o.EnvFile)
		}
	}
	common.SetLoggingLevel(o.Verbose)

	o.Namespace = common.GetEnvIfEmpty(o.Namespace, common.EnvNamespace)
	o.Environment = common.GetEnvIfEmpty(o.Environment, common.EnvEnvironment)
	o.AnnotationPrefix = common.GetEnvIfEmpty(o.AnnotationPrefix, common.EnvAnnotationPrefix)
	o.Cert = common.GetEnvIfEmpty(o.Cert, common.EnvKubesealCert)
	o.ControllerName = common.GetEnvIfEmpty(o.ControllerName, common.EnvKubesealControllerName)
	o.ControllerNamespace = common.GetEnvIfEmpty(o.ControllerNamespace, common.EnvKubesealControllerNamespace)
	if o.AnnotationPrefix == "" {
		o.AnnotationPrefix = common.DefaultAnnotationPrefix
	}
	if o.Dir == "" {
		o.Dir = "."
	}
	if o.GitHub == nil {
		o.GitHub = ghactions.FromEnv()
	}

	if o.Namespace == "" {
		return options.MissingOption("namespace")
	}
	if o.Environment == "" {
		return options.MissingOption("environment")
	}
	err := mapping.ValidateEnvironment(o.Environment)
	if err != nil {
		return err
	}
	_, err = mapping.Patterns(o.Layout, o.Environment)
	if err != nil {
		return err
	}
	if o.Layout == mapping.LayoutOverlays {
		err = o.defaultOverlaysOptions()
		if err != nil {
			return err
		}
	}

	if o.Secrets == "" && o.SecretsFile != "" {
		exists, err := files.FileExists(o.SecretsFile)
		if err != nil {
			return errors.Wrapf(err, "failed to check if file exists %s", o.SecretsFile)
		}
		if !exists {
			return errors.Errorf("secrets file %s does not exist", o.SecretsFile)
		}
		data, err := os.ReadFile(o.SecretsFile)
		if err != nil {
			return errors.Wrapf(err, "failed to read secrets file %s", o.SecretsFile)
		}
		o.Secrets = string(data)
	}
	o.Secrets = common.GetEnvIfEmpty(o.Secrets, common.EnvSecrets)
	if strings.TrimSpace(o.Secrets) == "" {
		return errors.Errorf("no secrets specified. Please set $%s or use the --secrets-file option", common.EnvSecrets)
	}
	return nil
}

// Run seals the secrets into the manifests
func (o *Options) Run() error {
	err := o.Validate()
	if err != nil {
		return errors.Wrapf(err, "failed to validate options")
	}

	source, err := secretsource.Parse(o.Secrets)
	if err != nil {
		return errors.Wrapf(err, "failed to parse $%s", common.EnvSecrets)
	}
	log.Logger().Debugf("found GitHub secrets %s", strings.Join(source.Names(), ", "))

	r := &reconcile.Reconciler{
		Dir:              o.Dir,
		Layout:           o.Layout,
		Environment:      o.Environment,
		Namespace:        o.Namespace,
		AnnotationPrefix: o.AnnotationPrefix,
		Scope:            o.Scope,
		Secrets:          source,
		DryRun:           o.DryRun,
	}
	if !o.DryRun {
		r.Sealer, err = o.createSealer()
		if err != nil {
			return errors.Wrapf(err, "failed to create sealer")
		}
	}

	err = r.Run()
	o.Results = r.Results
	if err != nil {
		return err
	}

	changed := r.ChangedResults()
	if o.DryRun {
		log.Logger().Infof("%s of %s rows would be sealed", info(strconv.Itoa(len(changed))), info(strconv.Itoa(len(r.Results))))
	} else {
		log.Logger().Infof("sealed %s of %s rows", info(strconv.Itoa(len(changed))), info(strconv.Itoa(len(r.Results))))
	}
	return o.writeGitHubOutputs(changed)
}

// defaultOverlaysOptions seals namespace-wide against the certificate of the environment if present
func (o *Options) defaultOverlaysOptions() error {
	if o.Scope == "" {
		o.Scope = sealedsecrets.ScopeNamespaceWide
	}
	if o.Cert != "" {
		return nil
	}
	certFile := filepath.Join(o.Dir, CertificatesDir, o.Environment+CertificateSuffix)
	exists, err := files.FileExists(certFile)
	if err != nil {
		return errors.Wrapf(err, "failed to check if file exists %s", certFile)
	}
	if exists {
		log.Logger().Debugf("sealing against certificate %s", info(certFile))
		o.Cert = certFile
	}
	return nil
}

func (o *Options) createSealer() (sealer.Sealer, error) {
	if o.CommandRunner == nil {
		o.CommandRunner = cmdrunner.DefaultCommandRunner
	}
	var err error
	o.KubesealBinary, err = plugins.KubesealBinary(o.KubesealBinary)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to find kubeseal binary")
	}
	if o.UseKubectl {
		o.KubectlBinary, err = plugins.KubectlBinary(o.KubectlBinary)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to find kubectl binary")
		}
	}
	return sealer.NewSealer(o.Mode, &sealer.Options{
		KubesealBinary:      o.KubesealBinary,
		KubectlBinary:       o.KubectlBinary,
		UseKubectl:          o.UseKubectl,
		Cert:                o.Cert,
		ControllerName:      o.ControllerName,
		ControllerNamespace: o.ControllerNamespace,
		Scope:               o.Scope,
		CommandRunner:       o.CommandRunner,
	})
}

func (o *Options) writeGitHubOutputs(changed []reconcile.Result) error {
	var manifests []string
	for _, r := range changed {
		manifests = append(manifests, o.relativePath(r.ManifestFile))
	}
	manifests = uniqueStrings(manifests)

	err := o.GitHub.WriteOutputs(map[string]string{
		"changed-files": strings.Join(manifests, "\n"),
		"changed-count": strconv.Itoa(len(manifests)),
	})
	if err != nil {
		return errors.Wrapf(err, "failed to write GitHub outputs")
	}
	err = o.GitHub.AppendSummary(o.summaryMarkdown(changed))
	if err != nil {
		return errors.Wrapf(err, "failed to write GitHub step summary")
	}
	return nil
}

// summaryMarkdown renders the changed rows as a markdown table. It never includes secret values
func (o *Options) summaryMarkdown(changed []reconcile.Result) string {
	buf := strings.Builder{}
	title := "Sealed secrets"
	if o.DryRun {
		title = "Sealed secrets (dry run)"
	}
	buf.WriteString(fmt.Sprintf("### %s for environment `%s`\n\n", title, o.Environment))
	if len(changed) == 0 {
		buf.WriteString("All sealed secrets are up to date.\n\n")
		return buf.String()
	}
	buf.WriteString("| GitHub secret | SealedSecret | key | manifest | status |\n")
	buf.WriteString("|---|---|---|---|---|\n")
	for _, r := range changed {
		buf.WriteString(fmt.Sprintf("| `%s` | `%s` | `%s` | `%s` | %s |\n", r.Row.GitHubSecretName, r.Row.SealedSecretName, r.Row.DataKey, o.relativePath(r.ManifestFile), string(r.Status)))
	}
	buf.WriteString("\n")
	return buf.String()
}

func (o *Options) relativePath(path string) string {
	rel, err := filepath.Rel(o.Dir, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func uniqueStrings(values []string) []string {
	var answer []string
	seen := map[string]bool{}
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			answer = append(answer, v)
		}
	}
	return answer
}
