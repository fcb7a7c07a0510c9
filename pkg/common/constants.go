package common

const (
	// EnvNamespace the environment variable holding the namespace the sealed secrets are bound to
	EnvNamespace = "NAMESPACE"

	// EnvEnvironment the environment variable holding the name of the environment (e.g. staging)
	EnvEnvironment = "ENVIRONMENT"

	// EnvSecrets the environment variable holding the JSON object of plaintext secrets,
	// typically populated with ${{ toJSON(secrets) }} in a GitHub Actions workflow
	/* #nosec */
	EnvSecrets = "SECRETS"

	// EnvAnnotationPrefix overrides the prefix of the digest annotations
	EnvAnnotationPrefix = "ANNOTATION_PREFIX"

	// EnvKubesealBinary the path to the kubeseal binary
	EnvKubesealBinary = "KUBESEAL_BIN"

	// EnvKubectlBinary the path to the kubectl binary
	EnvKubectlBinary = "KUBECTL_BIN"

	// EnvKubesealCert the certificate file or URL kubeseal should seal against
	EnvKubesealCert = "KUBESEAL_CERT"

	// EnvKubesealControllerName the name of the sealed secrets controller
	EnvKubesealControllerName = "KUBESEAL_CONTROLLER_NAME"

	// EnvKubesealControllerNamespace the namespace of the sealed secrets controller
	EnvKubesealControllerNamespace = "KUBESEAL_CONTROLLER_NAMESPACE"

	// EnvLogLevel the log level which takes precedence over the verbose flag
	EnvLogLevel = "JX_LOG_LEVEL"

	// DefaultAnnotationPrefix the default prefix of the digest annotations
	DefaultAnnotationPrefix = "sealed-secrets.jenkins-x.io/sync"
)
