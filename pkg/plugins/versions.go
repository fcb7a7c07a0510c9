package plugins

const (
	// KubesealVersion the default version of kubeseal to use
	KubesealVersion = "0.24.5"

	// KubectlVersion the default version of kubectl to use
	KubectlVersion = "1.27.9"
)
