package mapping

import (
	"path/filepath"
)

const (
	// FileName the name of a secrets map file
	FileName = "secrets-map.csv"

	// DirName the name of the directory holding secrets map files and sealed secret manifests
	DirName = "sealed-secrets"

	// ManifestSuffix the suffix appended to the SealedSecret name to give the manifest file name
	ManifestSuffix = ".yaml"

	// OverlaysRootDir the directory holding the kustomize applications of the overlays layout
	OverlaysRootDir = "kubernetes"

	// OverlaysFilePattern matches the secrets map files of the overlays layout, including dot files
	OverlaysFilePattern = "*seal-github-secrets*.csv"

	// OverlaysManifestSuffix the manifest file name suffix of the overlays layout
	OverlaysManifestSuffix = "_sealedsecret.yaml"

	// ColumnGitHubSecretName the column holding the name of the GitHub secret
	ColumnGitHubSecretName = "github_secret_name"

	// ColumnSealedSecretName the column holding the name of the SealedSecret
	ColumnSealedSecretName = "sealedsecret_name"

	// ColumnDataKey the column holding the data key inside the SealedSecret
	ColumnDataKey = "sealedsecret_data_key"

	// ColumnBase64Encoded the optional column indicating the GitHub secret value is base64 encoded
	ColumnBase64Encoded = "is_base64_encoded"
)

// RequiredColumns the columns every secrets map file must have
var RequiredColumns = []string{ColumnGitHubSecretName, ColumnSealedSecretName, ColumnDataKey}

// Row a single mapping of a GitHub secret into a SealedSecret data key
type Row struct {
	// GitHubSecretName the name of the secret in the GitHub secrets payload
	GitHubSecretName string

	// SealedSecretName the name of the SealedSecret and its manifest file
	SealedSecretName string

	// DataKey the key of the data field inside the SealedSecret
	DataKey string

	// Base64Encoded if the GitHub secret value is base64 encoded and should be decoded before sealing
	Base64Encoded bool

	// Line the line number in the CSV file for error messages
	Line int
}

// File a secrets map file discovered in the repository
type File struct {
	// Path the path of the CSV file
	Path string

	// ManifestDir the directory the sealed secret manifests of this file are written to
	ManifestDir string

	// EnvironmentSpecific true if the file lives in an environment directory
	EnvironmentSpecific bool

	// ManifestSuffix the suffix appended to SealedSecret names to give manifest file names
	ManifestSuffix string
}

// ManifestFile returns the manifest file name for the given SealedSecret name
func (f *File) ManifestFile(sealedSecretName string) string {
	suffix := f.ManifestSuffix
	if suffix == "" {
		suffix = ManifestSuffix
	}
	return filepath.Join(f.ManifestDir, sealedSecretName+suffix)
}
