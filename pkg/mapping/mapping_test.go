package mapping_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/mapping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	fileName := filepath.Join("test_data", "valid.csv")
	rows, err := mapping.LoadFile(fileName)
	require.NoError(t, err, "failed to load %s", fileName)

	expected := []mapping.Row{
		{
			GitHubSecretName: "DB_PASSWORD",
			SealedSecretName: "database",
			DataKey:          "password",
			Line:             3,
		},
		{
			GitHubSecretName: "DB_USER",
			SealedSecretName: "database",
			DataKey:          "username",
			Line:             5,
		},
		{
			GitHubSecretName: "TLS_CERT",
			SealedSecretName: "ingress-tls",
			DataKey:          "tls.crt",
			Base64Encoded:    true,
			Line:             6,
		},
	}
	assert.Equal(t, expected, rows, "rows for %s", fileName)
}

func TestLoadFileColumnsByHeaderName(t *testing.T) {
	fileName := filepath.Join("test_data", "no-base64-column.csv")
	rows, err := mapping.LoadFile(fileName)
	require.NoError(t, err, "failed to load %s", fileName)
	require.Len(t, rows, 1)

	assert.Equal(t, "API_TOKEN", rows[0].GitHubSecretName)
	assert.Equal(t, "api", rows[0].SealedSecretName)
	assert.Equal(t, "token", rows[0].DataKey)
	assert.False(t, rows[0].Base64Encoded)
}

func TestLoadFileErrors(t *testing.T) {
	testCases := []struct {
		file    string
		message string
	}{
		{
			file:    "missing-column.csv",
			message: "missing column sealedsecret_data_key",
		},
		{
			file:    "empty-cell.csv",
			message: "line 3 has an empty sealedsecret_name",
		},
		{
			file:    "bad-bool.csv",
			message: "invalid is_base64_encoded",
		},
		{
			file:    "does-not-exist.csv",
			message: "failed to open",
		},
		{
			file:    "path-name.csv",
			message: `line 3 has an invalid sealedsecret_name "../../../escaped"`,
		},
		{
			file:    "upper-name.csv",
			message: `line 2 has an invalid sealedsecret_name "Database"`,
		},
		{
			file:    "path-key.csv",
			message: `line 2 has an invalid sealedsecret_data_key "../password"`,
		},
		{
			file:    "space-key.csv",
			message: `line 2 has an invalid sealedsecret_data_key "db password"`,
		},
	}

	for _, tc := range testCases {
		fileName := filepath.Join("test_data", tc.file)
		_, err := mapping.LoadFile(fileName)
		require.Error(t, err, "expected error for %s", fileName)
		assert.Contains(t, err.Error(), tc.message, "error for %s", fileName)
	}
}

func TestParseEmpty(t *testing.T) {
	_, err := mapping.Parse(strings.NewReader(""), "empty.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header line")
}

func TestParseBool(t *testing.T) {
	for _, text := range []string{"", "false", "No", "n", "0", " FALSE "} {
		v, err := mapping.ParseBool(text)
		require.NoError(t, err, "for %q", text)
		assert.False(t, v, "for %q", text)
	}
	for _, text := range []string{"true", "Yes", "y", "1", " TRUE"} {
		v, err := mapping.ParseBool(text)
		require.NoError(t, err, "for %q", text)
		assert.True(t, v, "for %q", text)
	}
}

func TestFindFiles(t *testing.T) {
	dir := filepath.Join("test_data", "repo")
	files, err := mapping.FindFiles(dir, mapping.LayoutDefault, "staging")
	require.NoError(t, err, "failed to find files in %s", dir)

	expected := []mapping.File{
		{
			Path:           filepath.Join(dir, "apps", "web", "sealed-secrets", "secrets-map.csv"),
			ManifestDir:    filepath.Join(dir, "apps", "web", "sealed-secrets", "staging"),
			ManifestSuffix: ".yaml",
		},
		{
			Path:           filepath.Join(dir, "sealed-secrets", "secrets-map.csv"),
			ManifestDir:    filepath.Join(dir, "sealed-secrets", "staging"),
			ManifestSuffix: ".yaml",
		},
		{
			Path:                filepath.Join(dir, "sealed-secrets", "staging", "secrets-map.csv"),
			ManifestDir:         filepath.Join(dir, "sealed-secrets", "staging"),
			EnvironmentSpecific: true,
			ManifestSuffix:      ".yaml",
		},
	}
	assert.Equal(t, expected, files)

	assert.Equal(t, filepath.Join(dir, "sealed-secrets", "staging", "database.yaml"), files[1].ManifestFile("database"))
}

func TestFindFilesInvalidEnvironment(t *testing.T) {
	for _, env := range []string{"", "../prod", "prod/eu", "*"} {
		_, err := mapping.FindFiles("test_data", mapping.LayoutDefault, env)
		assert.Error(t, err, "expected error for environment %q", env)
	}
}

func TestFindFilesOverlaysLayout(t *testing.T) {
	dir := filepath.Join("test_data", "overlays")
	files, err := mapping.FindFiles(dir, mapping.LayoutOverlays, "staging")
	require.NoError(t, err, "failed to find files in %s", dir)

	apiDir := filepath.Join(dir, "kubernetes", "api", "overlays", "staging")
	webDir := filepath.Join(dir, "kubernetes", "web", "overlays", "staging")
	usWebDir := filepath.Join(dir, "kubernetes", "web", "overlays", "us-staging", "config")
	expected := []mapping.File{
		{
			Path:                filepath.Join(apiDir, "api-seal-github-secrets-v2.csv"),
			ManifestDir:         apiDir,
			EnvironmentSpecific: true,
			ManifestSuffix:      "_sealedsecret.yaml",
		},
		{
			Path:                filepath.Join(webDir, "seal-github-secrets.csv"),
			ManifestDir:         webDir,
			EnvironmentSpecific: true,
			ManifestSuffix:      "_sealedsecret.yaml",
		},
		{
			Path:                filepath.Join(usWebDir, ".seal-github-secrets.csv"),
			ManifestDir:         usWebDir,
			EnvironmentSpecific: true,
			ManifestSuffix:      "_sealedsecret.yaml",
		},
	}
	assert.Equal(t, expected, files)
	assert.Equal(t, filepath.Join(webDir, "web_sealedsecret.yaml"), files[1].ManifestFile("web"))
}

func TestFindFilesUnknownLayout(t *testing.T) {
	_, err := mapping.FindFiles("test_data", "flat", "staging")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown layout flat")
}
