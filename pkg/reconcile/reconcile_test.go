package reconcile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/reconcile"
	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/sealedsecrets"
	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/sealer"
	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/secretsource"
	"github.com/jenkins-x/jx-helpers/v3/pkg/cmdrunner"
	"github.com/jenkins-x/jx-helpers/v3/pkg/cmdrunner/fakerunner"
	"github.com/jenkins-x/jx-helpers/v3/pkg/files"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

const prefix = "sealed-secrets.jenkins-x.io/sync"

func TestUnchangedDigestDoesNotSeal(t *testing.T) {
	dir := copyTestData(t, "unchanged")
	manifestFile := filepath.Join(dir, "sealed-secrets", "staging", "database.yaml")
	before, err := os.ReadFile(manifestFile)
	require.NoError(t, err)

	runner := &fakerunner.FakeRunner{}
	r := newReconciler(t, dir, runner, map[string]string{"DB_PASSWORD": "s3cr3t"})

	err = r.Run()
	require.NoError(t, err, "failed to reconcile")

	assert.Empty(t, runner.OrderedCommands, "should not have invoked any commands")
	require.Len(t, r.Results, 1)
	assert.Equal(t, reconcile.StatusUnchanged, r.Results[0].Status)
	assert.Empty(t, r.ChangedResults())

	after, err := os.ReadFile(manifestFile)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "manifest should not be modified")
}

func TestChangedDigestSealsOnce(t *testing.T) {
	dir := copyTestData(t, "unchanged")
	manifestFile := filepath.Join(dir, "sealed-secrets", "staging", "database.yaml")

	runner := &fakerunner.FakeRunner{}
	r := newReconciler(t, dir, runner, map[string]string{"DB_PASSWORD": "n3w-s3cr3t"})

	err := r.Run()
	require.NoError(t, err, "failed to reconcile")

	require.Len(t, runner.OrderedCommands, 1, "should have invoked kubeseal once")
	c := runner.OrderedCommands[0]
	assert.Equal(t, "kubeseal", c.Name)
	assert.Equal(t, []string{"--format", "yaml", "--merge-into", manifestFile}, c.Args)

	require.Len(t, r.Results, 1)
	assert.Equal(t, reconcile.StatusSealed, r.Results[0].Status)
	assert.Equal(t, manifestFile, r.Results[0].ManifestFile)

	ss, exists, err := sealedsecrets.Load(manifestFile)
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, sealedsecrets.Digest([]byte("n3w-s3cr3t")), ss.RecordedDigest(prefix, "password"))
}

func TestMixedRows(t *testing.T) {
	dir := copyTestData(t, "mixed")

	runner := &fakerunner.FakeRunner{}
	r := newReconciler(t, dir, runner, map[string]string{
		"DB_PASSWORD":   "s3cr3t",
		"DB_USER":       "admin",
		"WEB_API_TOKEN": "dG9rZW4=",
	})

	err := r.Run()
	require.NoError(t, err, "failed to reconcile")

	webManifest := filepath.Join(dir, "apps", "web", "sealed-secrets", "staging", "web.yaml")
	dbManifest := filepath.Join(dir, "sealed-secrets", "staging", "database.yaml")

	require.Len(t, r.Results, 3)
	assert.Equal(t, reconcile.StatusCreated, r.Results[0].Status)
	assert.Equal(t, webManifest, r.Results[0].ManifestFile)
	assert.Equal(t, reconcile.StatusUnchanged, r.Results[1].Status)
	assert.Equal(t, reconcile.StatusSealed, r.Results[2].Status)
	assert.Equal(t, "username", r.Results[2].Row.DataKey)
	assert.Len(t, r.ChangedResults(), 2)

	require.Len(t, runner.OrderedCommands, 2, "should have sealed the two changed rows")
	assert.Equal(t, []string{"--format", "yaml", "--merge-into", webManifest}, runner.OrderedCommands[0].Args)
	assert.Equal(t, []string{"--format", "yaml", "--merge-into", dbManifest}, runner.OrderedCommands[1].Args)

	web, exists, err := sealedsecrets.Load(webManifest)
	require.NoError(t, err)
	require.True(t, exists, "should have created %s", webManifest)
	assert.Equal(t, "web", web.Name)
	assert.Equal(t, "jx-staging", web.Namespace)
	assert.Equal(t, sealedsecrets.Digest([]byte("token")), web.RecordedDigest(prefix, "token"), "should record the digest of the decoded value")

	db, _, err := sealedsecrets.Load(dbManifest)
	require.NoError(t, err)
	assert.Equal(t, sealedsecrets.Digest([]byte("s3cr3t")), db.RecordedDigest(prefix, "password"))
	assert.Equal(t, sealedsecrets.Digest([]byte("admin")), db.RecordedDigest(prefix, "username"))
}

func TestMissingSecretFails(t *testing.T) {
	dir := copyTestData(t, "mixed")

	runner := &fakerunner.FakeRunner{}
	r := newReconciler(t, dir, runner, map[string]string{
		"DB_PASSWORD":   "s3cr3t",
		"WEB_API_TOKEN": "dG9rZW4=",
	})

	err := r.Run()
	require.Error(t, err, "should fail as DB_USER is missing")
	assert.True(t, errors.Is(err, secretsource.ErrSecretNotFound), "should be ErrSecretNotFound but was %s", err.Error())
	assert.Contains(t, err.Error(), "line 3 for secret DB_USER")
	assert.Contains(t, err.Error(), "github secret DB_USER: secret not found")

	// the rows before the failure were processed, nothing after it
	assert.Len(t, r.Results, 2)
	assert.Len(t, runner.OrderedCommands, 1)
}

func TestDryRun(t *testing.T) {
	dir := copyTestData(t, "mixed")

	r := &reconcile.Reconciler{
		Dir:              dir,
		Environment:      "staging",
		Namespace:        "jx-staging",
		AnnotationPrefix: prefix,
		Secrets: secretsource.New(map[string]string{
			"DB_PASSWORD":   "s3cr3t",
			"DB_USER":       "admin",
			"WEB_API_TOKEN": "dG9rZW4=",
		}),
		DryRun: true,
	}
	err := r.Run()
	require.NoError(t, err, "failed to reconcile")

	assert.Len(t, r.ChangedResults(), 2)
	webManifest := filepath.Join(dir, "apps", "web", "sealed-secrets", "staging", "web.yaml")
	exists, err := files.FileExists(webManifest)
	require.NoError(t, err)
	assert.False(t, exists, "dry run should not create %s", webManifest)
}

func TestNamespaceMismatch(t *testing.T) {
	dir := copyTestData(t, "unchanged")

	runner := &fakerunner.FakeRunner{}
	r := newReconciler(t, dir, runner, map[string]string{"DB_PASSWORD": "s3cr3t"})
	r.Namespace = "jx-production"

	err := r.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is bound to namespace jx-staging but the namespace is jx-production")
	assert.Empty(t, runner.OrderedCommands)
}

func TestNoFiles(t *testing.T) {
	runner := &fakerunner.FakeRunner{}
	r := newReconciler(t, t.TempDir(), runner, map[string]string{})

	err := r.Run()
	require.NoError(t, err)
	assert.Empty(t, r.Results)
	assert.Empty(t, runner.OrderedCommands)
}

func newReconciler(t *testing.T, dir string, runner *fakerunner.FakeRunner, secrets map[string]string) *reconcile.Reconciler {
	s, err := sealer.NewSealer(sealer.ModeMerge, &sealer.Options{
		KubesealBinary: "kubeseal",
		CommandRunner:  runner.Run,
	})
	require.NoError(t, err, "failed to create sealer")

	return &reconcile.Reconciler{
		Dir:              dir,
		Environment:      "staging",
		Namespace:        "jx-staging",
		AnnotationPrefix: prefix,
		Secrets:          secretsource.New(secrets),
		Sealer:           s,
	}
}

func copyTestData(t *testing.T, name string) string {
	dir := t.TempDir()
	srcDir := filepath.Join("test_data", name)
	err := files.CopyDirOverwrite(srcDir, dir)
	require.NoError(t, err, "failed to copy %s to %s", srcDir, dir)
	return dir
}

func TestSealKeepsUnknownManifestFields(t *testing.T) {
	dir := copyTestData(t, "immutable")
	manifestFile := filepath.Join(dir, "sealed-secrets", "staging", "database.yaml")

	runner := &fakerunner.FakeRunner{}
	r := newReconciler(t, dir, runner, map[string]string{"DB_PASSWORD": "n3w-s3cr3t"})

	err := r.Run()
	require.NoError(t, err, "failed to reconcile")
	require.Len(t, runner.OrderedCommands, 1)

	u, err := sealedsecrets.LoadDocument(manifestFile)
	require.NoError(t, err)
	immutable, found, err := unstructured.NestedBool(u.Object, "spec", "template", "immutable")
	require.NoError(t, err)
	assert.True(t, found && immutable, "spec.template.immutable should survive recording the digest")
	assert.Equal(t, sealedsecrets.Digest([]byte("n3w-s3cr3t")), u.GetAnnotations()[sealedsecrets.DigestAnnotation(prefix, "password")])
}

func TestFailedSealRemovesNewManifest(t *testing.T) {
	dir := copyTestData(t, "mixed")
	webManifest := filepath.Join(dir, "apps", "web", "sealed-secrets", "staging", "web.yaml")

	runner := &fakerunner.FakeRunner{
		CommandRunner: func(c *cmdrunner.Command) (string, error) {
			return "", errors.New("exit status 1")
		},
	}
	r := newReconciler(t, dir, runner, map[string]string{
		"DB_PASSWORD":   "s3cr3t",
		"DB_USER":       "admin",
		"WEB_API_TOKEN": "dG9rZW4=",
	})

	err := r.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to seal web key token")
	require.Len(t, runner.OrderedCommands, 1)

	exists, err := files.FileExists(webManifest)
	require.NoError(t, err)
	assert.False(t, exists, "should have removed the empty manifest %s", webManifest)
}

func TestFailedSealKeepsExistingManifest(t *testing.T) {
	dir := copyTestData(t, "unchanged")
	manifestFile := filepath.Join(dir, "sealed-secrets", "staging", "database.yaml")
	before, err := os.ReadFile(manifestFile)
	require.NoError(t, err)

	runner := &fakerunner.FakeRunner{
		CommandRunner: func(c *cmdrunner.Command) (string, error) {
			return "", errors.New("exit status 1")
		},
	}
	r := newReconciler(t, dir, runner, map[string]string{"DB_PASSWORD": "n3w-s3cr3t"})

	err = r.Run()
	require.Error(t, err)

	after, err := os.ReadFile(manifestFile)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestDataKeyTooLongForAnnotation(t *testing.T) {
	dir := t.TempDir()
	csvFile := filepath.Join(dir, "sealed-secrets", "secrets-map.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(csvFile), files.DefaultDirWritePermissions))
	err := os.WriteFile(csvFile, []byte("github_secret_name,sealedsecret_name,sealedsecret_data_key\nCONN,storage,A_VERY_LONG_DATA_KEY_WHICH_DOES_NOT_FIT_IN_AN_ANNOTATION\n"), files.DefaultFileWritePermissions)
	require.NoError(t, err)

	runner := &fakerunner.FakeRunner{}
	r := newReconciler(t, dir, runner, map[string]string{"CONN": "connection"})

	err = r.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid digest annotation")
	assert.Empty(t, runner.OrderedCommands)

	exists, err := files.FileExists(filepath.Join(dir, "sealed-secrets", "staging", "storage.yaml"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInvalidAnnotationPrefix(t *testing.T) {
	runner := &fakerunner.FakeRunner{}
	r := newReconciler(t, t.TempDir(), runner, map[string]string{})
	r.AnnotationPrefix = "a/b/c"

	err := r.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid annotation prefix a/b/c")
}

func TestSealedSecretNameOutsideDir(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "repo")
	csvFile := filepath.Join(dir, "sealed-secrets", "secrets-map.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(csvFile), files.DefaultDirWritePermissions))
	err := os.WriteFile(csvFile, []byte("github_secret_name,sealedsecret_name,sealedsecret_data_key\nA,../../../escaped,k\n"), files.DefaultFileWritePermissions)
	require.NoError(t, err)

	runner := &fakerunner.FakeRunner{}
	r := newReconciler(t, dir, runner, map[string]string{"A": "value"})

	err = r.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid sealedsecret_name")
	assert.Empty(t, runner.OrderedCommands)

	exists, err := files.FileExists(filepath.Join(parent, "escaped.yaml"))
	require.NoError(t, err)
	assert.False(t, exists, "should not write outside of %s", dir)
}
