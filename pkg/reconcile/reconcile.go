package reconcile

import (
	"os"

	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/mapping"
	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/sealedsecrets"
	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/sealer"
	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/secretsource"
	"github.com/jenkins-x/jx-helpers/v3/pkg/termcolor"
	"github.com/jenkins-x/jx-logging/v3/pkg/log"
	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Status the outcome of reconciling a single row
type Status string

const (
	// StatusUnchanged the digest matched so nothing was sealed
	StatusUnchanged Status = "unchanged"

	// StatusSealed the value was sealed into an existing manifest
	StatusSealed Status = "sealed"

	// StatusCreated the manifest was created and the value sealed into it
	StatusCreated Status = "created"
)

var info = termcolor.ColorInfo

// Result the result of reconciling a single row
type Result struct {
	// File the secrets map file of the row
	File string

	// Row the secrets map row
	Row mapping.Row

	// ManifestFile the SealedSecret manifest
	ManifestFile string

	// Status the outcome
	Status Status
}

// Changed returns true if the manifest was or would be modified
func (r *Result) Changed() bool {
	return r.Status != StatusUnchanged
}

// Reconciler ensures the manifests referenced by the secrets map files are sealed with the current secret values
type Reconciler struct {
	// Dir the root directory to search for secrets map files
	Dir string

	// Layout the repository layout used to find secrets map files and name manifests
	Layout string

	// Environment the environment name used to find secrets map files and manifest directories
	Environment string

	// Namespace the namespace the SealedSecrets are bound to
	Namespace string

	// AnnotationPrefix the prefix of the digest annotations
	AnnotationPrefix string

	// Scope the sealing scope of newly created manifests
	Scope string

	// Secrets the plaintext secrets
	Secrets *secretsource.Source

	// Sealer seals the values
	Sealer sealer.Sealer

	// DryRun reports what would change without sealing or writing anything
	DryRun bool

	// Results the results of the rows processed so far
	Results []Result
}

// Run processes every row of every secrets map file stopping at the first error
func (r *Reconciler) Run() error {
	err := r.validate()
	if err != nil {
		return err
	}
	files, err := mapping.FindFiles(r.Dir, r.Layout, r.Environment)
	if err != nil {
		return errors.Wrapf(err, "failed to find secrets map files in dir %s", r.Dir)
	}
	if len(files) == 0 {
		log.Logger().Warnf("no secrets map files found in dir %s for layout %s and environment %s", r.Dir, r.Layout, r.Environment)
		return nil
	}
	for i := range files {
		err = r.processFile(&files[i])
		if err != nil {
			return err
		}
	}
	return nil
}

// ChangedResults returns the results which modified a manifest
func (r *Reconciler) ChangedResults() []Result {
	var answer []Result
	for _, result := range r.Results {
		if result.Changed() {
			answer = append(answer, result)
		}
	}
	return answer
}

func (r *Reconciler) validate() error {
	if r.Namespace == "" {
		return errors.Errorf("missing namespace")
	}
	if r.Secrets == nil {
		return errors.Errorf("missing secrets")
	}
	if r.Sealer == nil && !r.DryRun {
		return errors.Errorf("missing sealer")
	}
	if r.AnnotationPrefix == "" {
		return errors.Errorf("missing annotation prefix")
	}
	_, err := sealedsecrets.ValidDigestAnnotation(r.AnnotationPrefix, "key")
	if err != nil {
		return errors.Wrapf(err, "invalid annotation prefix %s", r.AnnotationPrefix)
	}
	if r.Layout == "" {
		r.Layout = mapping.LayoutDefault
	}
	if r.Dir == "" {
		r.Dir = "."
	}
	return nil
}

func (r *Reconciler) processFile(f *mapping.File) error {
	rows, err := mapping.LoadFile(f.Path)
	if err != nil {
		return err
	}
	log.Logger().Debugf("processing %d rows of %s", len(rows), info(f.Path))

	for _, row := range rows {
		result, err := r.processRow(f, row)
		if err != nil {
			return errors.Wrapf(err, "failed to process %s line %d for secret %s", f.Path, row.Line, row.GitHubSecretName)
		}
		r.Results = append(r.Results, *result)
	}
	return nil
}

func (r *Reconciler) processRow(f *mapping.File, row mapping.Row) (*Result, error) {
	result := &Result{
		File:         f.Path,
		Row:          row,
		ManifestFile: f.ManifestFile(row.SealedSecretName),
		Status:       StatusSealed,
	}
	manifestFile := result.ManifestFile

	_, err := sealedsecrets.ValidDigestAnnotation(r.AnnotationPrefix, row.DataKey)
	if err != nil {
		return nil, err
	}
	value, err := r.Secrets.Value(row)
	if err != nil {
		return nil, err
	}
	digest := sealedsecrets.Digest(value)

	ss, exists, err := sealedsecrets.Load(manifestFile)
	if err != nil {
		return nil, err
	}
	if exists {
		if ss.Namespace != "" && ss.Namespace != r.Namespace {
			return nil, errors.Errorf("manifest %s is bound to namespace %s but the namespace is %s", manifestFile, ss.Namespace, r.Namespace)
		}
		if ss.RecordedDigest(r.AnnotationPrefix, row.DataKey) == digest && ss.HasData(row.DataKey) {
			log.Logger().Infof("%s key %s is unchanged", info(row.SealedSecretName), info(row.DataKey))
			result.Status = StatusUnchanged
			return result, nil
		}
	} else {
		ss = sealedsecrets.New(row.SealedSecretName, r.Namespace, r.Scope)
		result.Status = StatusCreated
	}

	if r.DryRun {
		log.Logger().Infof("would seal %s key %s into %s", info(row.SealedSecretName), info(row.DataKey), info(manifestFile))
		return result, nil
	}

	if !exists {
		err = ss.Save(manifestFile)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create manifest %s", manifestFile)
		}
		log.Logger().Infof("created empty SealedSecret %s", info(manifestFile))
	}

	err = r.Sealer.Seal(&sealer.Request{
		ManifestFile: manifestFile,
		Name:         row.SealedSecretName,
		Namespace:    r.Namespace,
		Key:          row.DataKey,
		Value:        value,
	})
	if err != nil {
		if !exists {
			removeErr := os.Remove(manifestFile)
			if removeErr != nil && !os.IsNotExist(removeErr) {
				log.Logger().Warnf("failed to remove %s due to %s", manifestFile, removeErr.Error())
			}
		}
		return nil, errors.Wrapf(err, "failed to seal %s key %s", row.SealedSecretName, row.DataKey)
	}

	// the sealer rewrites the manifest so the digest is patched onto whatever it wrote
	err = sealedsecrets.ModifyFile(manifestFile, func(u *unstructured.Unstructured) error {
		return sealedsecrets.SetDigest(u, r.AnnotationPrefix, row.DataKey, digest)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to record digest in %s", manifestFile)
	}
	log.Logger().Infof("sealed %s key %s into %s", info(row.SealedSecretName), info(row.DataKey), info(manifestFile))
	return result, nil
}
