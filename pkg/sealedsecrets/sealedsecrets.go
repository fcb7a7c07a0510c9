package sealedsecrets

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jenkins-x/jx-helpers/v3/pkg/files"
	"github.com/pkg/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/validation"
	"sigs.k8s.io/yaml"
)

// New creates an empty SealedSecret with no data fields
func New(name, namespace, scope string) *SealedSecret {
	ss := &SealedSecret{
		TypeMeta: metav1.TypeMeta{
			APIVersion: APIVersion,
			Kind:       Kind,
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
		},
		Spec: SealedSecretSpec{
			Template: SecretTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Name:      name,
					Namespace: namespace,
				},
			},
			EncryptedData: map[string]string{},
		},
	}
	switch scope {
	case ScopeNamespaceWide:
		ss.SetAnnotation(AnnotationNamespaceWide, "true")
	case ScopeClusterWide:
		ss.SetAnnotation(AnnotationClusterWide, "true")
	}
	return ss
}

// DigestAnnotation returns the annotation recording the digest of the given data key
func DigestAnnotation(prefix, key string) string {
	return fmt.Sprintf("%s.data.%s.sha256", prefix, key)
}

// ValidDigestAnnotation returns the digest annotation for the key or an error if it is not a valid annotation name
func ValidDigestAnnotation(prefix, key string) (string, error) {
	name := DigestAnnotation(prefix, key)
	errs := validation.IsQualifiedName(name)
	if len(errs) > 0 {
		return "", errors.Errorf("invalid digest annotation %s for data key %s: %s", name, key, strings.Join(errs, "; "))
	}
	return name, nil
}

// Digest returns the hex encoded SHA-256 of the plaintext value
func Digest(value []byte) string {
	sum := sha256.Sum256(value)
	return hex.EncodeToString(sum[:])
}

// Load loads the manifest file returning false if it does not exist
func Load(fileName string) (*SealedSecret, bool, error) {
	exists, err := files.FileExists(fileName)
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to check if file exists %s", fileName)
	}
	if !exists {
		return nil, false, nil
	}
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to load file %s", fileName)
	}
	ss := &SealedSecret{}
	err = yaml.Unmarshal(data, ss)
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to unmarshal YAML file %s", fileName)
	}
	if ss.Kind != Kind {
		return nil, false, errors.Errorf("file %s contains a %q resource rather than a %s", fileName, ss.Kind, Kind)
	}
	if ss.Spec.EncryptedData == nil {
		ss.Spec.EncryptedData = map[string]string{}
	}
	return ss, true, nil
}

// Save saves the manifest to the given file, creating the parent directory if required
func (s *SealedSecret) Save(fileName string) error {
	dir := filepath.Dir(fileName)
	err := os.MkdirAll(dir, files.DefaultDirWritePermissions)
	if err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal SealedSecret %s to YAML", s.Name)
	}
	err = os.WriteFile(fileName, data, files.DefaultFileWritePermissions)
	if err != nil {
		return errors.Wrapf(err, "failed to save file %s", fileName)
	}
	return nil
}

// HasData returns true if there is an encrypted value for the given key
func (s *SealedSecret) HasData(key string) bool {
	return s.Spec.EncryptedData[key] != ""
}

// RecordedDigest returns the digest last sealed for the given key or an empty string
func (s *SealedSecret) RecordedDigest(prefix, key string) string {
	return s.Annotations[DigestAnnotation(prefix, key)]
}

// SetAnnotation sets an annotation lazily creating the map
func (s *SealedSecret) SetAnnotation(name, value string) {
	if s.Annotations == nil {
		s.Annotations = map[string]string{}
	}
	s.Annotations[name] = value
}
