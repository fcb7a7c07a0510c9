package sealedsecrets

import (
	"os"

	"github.com/jenkins-x/jx-helpers/v3/pkg/files"
	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/yaml"
)

// LoadDocument loads the manifest as a generic document so that fields not modelled by SealedSecret survive a save
func LoadDocument(fileName string) (*unstructured.Unstructured, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load file %s", fileName)
	}
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to convert YAML file %s to JSON", fileName)
	}
	u := &unstructured.Unstructured{}
	err = u.UnmarshalJSON(jsonData)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal file %s", fileName)
	}
	if u.GetKind() != Kind {
		return nil, errors.Errorf("file %s contains a %q resource rather than a %s", fileName, u.GetKind(), Kind)
	}
	return u, nil
}

// SaveDocument saves the generic document to the given file
func SaveDocument(u *unstructured.Unstructured, fileName string) error {
	jsonData, err := u.MarshalJSON()
	if err != nil {
		return errors.Wrapf(err, "failed to marshal %s %s", u.GetKind(), u.GetName())
	}
	data, err := yaml.JSONToYAML(jsonData)
	if err != nil {
		return errors.Wrapf(err, "failed to convert %s %s to YAML", u.GetKind(), u.GetName())
	}
	err = os.WriteFile(fileName, data, files.DefaultFileWritePermissions)
	if err != nil {
		return errors.Wrapf(err, "failed to save file %s", fileName)
	}
	return nil
}

// ModifyFile loads the manifest as a generic document, applies the change and saves it
func ModifyFile(fileName string, fn func(u *unstructured.Unstructured) error) error {
	u, err := LoadDocument(fileName)
	if err != nil {
		return err
	}
	err = fn(u)
	if err != nil {
		return err
	}
	return SaveDocument(u, fileName)
}

// SetDigest records the digest of the value sealed for the given key on the document
func SetDigest(u *unstructured.Unstructured, prefix, key, digest string) error {
	name, err := ValidDigestAnnotation(prefix, key)
	if err != nil {
		return err
	}
	annotations := u.GetAnnotations()
	if annotations == nil {
		annotations = map[string]string{}
	}
	annotations[name] = digest
	u.SetAnnotations(annotations)
	return nil
}

// SetEncryptedData stores the encrypted value for the given key on the document
func SetEncryptedData(u *unstructured.Unstructured, key, encrypted string) error {
	err := unstructured.SetNestedField(u.Object, encrypted, "spec", "encryptedData", key)
	if err != nil {
		return errors.Wrapf(err, "failed to set spec.encryptedData.%s on %s", key, u.GetName())
	}
	return nil
}
