package sealedsecrets

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	// APIVersion the api version of SealedSecret resources
	APIVersion = "bitnami.com/v1alpha1"

	// Kind the kind of SealedSecret resources
	Kind = "SealedSecret"

	// AnnotationNamespaceWide the annotation kubeseal adds for namespace-wide scope
	AnnotationNamespaceWide = "sealedsecrets.bitnami.com/namespace-wide"

	// AnnotationClusterWide the annotation kubeseal adds for cluster-wide scope
	AnnotationClusterWide = "sealedsecrets.bitnami.com/cluster-wide"

	// ScopeStrict the secret is bound to its name and namespace
	ScopeStrict = "strict"

	// ScopeNamespaceWide the secret can be renamed within its namespace
	ScopeNamespaceWide = "namespace-wide"

	// ScopeClusterWide the secret can be unsealed in any namespace with any name
	ScopeClusterWide = "cluster-wide"
)

// ScopeValues the supported sealing scopes
var ScopeValues = []string{ScopeStrict, ScopeNamespaceWide, ScopeClusterWide}

// SealedSecret a Kubernetes SealedSecret manifest as written by kubeseal
type SealedSecret struct {
	metav1.TypeMeta `json:",inline"`
	// +optional
	metav1.ObjectMeta `json:"metadata"`

	// Spec the encrypted data and the template of the resulting Secret
	Spec SealedSecretSpec `json:"spec"`
}

// SealedSecretSpec the specification of a SealedSecret
type SealedSecretSpec struct {
	// Template the template used to create the unsealed Secret
	// +optional
	Template SecretTemplateSpec `json:"template,omitempty"`

	// EncryptedData the encrypted values keyed by the Secret data key
	EncryptedData map[string]string `json:"encryptedData"`
}

// SecretTemplateSpec the metadata and type of the unsealed Secret
type SecretTemplateSpec struct {
	// +optional
	metav1.ObjectMeta `json:"metadata,omitempty"`

	// Type the type of the unsealed Secret
	// +optional
	Type corev1.SecretType `json:"type,omitempty"`

	// Data extra non-secret data templated into the unsealed Secret
	// +optional
	Data map[string]string `json:"data,omitempty"`
}
