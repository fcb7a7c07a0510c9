package sealer

const (
	// ModeMerge seals a whole Secret and merges it into the manifest via kubeseal --merge-into
	ModeMerge = "merge"

	// ModeRaw seals the single value via kubeseal --raw and updates the manifest in process
	ModeRaw = "raw"
)

// ModeValues the supported sealing modes
var ModeValues = []string{ModeMerge, ModeRaw}

// Request a request to seal a single value into a manifest file
type Request struct {
	// ManifestFile the SealedSecret manifest, which must already exist
	ManifestFile string

	// Name the name of the SealedSecret
	Name string

	// Namespace the namespace the SealedSecret is bound to
	Namespace string

	// Key the data key to seal the value into
	Key string

	// Value the plaintext value
	Value []byte
}

// Sealer seals values into SealedSecret manifests
type Sealer interface {
	// Seal encrypts the value and stores it under the key in the manifest file
	Seal(req *Request) error

	// Mode returns the sealing mode
	Mode() string
}
