package sealer

import (
	"bytes"

	"github.com/jenkins-x/jx-helpers/v3/pkg/cmdrunner"
)

// MergeSealer seals a Secret holding the value and merges it into the existing manifest
type MergeSealer struct {
	*Options
}

// Mode returns the sealing mode
func (s *MergeSealer) Mode() string {
	return ModeMerge
}

// Seal runs kubeseal --merge-into with the Secret on stdin
func (s *MergeSealer) Seal(req *Request) error {
	secretYAML, err := s.secretYAML(req)
	if err != nil {
		return err
	}
	args := []string{"--format", "yaml", "--merge-into", req.ManifestFile}
	args = append(args, s.kubesealArgs()...)
	c := &cmdrunner.Command{
		Name: s.KubesealBinary,
		Args: args,
		In:   bytes.NewReader(secretYAML),
	}
	_, err = s.run(c)
	return err
}
