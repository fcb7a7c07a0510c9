package sealer

import (
	"bytes"
	"strings"

	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/sealedsecrets"
	"github.com/jenkins-x/jx-helpers/v3/pkg/cmdrunner"
	"github.com/jenkins-x/jx-helpers/v3/pkg/files"
	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// RawSealer seals the single value with kubeseal --raw and writes the result into the manifest
type RawSealer struct {
	*Options
}

// Mode returns the sealing mode
func (s *RawSealer) Mode() string {
	return ModeRaw
}

// Seal runs kubeseal --raw with the value on stdin
func (s *RawSealer) Seal(req *Request) error {
	exists, err := files.FileExists(req.ManifestFile)
	if err != nil {
		return errors.Wrapf(err, "failed to check if file exists %s", req.ManifestFile)
	}
	if !exists {
		return errors.Errorf("manifest %s does not exist", req.ManifestFile)
	}

	args := []string{"--raw", "--name", req.Name, "--namespace", req.Namespace, "--from-file=/dev/stdin"}
	args = append(args, s.kubesealArgs()...)
	c := &cmdrunner.Command{
		Name: s.KubesealBinary,
		Args: args,
		In:   bytes.NewReader(req.Value),
	}
	text, err := s.run(c)
	if err != nil {
		return err
	}
	encrypted := strings.TrimSpace(text)
	if encrypted == "" {
		return errors.Errorf("no encrypted value returned by %s", c.CLI())
	}
	return sealedsecrets.ModifyFile(req.ManifestFile, func(u *unstructured.Unstructured) error {
		return sealedsecrets.SetEncryptedData(u, req.Key, encrypted)
	})
}
