package secretsource

import (
	"encoding/base64"
	"encoding/json"
	"sort"
	"strings"

	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/mapping"
	"github.com/pkg/errors"
)

// ErrSecretNotFound returned when a secrets map row references a secret missing from the payload
var ErrSecretNotFound = errors.New("secret not found")

// Source the plaintext secrets keyed by their GitHub secret name
type Source struct {
	values map[string]string
}

// New creates a source from the given values
func New(values map[string]string) *Source {
	if values == nil {
		values = map[string]string{}
	}
	return &Source{values: values}
}

// Parse parses the JSON object of secrets, such as the output of ${{ toJSON(secrets) }}
func Parse(text string) (*Source, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.Errorf("empty secrets JSON")
	}
	raw := map[string]interface{}{}
	err := json.Unmarshal([]byte(text), &raw)
	if err != nil {
		// the error text could include part of a secret so lets not wrap it
		return nil, errors.Errorf("failed to parse secrets JSON: expected an object of string values")
	}
	values := map[string]string{}
	for k, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, errors.Errorf("secret %s is not a string", k)
		}
		values[k] = s
	}
	return New(values), nil
}

// Lookup returns the value of the named secret
func (s *Source) Lookup(name string) (string, error) {
	value, ok := s.values[name]
	if !ok {
		return "", errors.Wrapf(ErrSecretNotFound, "github secret %s", name)
	}
	return value, nil
}

// Value returns the bytes to seal for the given row, decoding base64 if required
func (s *Source) Value(row mapping.Row) ([]byte, error) {
	value, err := s.Lookup(row.GitHubSecretName)
	if err != nil {
		return nil, err
	}
	if !row.Base64Encoded {
		return []byte(value), nil
	}
	data, err := base64.StdEncoding.DecodeString(stripWhitespace(value))
	if err != nil {
		return nil, errors.Errorf("github secret %s is not valid base64", row.GitHubSecretName)
	}
	return data, nil
}

// Names returns the sorted secret names
func (s *Source) Names() []string {
	var answer []string
	for k := range s.values {
		answer = append(answer, k)
	}
	sort.Strings(answer)
	return answer
}

func stripWhitespace(text string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, text)
}
