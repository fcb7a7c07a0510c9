package mapping

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/util/validation"
)

// LoadFile loads the rows of the given secrets map file
func LoadFile(fileName string) ([]Row, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", fileName)
	}
	defer f.Close()

	return Parse(f, fileName)
}

// Parse parses the header driven CSV rows from the reader
func Parse(r io.Reader, fileName string) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.Errorf("file %s has no header line", fileName)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read header of %s", fileName)
	}
	columns := map[string]int{}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		columns[name] = i
	}
	for _, c := range RequiredColumns {
		if _, ok := columns[c]; !ok {
			return nil, errors.Errorf("file %s is missing column %s", fileName, c)
		}
	}
	base64Column, hasBase64Column := columns[ColumnBase64Encoded]

	var answer []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s", fileName)
		}
		line, _ := reader.FieldPos(0)
		if isBlank(record) {
			continue
		}

		cell := func(name string) (string, error) {
			idx := columns[name]
			value := ""
			if idx < len(record) {
				value = strings.TrimSpace(record[idx])
			}
			if value == "" {
				return "", errors.Errorf("file %s line %d has an empty %s", fileName, line, name)
			}
			return value, nil
		}

		row := Row{Line: line}
		row.GitHubSecretName, err = cell(ColumnGitHubSecretName)
		if err != nil {
			return nil, err
		}
		row.SealedSecretName, err = cell(ColumnSealedSecretName)
		if err != nil {
			return nil, err
		}
		row.DataKey, err = cell(ColumnDataKey)
		if err != nil {
			return nil, err
		}
		if errs := validation.IsDNS1123Subdomain(row.SealedSecretName); len(errs) > 0 {
			return nil, errors.Errorf("file %s line %d has an invalid %s %q: %s", fileName, line, ColumnSealedSecretName, row.SealedSecretName, strings.Join(errs, "; "))
		}
		if errs := validation.IsConfigMapKey(row.DataKey); len(errs) > 0 {
			return nil, errors.Errorf("file %s line %d has an invalid %s %q: %s", fileName, line, ColumnDataKey, row.DataKey, strings.Join(errs, "; "))
		}
		if hasBase64Column && base64Column < len(record) {
			row.Base64Encoded, err = ParseBool(record[base64Column])
			if err != nil {
				return nil, errors.Wrapf(err, "file %s line %d has an invalid %s", fileName, line, ColumnBase64Encoded)
			}
		}
		answer = append(answer, row)
	}
	return answer, nil
}

// ParseBool parses the boolean flags used in secrets map files. An empty value is false
func ParseBool(text string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "false", "no", "n", "0":
		return false, nil
	case "true", "yes", "y", "1":
		return true, nil
	default:
		return false, errors.Errorf("unknown boolean value %q", text)
	}
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
