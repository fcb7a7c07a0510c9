package mapping

import (
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

var environmentNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

const (
	// LayoutDefault finds secrets-map.csv files in sealed-secrets directories
	LayoutDefault = "default"

	// LayoutOverlays finds *seal-github-secrets*.csv files in kustomize overlay directories of the environment
	LayoutOverlays = "overlays"
)

// LayoutValues the supported repository layouts
var LayoutValues = []string{LayoutDefault, LayoutOverlays}

// Pattern a glob pattern used to discover secrets map files
type Pattern struct {
	Glob                string
	EnvironmentSpecific bool
	ManifestSuffix      string
}

// Patterns returns the fixed glob patterns for the given layout and environment
func Patterns(layout, environment string) ([]Pattern, error) {
	switch layout {
	case "", LayoutDefault:
		return []Pattern{
			{
				Glob:           path.Join("**", DirName, FileName),
				ManifestSuffix: ManifestSuffix,
			},
			{
				Glob:                path.Join("**", DirName, environment, FileName),
				EnvironmentSpecific: true,
				ManifestSuffix:      ManifestSuffix,
			},
		}, nil
	case LayoutOverlays:
		return []Pattern{
			{
				Glob:                path.Join(OverlaysRootDir, "*", "overlays", "*"+environment, "**", OverlaysFilePattern),
				EnvironmentSpecific: true,
				ManifestSuffix:      OverlaysManifestSuffix,
			},
		}, nil
	default:
		return nil, errors.Errorf("unknown layout %s. Possible values: %s", layout, strings.Join(LayoutValues, ", "))
	}
}

// ValidateEnvironment verifies the environment name can be used as a single directory name
func ValidateEnvironment(environment string) error {
	if environment == "" {
		return errors.Errorf("missing environment name")
	}
	if !environmentNameRegex.MatchString(environment) {
		return errors.Errorf("invalid environment name %q: must only contain letters, digits, '.', '_' or '-'", environment)
	}
	return nil
}

// FindFiles finds the secrets map files in the given directory for the layout and environment
func FindFiles(dir, layout, environment string) ([]File, error) {
	err := ValidateEnvironment(environment)
	if err != nil {
		return nil, err
	}
	patterns, err := Patterns(layout, environment)
	if err != nil {
		return nil, err
	}
	fsys := os.DirFS(dir)

	var answer []File
	found := map[string]bool{}
	for _, p := range patterns {
		matches, err := doublestar.Glob(fsys, p.Glob)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to glob %s in dir %s", p.Glob, dir)
		}
		for _, m := range matches {
			if found[m] {
				continue
			}
			found[m] = true

			fileName := filepath.Join(dir, filepath.FromSlash(m))
			manifestDir := filepath.Dir(fileName)
			if !p.EnvironmentSpecific {
				manifestDir = filepath.Join(manifestDir, environment)
			}
			answer = append(answer, File{
				Path:                fileName,
				ManifestDir:         manifestDir,
				EnvironmentSpecific: p.EnvironmentSpecific,
				ManifestSuffix:      p.ManifestSuffix,
			})
		}
	}
	sort.Slice(answer, func(i, j int) bool {
		return answer[i].Path < answer[j].Path
	})
	return answer, nil
}
