package inspector

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// maxDepth bounds directory recursion so that deeply nested trees and
// symlink cycles cannot stall an inspection. Symlinked directories are never
// followed.
const maxDepth = 32

// containerManifests are the only filenames that mark a tree as
// container-enabled, checked at the tree root. Intentionally not generalized
// to other Dockerfile-like names.
var containerManifests = []string{"Dockerfile", "docker-compose.yml"}

// dependencyManifests is the fixed catalog of package-manager manifests and
// lockfiles searched for, in reporting order.
var dependencyManifests = []string{
	"package.json", "package-lock.json", "yarn.lock", "pnpm-lock.yaml",
	"requirements.txt", "Pipfile.lock", "poetry.lock",
	"pom.xml", "build.gradle", "gradle.lockfile",
	"go.mod", "go.sum",
	"Cargo.toml", "Cargo.lock",
	"Gemfile", "Gemfile.lock",
	"composer.lock",
}

// languageCatalog maps a language tag to the file extensions that mark it
// present. Order is the reporting order.
var languageCatalog = []struct {
	tag  string
	exts []string
}{
	{"java", []string{".java"}},
	{"cpp", []string{".cpp", ".c", ".h", ".hpp"}},
	{"go", []string{".go"}},
	{"javascript", []string{".js", ".jsx", ".ts", ".tsx"}},
	{"python", []string{".py"}},
	{"csharp", []string{".cs"}},
}

// Result classifies a staged content tree. It is embedded into the scan
// configuration rather than persisted on its own.
type Result struct {
	Languages       []string `json:"languages"`
	HasDockerfile   bool     `json:"has_dockerfile"`
	HasDependencies bool     `json:"has_dependencies"`
	DependencyFiles []string `json:"dependency_files"`
}

// Inspector walks staged trees read-only.
type Inspector struct {
	logger hclog.Logger
}

func New(logger hclog.Logger) *Inspector {
	return &Inspector{logger: logger}
}

// Inspect classifies the tree rooted at rootPath. Each dependency manifest
// pattern contributes at most its first discovery; a tree with several
// package.json files surfaces only one path. This mirrors the platform's
// historical behavior and is a known limitation, not exhaustive enumeration.
// Unreadable subtrees are skipped; only an unreadable root is an error.
func (i *Inspector) Inspect(rootPath string) (*Result, error) {
	if _, err := os.Stat(rootPath); err != nil {
		return nil, fmt.Errorf("failed to inspect %q: %w", rootPath, err)
	}

	result := &Result{
		Languages:       []string{},
		DependencyFiles: []string{},
	}

	for _, name := range containerManifests {
		if _, err := os.Stat(filepath.Join(rootPath, name)); err == nil {
			result.HasDockerfile = true
			break
		}
	}

	state := &walkState{
		extensions: make(map[string]struct{}),
		depFiles:   make(map[string]string),
	}
	var walkErrs *multierror.Error
	i.walk(rootPath, rootPath, 0, state, &walkErrs)
	if err := walkErrs.ErrorOrNil(); err != nil {
		i.logger.Warn("inspection skipped unreadable entries", "root", rootPath, "error", err)
	}

	for _, name := range dependencyManifests {
		if rel, ok := state.depFiles[name]; ok {
			result.DependencyFiles = append(result.DependencyFiles, rel)
			result.HasDependencies = true
		}
	}

	for _, lang := range languageCatalog {
		for _, ext := range lang.exts {
			if _, ok := state.extensions[ext]; ok {
				result.Languages = append(result.Languages, lang.tag)
				break
			}
		}
	}

	return result, nil
}

type walkState struct {
	extensions map[string]struct{}
	depFiles   map[string]string
}

func (i *Inspector) walk(root, dir string, depth int, state *walkState, walkErrs **multierror.Error) {
	if depth > maxDepth {
		i.logger.Warn("max inspection depth reached, not descending", "dir", dir, "depth", depth)
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		*walkErrs = multierror.Append(*walkErrs, err)
		return
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			i.walk(root, path, depth+1, state, walkErrs)
			continue
		}
		if entry.Type()&os.ModeSymlink != 0 {
			continue
		}

		if ext := strings.ToLower(filepath.Ext(entry.Name())); ext != "" {
			state.extensions[ext] = struct{}{}
		}

		if _, seen := state.depFiles[entry.Name()]; !seen && isDependencyManifest(entry.Name()) {
			if rel, err := filepath.Rel(root, path); err == nil {
				state.depFiles[entry.Name()] = rel
			}
		}
	}
}

func isDependencyManifest(name string) bool {
	for _, manifest := range dependencyManifests {
		if name == manifest {
			return true
		}
	}
	return false
}
