// Package sourcehost builds links from declarations to their source files
// on a code hosting service.
package sourcehost

import (
	"fmt"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/symdoc/internal/declaration"
	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
)

// Kind names a hosting service.
type Kind string

const (
	GitHub    Kind = "github"
	GitLab    Kind = "gitlab"
	Bitbucket Kind = "bitbucket"
)

// Config describes where sources are hosted.
type Config struct {
	Kind Kind `yaml:"kind"`
	// URL is the repository home page.
	URL string `yaml:"url"`
	// FilesURL is the prefix that file paths relative to Root are appended to.
	FilesURL string `yaml:"files_url"`
	// Root is the local checkout the declaration files live in.
	Root string `yaml:"root"`
}

// Host creates source links for one hosting service.
type Host struct {
	kind     Kind
	url      string
	filesURL string
	root     string
}

// New returns the host described by cfg, or nil when neither URL is set.
func New(cfg Config) (*Host, error) {
	if cfg.URL == "" && cfg.FilesURL == "" {
		return nil, nil
	}
	switch cfg.Kind {
	case "":
		cfg.Kind = GitHub
	case GitHub, GitLab, Bitbucket:
	default:
		return nil, errors.ConfigError("unknown source host").
			WithContext("kind", string(cfg.Kind)).
			Build()
	}

	h := &Host{kind: cfg.Kind, url: cfg.URL, filesURL: strings.TrimSuffix(cfg.FilesURL, "/")}
	if cfg.Root != "" {
		root, err := filepath.EvalSymlinks(cfg.Root)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "cannot resolve source root").
				WithContext("path", cfg.Root).
				Build()
		}
		h.root = root
	}
	return h, nil
}

// Name is the human readable service name.
func (h *Host) Name() string {
	switch h.kind {
	case GitLab:
		return "GitLab"
	case Bitbucket:
		return "Bitbucket"
	default:
		return "GitHub"
	}
}

// Kind is the hosting service.
func (h *Host) Kind() Kind { return h.kind }

// URL is the repository home page.
func (h *Host) URL() string { return h.url }

// ItemURL links to the lines of d in its source file. It returns "" when no
// files URL is configured or the file lies outside the source root.
func (h *Host) ItemURL(d *declaration.Declaration) string {
	if h == nil || h.filesURL == "" || h.root == "" || d.File == "" {
		return ""
	}
	file, err := filepath.EvalSymlinks(d.File)
	if err != nil {
		return ""
	}
	rel, err := filepath.Rel(h.root, file)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}

	link := h.filesURL + "/" + filepath.ToSlash(rel)
	switch {
	case d.StartLine > 0 && d.StartLine != d.EndLine:
		return link + "#" + h.rangeFragment(d.StartLine, d.EndLine)
	case d.Line > 0:
		return link + "#" + h.lineFragment(d.Line)
	default:
		return link
	}
}

func (h *Host) lineFragment(line int) string {
	if h.kind == Bitbucket {
		return fmt.Sprintf("lines-%d", line)
	}
	return fmt.Sprintf("L%d", line)
}

func (h *Host) rangeFragment(start, end int) string {
	if h.kind == Bitbucket {
		return fmt.Sprintf("lines-%d:%d", start, end)
	}
	return fmt.Sprintf("L%d-L%d", start, end)
}
