package sourcehost

import (
	stderrors "errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5"

	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
)

// Repository is what Discover learns about the checkout holding the sources.
type Repository struct {
	Root      string
	RemoteURL string
	Commit    string
}

// Discover opens the git repository containing dir and reads its origin
// remote and HEAD commit.
func Discover(dir string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryGit, "no git repository found").
			WithContext("path", dir).
			Build()
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryGit, "repository has no worktree").
			WithContext("path", dir).
			Build()
	}

	out := &Repository{Root: wt.Filesystem.Root()}
	remote, err := repo.Remote("origin")
	switch {
	case err == nil:
		if urls := remote.Config().URLs; len(urls) > 0 {
			out.RemoteURL = urls[0]
		}
	case stderrors.Is(err, git.ErrRemoteNotFound):
	default:
		return nil, errors.WrapError(err, errors.CategoryGit, "failed to read origin remote").Build()
	}

	if head, err := repo.Head(); err == nil {
		out.Commit = head.Hash().String()
	} else {
		slog.Debug("Repository has no HEAD commit", logfields.Path(out.Root), logfields.Error(err))
	}
	return out, nil
}

// Config derives a source host configuration linking to files at the
// discovered commit. ok is false when the remote is not a recognizable
// hosting service URL or there is no commit.
func (r *Repository) Config() (cfg Config, ok bool) {
	web, ok := webURL(r.RemoteURL)
	if !ok || r.Commit == "" {
		return Config{}, false
	}
	u, _ := url.Parse(web)
	kind := GitHub
	switch {
	case strings.Contains(u.Host, "gitlab"):
		kind = GitLab
	case strings.Contains(u.Host, "bitbucket"):
		kind = Bitbucket
	}

	files := web + "/blob/" + r.Commit
	switch kind {
	case GitLab:
		files = web + "/-/blob/" + r.Commit
	case Bitbucket:
		files = web + "/src/" + r.Commit
	}
	return Config{Kind: kind, URL: web, FilesURL: files, Root: r.Root}, true
}

// webURL turns a clone URL into the https address of the repository.
func webURL(remote string) (string, bool) {
	remote = strings.TrimSpace(remote)
	if remote == "" {
		return "", false
	}
	// scp-like syntax: git@host:owner/repo.git
	if !strings.Contains(remote, "://") {
		at := strings.Index(remote, "@")
		colon := strings.Index(remote, ":")
		if colon <= at+1 {
			return "", false
		}
		remote = "ssh://" + remote[:colon] + "/" + remote[colon+1:]
	}
	u, err := url.Parse(remote)
	if err != nil || u.Host == "" {
		return "", false
	}
	switch u.Scheme {
	case "http", "https", "ssh", "git":
	default:
		return "", false
	}
	path := strings.TrimSuffix(strings.Trim(u.Path, "/"), ".git")
	if path == "" {
		return "", false
	}
	return "https://" + u.Hostname() + "/" + path, true
}
