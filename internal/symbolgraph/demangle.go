package symbolgraph

import (
	"context"
	"os/exec"
	"strings"
	"sync"
)

// Demangler turns a mangled USR into a readable Swift name.
type Demangler interface {
	Demangle(ctx context.Context, usr string) (string, error)
}

// NoopDemangler returns the USR unchanged.
type NoopDemangler struct{}

func (NoopDemangler) Demangle(_ context.Context, usr string) (string, error) {
	return usr, nil
}

// ExecDemangler runs `swift demangle`. The USR's `s:` prefix is rewritten to
// the `s` mangling prefix the tool expects.
type ExecDemangler struct {
	Command string   // default "swift"
	Args    []string // default demangle -simplified -compact
}

func (d ExecDemangler) Demangle(ctx context.Context, usr string) (string, error) {
	command := d.Command
	if command == "" {
		command = "swift"
	}
	args := d.Args
	if len(args) == 0 {
		args = []string{"demangle", "-simplified", "-compact"}
	}
	mangled := usr
	if rest, ok := strings.CutPrefix(usr, "s:"); ok {
		mangled = "s" + rest
	}
	args = append(append([]string{}, args...), mangled)

	// #nosec G204 -- command comes from the configuration file
	cmd := exec.CommandContext(ctx, command, args...)
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// CachingDemangler memoizes another Demangler for the lifetime of one run.
// Failures are not cached.
type CachingDemangler struct {
	next  Demangler
	mu    sync.Mutex
	names map[string]string
}

// NewCachingDemangler wraps next.
func NewCachingDemangler(next Demangler) *CachingDemangler {
	return &CachingDemangler{next: next, names: make(map[string]string)}
}

func (d *CachingDemangler) Demangle(ctx context.Context, usr string) (string, error) {
	d.mu.Lock()
	name, ok := d.names[usr]
	d.mu.Unlock()
	if ok {
		return name, nil
	}
	name, err := d.next.Demangle(ctx, usr)
	if err != nil {
		return "", err
	}
	d.mu.Lock()
	d.names[usr] = name
	d.mu.Unlock()
	return name, nil
}
