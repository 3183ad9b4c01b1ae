package version

// Version is set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/symdoc/internal/version.Version=v0.3.0".
var Version = "unknown"

var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by `symdoc version`.
func String() string {
	return "symdoc " + Version + " (" + GitCommit + ", built " + BuildTime + ")"
}
