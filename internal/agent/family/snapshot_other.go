//go:build !windows

package family

// NewOSSnapshot returns a Snapshot for non-Windows builds. The agent's
// production target is Windows (§1 of the specification); this stub exists
// only so the package compiles and its pure-logic tests (which supply their
// own fake Snapshot) run on any developer machine.
func NewOSSnapshot() Snapshot { return osSnapshot{} }

type osSnapshot struct{}

func (osSnapshot) Processes() ([]ProcessInfo, error) {
	return nil, nil
}
