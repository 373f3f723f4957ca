package dependency

import (
	"golang.org/x/mod/modfile"
)

// parseGoMod lists every require directive, indirect ones included.
func parseGoMod(path string, content []byte) ([]declared, error) {
	f, err := modfile.Parse(path, content, nil)
	if err != nil {
		return nil, err
	}
	deps := make([]declared, 0, len(f.Require))
	for _, r := range f.Require {
		line := 0
		if r.Syntax != nil {
			line = r.Syntax.Start.Line
		}
		deps = append(deps, declared{Name: r.Mod.Path, Version: r.Mod.Version, Line: line})
	}
	return deps, nil
}
