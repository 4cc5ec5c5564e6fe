package gitkit

import (
	conventionalcommits "github.com/leodido/go-conventionalcommits"
	"github.com/leodido/go-conventionalcommits/parser"
)

// classifyConventional parses a commit message against the Conventional
// Commits specification and returns the extracted metadata, or nil when the
// message does not follow the convention. Parsing is best effort: a valid
// "type(scope): description" first line is enough.
func classifyConventional(message string) *ConventionalMeta {
	if message == "" {
		return nil
	}

	machine := parser.NewMachine(
		conventionalcommits.WithTypes(conventionalcommits.TypesConventional),
		conventionalcommits.WithBestEffort(),
	)

	// Best effort: a parse error with a usable result still yields metadata.
	res, _ := machine.Parse([]byte(message))
	if res == nil {
		return nil
	}

	cc, ok := res.(*conventionalcommits.ConventionalCommit)
	if !ok || !cc.Ok() {
		return nil
	}

	meta := &ConventionalMeta{
		Type:        cc.Type,
		Description: cc.Description,
		Breaking:    cc.IsBreakingChange(),
	}
	if cc.Scope != nil {
		meta.Scope = *cc.Scope
	}

	return meta
}
