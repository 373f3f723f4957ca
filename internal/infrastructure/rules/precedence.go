package rules

import (
	"path"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/ports"
)

// Precedence step names, in evaluation order.
const (
	StepSafeCommand         = "safe-command"
	StepSafePattern         = "safe-pattern"
	StepAdditionalSafe      = "additional-safe"
	StepDangerousCommand    = "dangerous-command"
	StepDangerousPattern    = "dangerous-pattern"
	StepAdditionalDangerous = "additional-dangerous"
	StepProductionWrite     = "production-write"
	StepCustomRule          = "custom-rule"
	StepDefault             = "default"
)

// input is a command prepared once for every step.
type input struct {
	command string
	lower   string
	names   []string
	ctx     domain.ExecContext
}

type step struct {
	name    string
	verdict domain.Verdict
	match   func(in input) (*domain.Rule, string, bool)
}

// buildPrecedence returns the ordered list walked by ResolveCommand. The
// first step that matches decides the verdict.
func (s *Store) buildPrecedence() []step {
	return []step{
		{name: StepSafeCommand, verdict: domain.VerdictSafe, match: s.matchSafeCommand},
		{name: StepSafePattern, verdict: domain.VerdictSafe, match: s.matchSafePattern},
		{name: StepAdditionalSafe, verdict: domain.VerdictSafe, match: s.matchAdditionalSafe},
		{name: StepDangerousCommand, verdict: domain.VerdictDangerous, match: s.matchDangerousCommand},
		{name: StepDangerousPattern, verdict: domain.VerdictDangerous, match: s.matchDangerousPattern},
		{name: StepAdditionalDangerous, verdict: domain.VerdictDangerous, match: s.matchAdditionalDangerous},
		{name: StepProductionWrite, verdict: domain.VerdictDangerous, match: s.matchProductionWrite},
		{name: StepCustomRule, verdict: domain.VerdictCustom, match: s.matchCustom},
	}
}

// Steps lists the precedence step names in evaluation order.
func (s *Store) Steps() []string {
	names := make([]string, 0, len(s.precedence)+1)
	for _, st := range s.precedence {
		names = append(names, st.name)
	}
	return append(names, StepDefault)
}

// ResolveCommand walks the precedence list for one command line.
func (s *Store) ResolveCommand(command string, execCtx domain.ExecContext) ports.Resolution {
	command = strings.TrimSpace(command)
	in := input{
		command: command,
		lower:   strings.ToLower(command),
		names:   commandNames(command),
		ctx:     execCtx,
	}
	for _, st := range s.precedence {
		rule, reason, ok := st.match(in)
		if !ok {
			continue
		}
		return ports.Resolution{Verdict: st.verdict, Rule: rule, Step: st.name, Reason: reason}
	}
	return ports.Resolution{
		Verdict: domain.VerdictDefault,
		Step:    StepDefault,
		Reason:  "Command not in safe list",
	}
}

func (s *Store) matchSafeCommand(in input) (*domain.Rule, string, bool) {
	for i := range s.safeCommands {
		rule := &s.safeCommands[i]
		if in.command == rule.Pattern {
			return rule, "Command is in safe list", true
		}
	}
	for i := range s.safeCommands {
		rule := &s.safeCommands[i]
		if strings.HasPrefix(in.command, rule.Pattern+" ") {
			return rule, "Command starts with safe command: " + rule.Pattern, true
		}
	}
	return nil, "", false
}

func (s *Store) matchSafePattern(in input) (*domain.Rule, string, bool) {
	for i := range s.safePatterns {
		m := &s.safePatterns[i]
		if m.Re.MatchString(in.command) {
			return &m.Rule, "Command matches safe pattern: " + m.Rule.Pattern, true
		}
	}
	return nil, "", false
}

func (s *Store) matchAdditionalSafe(in input) (*domain.Rule, string, bool) {
	for i := range s.additionalSafe {
		rule := &s.additionalSafe[i]
		if strings.HasPrefix(in.command, rule.Pattern) {
			return rule, "Command in custom safe list: " + rule.Pattern, true
		}
	}
	return nil, "", false
}

func (s *Store) matchDangerousCommand(in input) (*domain.Rule, string, bool) {
	for _, name := range in.names {
		idx, ok := s.dangerousByName[name]
		if !ok {
			idx, ok = s.dangerousByName[path.Base(name)]
		}
		if ok {
			rule := &s.dangerousCommands[idx]
			return rule, "Command '" + rule.Pattern + "' requires approval", true
		}
	}
	return nil, "", false
}

func (s *Store) matchDangerousPattern(in input) (*domain.Rule, string, bool) {
	for i := range s.dangerousPatterns {
		m := &s.dangerousPatterns[i]
		if m.Re.MatchString(in.command) {
			return &m.Rule, "Command matches dangerous pattern: " + m.Rule.Label(), true
		}
	}
	return nil, "", false
}

func (s *Store) matchAdditionalDangerous(in input) (*domain.Rule, string, bool) {
	for i := range s.additionalDangerous {
		rule := &s.additionalDangerous[i]
		if strings.HasPrefix(in.command, rule.Pattern) {
			return rule, "Command in custom dangerous list: " + rule.Pattern, true
		}
	}
	return nil, "", false
}

// matchProductionWrite is a bare substring test. It over-blocks words such as
// "created" in file names and misses synonyms; it stays fail-closed.
func (s *Store) matchProductionWrite(in input) (*domain.Rule, string, bool) {
	if !s.productionGuard || !in.ctx.IsProduction() {
		return nil, "", false
	}
	for i := range s.writeKeywords {
		rule := &s.writeKeywords[i]
		if strings.Contains(in.lower, rule.Pattern) {
			return rule, "Write operation in production environment", true
		}
	}
	return nil, "", false
}

func (s *Store) matchCustom(in input) (*domain.Rule, string, bool) {
	for i := range s.custom {
		m := &s.custom[i]
		if m.Re.MatchString(in.command) {
			return &m.Rule, m.Rule.Reason, true
		}
	}
	return nil, "", false
}

// commandNames returns the first whitespace token followed by the name of
// every simple command in the line, including those nested in pipelines,
// lists and substitutions. Lines the shell parser rejects fall back to the
// first token.
func commandNames(command string) []string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil
	}
	names := []string{fields[0]}

	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	file, err := parser.Parse(strings.NewReader(command), "")
	if err != nil {
		return names
	}
	syntax.Walk(file, func(node syntax.Node) bool {
		call, ok := node.(*syntax.CallExpr)
		if !ok || len(call.Args) == 0 {
			return true
		}
		if lit := call.Args[0].Lit(); lit != "" && lit != fields[0] {
			names = append(names, lit)
		}
		return true
	})
	return names
}
