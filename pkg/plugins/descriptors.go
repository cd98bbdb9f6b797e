package plugins

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/freshtechbro/skillstack/pkg/catalog"
	"github.com/freshtechbro/skillstack/pkg/skills"
)

// maxAgentSummary caps the skill description excerpt embedded in agent files
const maxAgentSummary = 200

// synthesizeCommands derives one command per automation script, in sorted
// script order. Skills without scripts get deterministic generic setup and
// help commands instead. A non-empty prefix (the owning skill id, used by
// bundles) namespaces the command names.
func synthesizeCommands(skill *skills.Skill, info catalog.SkillInfo, prefix string) ([]CommandDescriptor, error) {
	var commands []CommandDescriptor
	seen := make(map[string]bool)

	add := func(c CommandDescriptor) error {
		if seen[c.Name] {
			return &DuplicateCommandError{Plugin: skill.Name, Command: c.Name}
		}
		seen[c.Name] = true
		commands = append(commands, c)
		return nil
	}

	if len(skill.Scripts) == 0 {
		generic := []CommandDescriptor{
			{
				Name:        applyPrefix(prefix, "setup"),
				Description: fmt.Sprintf("Initialize %s project with boilerplate code", info.Title),
				Target:      skill.Name + "-setup",
				Skill:       skill.Name,
				SkillTitle:  info.Title,
			},
			{
				Name:        applyPrefix(prefix, "help"),
				Description: fmt.Sprintf("Get help and documentation for %s", info.Title),
				Target:      skill.Name + "-help",
				Skill:       skill.Name,
				SkillTitle:  info.Title,
			},
		}
		for _, c := range generic {
			if err := add(c); err != nil {
				return nil, err
			}
		}
		return commands, nil
	}

	scripts := make([]string, len(skill.Scripts))
	copy(scripts, skill.Scripts)
	sort.Strings(scripts)

	for _, script := range scripts {
		base := scriptBasename(script)
		name := normalizeCommandName(base)

		c := CommandDescriptor{
			Name:        applyPrefix(prefix, name),
			Description: fmt.Sprintf("Run the %s script from the %s skill", base, info.Title),
			Target:      skill.Name + "-" + name,
			Skill:       skill.Name,
			SkillTitle:  info.Title,
			Script:      filepath.Base(script),
		}
		if err := add(c); err != nil {
			return nil, err
		}
	}

	return commands, nil
}

func applyPrefix(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "-" + name
}

func scriptBasename(script string) string {
	base := filepath.Base(script)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// normalizeCommandName maps a script basename onto the command name
// character class: lowercase hyphen-case.
func normalizeCommandName(base string) string {
	return strings.ToLower(strings.ReplaceAll(base, "_", "-"))
}

// commandMarkdown renders the descriptor file content. Purely a function of
// the descriptor, so regeneration is byte-identical.
func commandMarkdown(c CommandDescriptor) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# /%s\n\n", c.Target)
	fmt.Fprintf(&b, "%s\n\n", c.Description)
	b.WriteString("## Usage\n\n")
	fmt.Fprintf(&b, "```\n/%s\n```\n\n", c.Target)
	b.WriteString("## Implementation\n\n")
	if c.Script != "" {
		fmt.Fprintf(&b, "Runs the `%s` script bundled with the %s skill.\n", c.Script, c.SkillTitle)
		b.WriteString("For interactive mode, the script prompts for required information.\n")
	} else {
		fmt.Fprintf(&b, "Provides guidance from the %s skill documentation.\n", c.SkillTitle)
	}

	return b.String()
}

// synthesizeAgent derives the domain-expert agent for a skill. The agent
// flavor follows the skill's catalog category.
func synthesizeAgent(skill *skills.Skill, info catalog.SkillInfo) AgentDescriptor {
	var suffix, role string
	switch info.Category {
	case "3d-graphics", "2d-graphics":
		suffix = "architect"
		role = fmt.Sprintf("Expert graphics architect specializing in %s scene design, optimization, and best practices.", info.Title)
	case "animation":
		suffix = "choreographer"
		role = fmt.Sprintf("Expert animation choreographer specializing in %s animation design, timing, and orchestration.", info.Title)
	case "3d-authoring":
		suffix = "pipeline"
		role = fmt.Sprintf("Expert pipeline specialist for %s workflows, asset optimization, and web integration.", info.Title)
	default:
		suffix = "specialist"
		role = fmt.Sprintf("Expert specialist in %s implementation, patterns, and best practices.", info.Title)
	}

	name := skill.Name + "-" + suffix
	summary := truncate(skill.Description, maxAgentSummary)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s\n\n", info.Title, capitalize(suffix))
	b.WriteString("## Role\n\n")
	fmt.Fprintf(&b, "%s\n\n", role)
	b.WriteString("## Domain\n\n")
	fmt.Fprintf(&b, "%s\n\n", summary)
	b.WriteString("## When to use\n\n")
	fmt.Fprintf(&b, "Activate this agent for %s implementation, integration, and optimization work.\n\n", info.Title)
	b.WriteString("## Tools\n\n")
	fmt.Fprintf(&b, "This agent has access to the %s skill knowledge, its reference documentation, and its automation scripts.\n", info.Title)

	return AgentDescriptor{
		Name:        name,
		Description: role,
		Body:        b.String(),
	}
}

// synthesizeIntegrationAgent derives the cross-skill agent added to bundles
func synthesizeIntegrationAgent(bundleName string, bundle catalog.Bundle) AgentDescriptor {
	name := bundleName + "-integration"
	role := fmt.Sprintf("Expert integration specialist for combining %s technologies into cohesive applications.", bundle.Title)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s Integration Specialist\n\n", bundle.Title)
	b.WriteString("## Role\n\n")
	fmt.Fprintf(&b, "%s\n\n", role)
	b.WriteString("## Bundle Contents\n\n")
	for _, skill := range bundle.Skills {
		fmt.Fprintf(&b, "- %s\n", skill)
	}
	b.WriteString("\n## When to use\n\n")
	fmt.Fprintf(&b, "Activate this agent for projects combining multiple libraries from the %s bundle: cross-library integration, shared architecture decisions, and stack-wide performance work.\n", bundle.Title)

	return AgentDescriptor{
		Name:        name,
		Description: role,
		Body:        b.String(),
	}
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-('a'-'A')) + s[1:]
}

// truncate caps s at limit characters, cutting on a rune boundary so
// multi-byte input never yields invalid UTF-8.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit-3]) + "..."
}
