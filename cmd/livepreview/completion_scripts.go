package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

const progName = "livepreview"

// writeScript writes the finished script in one call.
func writeScript(w io.Writer, b *strings.Builder) error {
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("writing completion script: %w", err)
	}
	return nil
}

// flagWords returns "--long" and "-s" spellings of every flag.
func flagWords(flags []flagDef) []string {
	words := make([]string, 0, len(flags)*2)
	for _, f := range flags {
		words = append(words, "--"+f.Long)
		if f.Short != "" {
			words = append(words, "-"+f.Short)
		}
	}
	return words
}

// valueFlags collects flags whose value has a specific completion,
// deduplicated by long name across commands.
func valueFlags(cmds []commandDef) []flagDef {
	seen := map[string]bool{}
	var out []flagDef
	for _, c := range cmds {
		for _, f := range c.Flags {
			if seen[f.Long] || (f.Type != flagEnum && f.Type != flagFile && f.Type != flagDir) {
				continue
			}
			seen[f.Long] = true
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Long < out[j].Long })
	return out
}

// globExts turns "*.yaml,*.yml" into ["yaml", "yml"].
func globExts(glob string) []string {
	var exts []string
	for _, g := range strings.Split(glob, ",") {
		exts = append(exts, strings.TrimPrefix(strings.TrimSpace(g), "*."))
	}
	return exts
}

// ---------------------------------------------------------------------------
// Bash
// ---------------------------------------------------------------------------

func generateBash(w io.Writer) error {
	cmds := getCommands()
	var b strings.Builder

	names := make([]string, 0, len(cmds))
	for _, c := range cmds {
		names = append(names, c.Name)
	}

	fmt.Fprintf(&b, "# bash completion for %s\n\n", progName)
	fmt.Fprintf(&b, "_%s_completions() {\n", progName)
	b.WriteString("    local cur prev cmd\n")
	b.WriteString("    COMPREPLY=()\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("    cmd=\"${COMP_WORDS[1]}\"\n\n")
	b.WriteString("    if [[ ${COMP_CWORD} -eq 1 ]]; then\n")
	fmt.Fprintf(&b, "        COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n", strings.Join(names, " "))
	b.WriteString("        return 0\n")
	b.WriteString("    fi\n\n")

	b.WriteString("    case \"${prev}\" in\n")
	for _, f := range valueFlags(cmds) {
		pattern := "--" + f.Long
		if f.Short != "" {
			pattern += "|-" + f.Short
		}
		switch f.Type {
		case flagEnum:
			fmt.Fprintf(&b, "        %s)\n            COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n            return 0\n            ;;\n",
				pattern, strings.Join(f.Values, " "))
		case flagFile:
			fmt.Fprintf(&b, "        %s)\n            COMPREPLY=( $(compgen -f -X '!*.@(%s)' -- \"${cur}\") )\n            return 0\n            ;;\n",
				pattern, strings.Join(globExts(f.FileGlob), "|"))
		case flagDir:
			fmt.Fprintf(&b, "        %s)\n            COMPREPLY=( $(compgen -d -- \"${cur}\") )\n            return 0\n            ;;\n", pattern)
		}
	}
	b.WriteString("    esac\n\n")

	b.WriteString("    case \"${cmd}\" in\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        %s)\n", c.Name)
		if len(c.Flags) > 0 {
			b.WriteString("            if [[ \"${cur}\" == -* ]]; then\n")
			fmt.Fprintf(&b, "                COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n", strings.Join(flagWords(c.Flags), " "))
			b.WriteString("                return 0\n")
			b.WriteString("            fi\n")
		}
		if len(c.Args) > 0 {
			b.WriteString("            if [[ ${COMP_CWORD} -eq 2 ]]; then\n")
			fmt.Fprintf(&b, "                COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n", strings.Join(c.Args, " "))
			b.WriteString("                return 0\n")
			b.WriteString("            fi\n")
		}
		if c.TakesFiles {
			b.WriteString("            COMPREPLY=( $(compgen -f -- \"${cur}\") )\n")
		}
		b.WriteString("            ;;\n")
	}
	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	fmt.Fprintf(&b, "complete -F _%s_completions %s\n", progName, progName)

	return writeScript(w, &b)
}

// ---------------------------------------------------------------------------
// Zsh
// ---------------------------------------------------------------------------

// zshEscape escapes a description for use inside '[...]' of _arguments.
func zshEscape(s string) string {
	r := strings.NewReplacer("'", "'\\''", "[", "\\[", "]", "\\]", ":", "\\:")
	return r.Replace(s)
}

func zshFlagSpec(f flagDef) string {
	var action string
	switch f.Type {
	case flagBool:
	case flagEnum:
		action = fmt.Sprintf(":%s:(%s)", f.Long, strings.Join(f.Values, " "))
	case flagFile:
		action = fmt.Sprintf(":file:_files -g \"*.(%s)\"", strings.Join(globExts(f.FileGlob), "|"))
	case flagDir:
		action = ":directory:_files -/"
	default:
		action = fmt.Sprintf(":%s:", f.Long)
	}
	desc := zshEscape(f.Desc)
	if f.Short == "" {
		return fmt.Sprintf("'--%s[%s]%s'", f.Long, desc, action)
	}
	return fmt.Sprintf("'(-%s --%s)'{-%s,--%s}'[%s]%s'", f.Short, f.Long, f.Short, f.Long, desc, action)
}

func generateZsh(w io.Writer) error {
	cmds := getCommands()
	var b strings.Builder

	fmt.Fprintf(&b, "#compdef %s\n\n", progName)
	fmt.Fprintf(&b, "_%s() {\n", progName)
	b.WriteString("    local -a commands\n")
	b.WriteString("    commands=(\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s:%s'\n", c.Name, zshEscape(c.Desc))
	}
	b.WriteString("    )\n\n")
	b.WriteString("    if (( CURRENT == 2 )); then\n")
	b.WriteString("        _describe 'command' commands\n")
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")
	b.WriteString("    local cmd=\"${words[2]}\"\n")
	b.WriteString("    shift words\n")
	b.WriteString("    (( CURRENT-- ))\n\n")
	b.WriteString("    case \"${cmd}\" in\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        %s)\n", c.Name)
		b.WriteString("            _arguments")
		for _, f := range c.Flags {
			fmt.Fprintf(&b, " \\\n                %s", zshFlagSpec(f))
		}
		if len(c.Args) > 0 {
			fmt.Fprintf(&b, " \\\n                '1:argument:(%s)'", strings.Join(c.Args, " "))
		}
		if c.TakesFiles {
			if c.FilePattern != "" {
				fmt.Fprintf(&b, " \\\n                '*:file:_files -g \"%s\"'", c.FilePattern)
			} else {
				b.WriteString(" \\\n                '*:file:_files'")
			}
		}
		b.WriteString("\n            ;;\n")
	}
	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	fmt.Fprintf(&b, "compdef _%s %s\n", progName, progName)

	return writeScript(w, &b)
}

// ---------------------------------------------------------------------------
// Fish
// ---------------------------------------------------------------------------

func fishQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "\\'") + "'"
}

func generateFish(w io.Writer) error {
	cmds := getCommands()
	var b strings.Builder

	fmt.Fprintf(&b, "# fish completion for %s\n\n", progName)
	fmt.Fprintf(&b, "function __fish_%s_needs_command\n", progName)
	b.WriteString("    set -l cmd (commandline -opc)\n")
	b.WriteString("    test (count $cmd) -eq 1\n")
	b.WriteString("end\n\n")
	fmt.Fprintf(&b, "function __fish_%s_using_command\n", progName)
	b.WriteString("    set -l cmd (commandline -opc)\n")
	b.WriteString("    test (count $cmd) -gt 1; and test $cmd[2] = $argv[1]\n")
	b.WriteString("end\n\n")
	fmt.Fprintf(&b, "complete -c %s -f\n\n", progName)

	for _, c := range cmds {
		fmt.Fprintf(&b, "complete -c %s -n __fish_%s_needs_command -a %s -d %s\n",
			progName, progName, c.Name, fishQuote(c.Desc))
	}
	b.WriteString("\n")

	for _, c := range cmds {
		cond := fmt.Sprintf("'__fish_%s_using_command %s'", progName, c.Name)
		for _, f := range c.Flags {
			fmt.Fprintf(&b, "complete -c %s -n %s", progName, cond)
			if f.Short != "" {
				fmt.Fprintf(&b, " -s %s", f.Short)
			}
			fmt.Fprintf(&b, " -l %s -d %s", f.Long, fishQuote(f.Desc))
			switch f.Type {
			case flagBool:
			case flagEnum:
				fmt.Fprintf(&b, " -xa %s", fishQuote(strings.Join(f.Values, " ")))
			case flagFile:
				b.WriteString(" -rF")
			case flagDir:
				b.WriteString(" -xa '(__fish_complete_directories)'")
			default:
				b.WriteString(" -r")
			}
			b.WriteString("\n")
		}
		if len(c.Args) > 0 {
			fmt.Fprintf(&b, "complete -c %s -n %s -a %s\n", progName, cond, fishQuote(strings.Join(c.Args, " ")))
		}
		if c.TakesFiles {
			fmt.Fprintf(&b, "complete -c %s -n %s -F\n", progName, cond)
		}
	}

	return writeScript(w, &b)
}

// ---------------------------------------------------------------------------
// PowerShell
// ---------------------------------------------------------------------------

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func psList(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = psQuote(w)
	}
	return "@(" + strings.Join(quoted, ", ") + ")"
}

func generatePowerShell(w io.Writer) error {
	cmds := getCommands()
	var b strings.Builder

	fmt.Fprintf(&b, "# powershell completion for %s\n\n", progName)
	fmt.Fprintf(&b, "Register-ArgumentCompleter -Native -CommandName %s -ScriptBlock {\n", progName)
	b.WriteString("    param($wordToComplete, $commandAst, $cursorPosition)\n\n")

	b.WriteString("    $commands = [ordered]@{\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        %s = %s\n", psQuote(c.Name), psQuote(c.Desc))
	}
	b.WriteString("    }\n")

	b.WriteString("    $words = @{\n")
	for _, c := range cmds {
		words := append(flagWords(c.Flags), c.Args...)
		fmt.Fprintf(&b, "        %s = %s\n", psQuote(c.Name), psList(words))
	}
	b.WriteString("    }\n\n")

	b.WriteString("    $elements = $commandAst.CommandElements\n")
	b.WriteString("    if ($elements.Count -le 1 -or ($elements.Count -eq 2 -and $wordToComplete -ne '')) {\n")
	b.WriteString("        $commands.GetEnumerator() | Where-Object { $_.Key -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("            [System.Management.Automation.CompletionResult]::new($_.Key, $_.Key, 'ParameterValue', $_.Value)\n")
	b.WriteString("        }\n")
	b.WriteString("        return\n")
	b.WriteString("    }\n\n")
	b.WriteString("    $cmd = $elements[1].ToString()\n")
	b.WriteString("    if (-not $words.ContainsKey($cmd)) { return }\n")
	b.WriteString("    $words[$cmd] | Where-Object { $_ -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterName', $_)\n")
	b.WriteString("    }\n")
	b.WriteString("}\n")

	return writeScript(w, &b)
}
