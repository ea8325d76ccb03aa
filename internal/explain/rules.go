package explain

import "regexp"

// DefaultRules returns the built-in rules. Compiler diagnostics come first,
// then runtime and toolchain errors.
func DefaultRules() []Rule {
	return []Rule{
		{
			Pattern:     regexp.MustCompile(`Unresolved reference: (.+)`),
			Title:       "Unresolved Reference",
			Explanation: "This means the compiler doesn't know what {0} is. It could be a missing import, a typo, or a dependency that hasn't been added.",
			Suggestion:  "Check the spelling or add the required import statement.",
		},
		{
			Pattern:     regexp.MustCompile(`Expecting '(.+)'`),
			Title:       "Syntax Error",
			Explanation: "The compiler was expecting a '{0}' at this position.",
			Suggestion:  "Add the missing character or check your syntax.",
		},
		{
			Pattern:     regexp.MustCompile(`undefined: (\S+)`),
			Title:       "Undefined Name",
			Explanation: "The Go compiler can't find anything called {0} in scope.",
			Suggestion:  "Check the spelling, the package qualifier, or whether the identifier is exported.",
		},
		{
			Pattern:     regexp.MustCompile(`ModuleNotFoundError: No module named '([^']+)'`),
			Title:       "Missing Python Module",
			Explanation: "Python tried to import {0} but it isn't installed in the active environment.",
			Suggestion:  "Install the package with pip or activate the right virtual environment.",
		},
		{
			Pattern:     regexp.MustCompile(`NameError: name '([^']+)' is not defined`),
			Title:       "Undefined Python Name",
			Explanation: "The script uses {0} before it was assigned or imported.",
			Suggestion:  "Define the variable first or import it.",
		},
		{
			Pattern:     regexp.MustCompile(`Cannot find module '([^']+)'`),
			Title:       "Missing Node Module",
			Explanation: "Node couldn't resolve {0}.",
			Suggestion:  "Run npm install, or check the relative path in the require/import.",
		},
		{
			Pattern:     regexp.MustCompile(`exec: "([^"]+)": executable file not found`),
			Title:       "Program Not Found",
			Explanation: "The program {0} isn't installed or isn't on the PATH.",
			Suggestion:  "Install it, or use the full path to the executable in the task command.",
		},
		{
			Pattern:     regexp.MustCompile(`(?m)(\S+): (?:command )?not found$`),
			Title:       "Command Not Found",
			Explanation: "The shell couldn't find a command named {0}.",
			Suggestion:  "Install the tool or fix the command name.",
		},
		{
			Pattern:     regexp.MustCompile(`[Pp]ermission denied`),
			Title:       "Permission Denied",
			Explanation: "The operating system refused access to a file or program.",
			Suggestion:  "Check file permissions; scripts need the executable bit (chmod +x).",
		},
	}
}
