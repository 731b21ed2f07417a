package console

import (
	"fmt"
	"strings"
)

// NewLine terminates every response line, as telnet clients expect.
const NewLine = "\r\n"

var helpRows = [][2]string{
	{"help", "Show this help"},
	{"exit", "Close the session"},
	{"client", "Application name and IP"},
	{"refs", "List references"},
	{"ref [name]", "Show one reference"},
	{"services", "List published services"},
	{"service [name]", "Show one service"},
	{"cache -size", "Cache size"},
	{"cache -clear", "Clear the cache"},
	{"degrades", "List degraded services"},
	{"degrade -pull", "Pull the degrade list from its source"},
	{"degrade -add [name]", "Degrade a service"},
	{"degrade -del [name]", "Restore a degraded service"},
}

// helpText is built once; it never changes for the life of the process.
var helpText = buildHelp()

func buildHelp() string {
	var b strings.Builder
	for i, row := range helpRows {
		fmt.Fprintf(&b, "%4s%-40s%s%s", fmt.Sprintf("%d. ", i+1), row[0], row[1], NewLine)
	}
	return b.String()
}

// HelpText returns the static command help.
func HelpText() string { return helpText }

func unknownCommand(input string) string {
	return "Unknown command '" + input + "'. See 'help'." + NewLine
}

func badArgument(input string, kind Kind) string {
	return "Error argument '" + input + "' with " + kind.String() + ". See 'help'." + NewLine
}

func errorCommand(input string) string {
	return "Error command '" + input + "'. See 'help'." + NewLine
}

func total(n int) string {
	return fmt.Sprintf("Total %d%s", n, NewLine)
}

// numbered renders "Total N" followed by 0-based "i) name" rows.
func numbered(names []string) string {
	var b strings.Builder
	b.WriteString(total(len(names)))
	for i, name := range names {
		fmt.Fprintf(&b, "%d) %s%s", i, name, NewLine)
	}
	return b.String()
}
