package ffmpeg

import (
	"runtime"
	"strings"
)

// Invocation is one ffmpeg process to launch.
type Invocation struct {
	Binary string
	Args   []string
	// Output is the artifact this invocation produces.
	Output string
	// Stage names the step ("render", "segment", "mux", "cut").
	Stage  string
	quoted []bool
}

// CommandLine renders the invocation as a single shell string for the host
// shell. Paths, filter graphs, and stream labels are always quoted; other
// arguments are quoted only when they contain shell metacharacters.
func (inv Invocation) CommandLine() string {
	return inv.line(runtime.GOOS == "windows")
}

func (inv Invocation) line(windows bool) string {
	quote := posixQuote
	if windows {
		quote = cmdQuote
	}
	var b strings.Builder
	b.WriteString(quoteArg(inv.Binary, strings.ContainsAny(inv.Binary, " \t"), quote))
	for i, arg := range inv.Args {
		b.WriteByte(' ')
		force := i < len(inv.quoted) && inv.quoted[i]
		b.WriteString(quoteArg(arg, force, quote))
	}
	return b.String()
}

func quoteArg(arg string, force bool, quote func(string) string) string {
	if !force && arg != "" && !strings.ContainsAny(arg, " \t\"'\\&|<>;()[]*?$`^%!") {
		return arg
	}
	return quote(arg)
}

// posixQuote single-quotes for sh, where nothing inside single quotes expands.
func posixQuote(arg string) string {
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

// cmdQuote double-quotes for cmd.exe.
func cmdQuote(arg string) string {
	return `"` + strings.ReplaceAll(arg, `"`, `\"`) + `"`
}

// argList accumulates argv entries and remembers which must be quoted.
type argList struct {
	args   []string
	quoted []bool
}

func (a *argList) flag(values ...string) {
	for _, v := range values {
		a.args = append(a.args, v)
		a.quoted = append(a.quoted, false)
	}
}

// literal appends a value that must survive the shell verbatim.
func (a *argList) literal(value string) {
	a.args = append(a.args, value)
	a.quoted = append(a.quoted, true)
}

func (a *argList) invocation(binary, stage, output string) Invocation {
	return Invocation{
		Binary: binary,
		Args:   a.args,
		Output: output,
		Stage:  stage,
		quoted: a.quoted,
	}
}
