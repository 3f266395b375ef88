package codegen

import "strings"

// Substitute fills an instruction template's placeholders:
// @1/@2/@3 are the destination/first-operand/second-operand text,
// @t is the reserved scratch register's text, and @m is the mnemonic
// for the operation being lowered. Multi-instruction templates
// separate lines with "\n"; Emit indents each with a tab itself.
func Substitute(tmpl string, mnemonic string, x, y, z, t Operand) string {
	r := strings.NewReplacer(
		"@m", mnemonic,
		"@1", x.Text,
		"@2", y.Text,
		"@3", z.Text,
		"@t", t.Text,
	)
	return r.Replace(tmpl)
}

// lines splits a filled template into its constituent instructions.
func lines(filled string) []string {
	var out []string
	for _, l := range strings.Split(filled, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
