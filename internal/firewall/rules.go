package firewall

import (
	"fmt"
	"strings"
	"text/template"

	shellquote "github.com/kballard/go-shellquote"
)

// MarkerPrefix starts the comment of every rule mythic-ctl owns.
const MarkerPrefix = "mythic-ctl:admin:"

// Marker returns the comment identifying admin port rules for port.
func Marker(port int) string {
	return fmt.Sprintf("%s%d", MarkerPrefix, port)
}

// Rule is a rule specification as printed by iptables -S, without the
// leading "-A <chain>".
type Rule struct {
	Args []string
}

// ParseRule parses one line of iptables -S output for chain. Lines that
// do not append a rule to chain are reported as not ok.
func ParseRule(chain, line string) (Rule, bool) {
	words, err := shellquote.Split(line)
	if err != nil || len(words) < 2 {
		return Rule{}, false
	}
	if words[0] != "-A" || words[1] != chain {
		return Rule{}, false
	}
	return Rule{Args: words[2:]}, true
}

// Comment returns the value of the comment match, if any.
func (r Rule) Comment() string {
	return r.option("--comment")
}

// Target returns the jump target.
func (r Rule) Target() string {
	return r.option("-j")
}

// Source returns the -s match, if any.
func (r Rule) Source() string {
	return r.option("-s")
}

func (r Rule) option(name string) string {
	for i := 0; i < len(r.Args)-1; i++ {
		if r.Args[i] == name {
			return r.Args[i+1]
		}
	}
	return ""
}

// Spec renders the rule arguments for an iptables-restore line.
func (r Rule) Spec() string {
	return shellquote.Join(r.Args...)
}

func (r Rule) equal(o Rule) bool {
	if len(r.Args) != len(o.Args) {
		return false
	}
	for i := range r.Args {
		if r.Args[i] != o.Args[i] {
			return false
		}
	}
	return true
}

// AllowRule accepts traffic from src to port.
func AllowRule(src TrustedSource, port int) Rule {
	return Rule{Args: []string{
		"-s", src.String(),
		"-p", "tcp", "-m", "tcp", "--dport", fmt.Sprint(port),
		"-m", "comment", "--comment", Marker(port),
		"-j", "ACCEPT",
	}}
}

// DenyRule drops all other traffic to port.
func DenyRule(port int) Rule {
	return Rule{Args: []string{
		"-p", "tcp", "-m", "tcp", "--dport", fmt.Sprint(port),
		"-m", "comment", "--comment", Marker(port),
		"-j", "DROP",
	}}
}

// Transaction replaces rules in one chain atomically. Insert rules are
// placed at the top of the chain in the given order.
type Transaction struct {
	Chain  string
	Delete []Rule
	Insert []Rule
}

var restoreTmpl = template.Must(template.New("restore").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`*filter
{{- range .Delete}}
-D {{$.Chain}} {{.Spec}}
{{- end}}
{{- range $i, $r := .Insert}}
-I {{$.Chain}} {{inc $i}} {{$r.Spec}}
{{- end}}
COMMIT
`))

// Restore renders tx in iptables-restore format.
func (tx Transaction) Restore() string {
	var buf strings.Builder
	_ = restoreTmpl.Execute(&buf, tx)
	return buf.String()
}
