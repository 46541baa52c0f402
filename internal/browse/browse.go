// Package browse is an interactive shell for walking a built forest.
package browse

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/chzyer/readline"

	"github.com/johnwards/rdstree/internal/tree"
)

// ErrExit is returned by Exec when the user asks to leave the shell.
var ErrExit = errors.New("exit requested")

// Shell keeps a working position in a forest and executes commands against
// it. The empty position is the top of the forest.
type Shell struct {
	result *tree.Result
	cwd    string
	out    io.Writer
}

// New returns a shell positioned at the top of res.
func New(res *tree.Result, out io.Writer) *Shell {
	return &Shell{result: res, out: out}
}

// Cwd returns the current code, or "" at the top.
func (s *Shell) Cwd() string {
	return s.cwd
}

// Prompt returns the prompt for the current position.
func (s *Shell) Prompt() string {
	if s.cwd == "" {
		return "rds:/> "
	}
	return "rds:" + s.cwd + "> "
}

// Run reads commands from rl until exit or end of input.
func (s *Shell) Run(rl *readline.Instance) error {
	for {
		rl.SetPrompt(s.Prompt())
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			fmt.Fprintln(s.out, "Use 'exit' to leave the shell.")
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}

		if err := s.Exec(line); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			fmt.Fprintln(s.out, "error:", err)
		}
	}
}

// Completer completes command names and, for cd, ls and tree, the codes
// below the current position.
func (s *Shell) Completer() readline.AutoCompleter {
	codes := readline.PcItemDynamic(func(string) []string {
		var out []string
		for _, n := range s.children() {
			out = append(out, n.Code)
		}
		return out
	})
	return readline.NewPrefixCompleter(
		readline.PcItem("ls", codes),
		readline.PcItem("cd", codes, readline.PcItem(".."), readline.PcItem("/")),
		readline.PcItem("tree", codes),
		readline.PcItem("pwd"),
		readline.PcItem("find"),
		readline.PcItem("trace"),
		readline.PcItem("orphans"),
		readline.PcItem("dups"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

// Exec runs a single command line.
func (s *Shell) Exec(line string) error {
	args := Fields(line)
	if len(args) == 0 {
		return nil
	}

	switch args[0] {
	case "ls":
		return s.ls(args[1:])
	case "cd":
		return s.cd(args[1:])
	case "pwd":
		return s.pwd()
	case "tree":
		return s.printTree(args[1:])
	case "find":
		return s.find(args[1:])
	case "trace":
		return s.trace(args[1:])
	case "orphans":
		return s.orphans()
	case "dups":
		return s.dups()
	case "help":
		s.help()
		return nil
	case "exit", "quit":
		return ErrExit
	default:
		return fmt.Errorf("unknown command %q, try help", args[0])
	}
}

// Fields splits a command line on spaces, keeping double-quoted text together.
func Fields(input string) []string {
	var args []string
	var cur strings.Builder
	inQuotes := false

	for _, r := range input {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case (r == ' ' || r == '\t') && !inQuotes:
			if cur.Len() > 0 {
				args = append(args, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		args = append(args, cur.String())
	}
	return args
}

func (s *Shell) children() []*tree.Node {
	if s.cwd == "" {
		return s.result.Roots
	}
	if n, ok := s.result.Lookup(s.cwd); ok {
		return n.Children
	}
	return nil
}

// resolve finds a node by full code, or by its code relative to the current
// position.
func (s *Shell) resolve(arg string) (*tree.Node, error) {
	if n, ok := s.result.Lookup(arg); ok {
		return n, nil
	}
	if s.cwd != "" {
		if n, ok := s.result.Lookup(s.cwd + arg); ok {
			return n, nil
		}
	}
	return nil, fmt.Errorf("no node %s", arg)
}

func label(n *tree.Node) string {
	if n.Name == "" {
		return "(unnamed)"
	}
	return n.Name
}

func (s *Shell) ls(args []string) error {
	nodes := s.children()
	if len(args) > 0 {
		n, err := s.resolve(args[0])
		if err != nil {
			return err
		}
		nodes = n.Children
	}
	for _, n := range nodes {
		marker := ""
		if len(n.Children) > 0 {
			marker = "/"
		}
		fmt.Fprintf(s.out, "%-24s %s%s\n", n.Code, label(n), marker)
	}
	return nil
}

func (s *Shell) cd(args []string) error {
	if len(args) == 0 || args[0] == "/" {
		s.cwd = ""
		return nil
	}
	if args[0] == ".." {
		if s.cwd == "" {
			return nil
		}
		p, _ := s.result.Parent(s.cwd)
		s.cwd = p
		return nil
	}

	n, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	s.cwd = n.Code
	return nil
}

func (s *Shell) pwd() error {
	if s.cwd == "" {
		fmt.Fprintln(s.out, "/")
		return nil
	}
	chain := []string{s.cwd}
	for _, a := range s.result.Ancestors(s.cwd) {
		chain = append(chain, a.Code)
	}
	slices.Reverse(chain)
	fmt.Fprintln(s.out, "/ "+strings.Join(chain, " / "))
	return nil
}

func (s *Shell) printTree(args []string) error {
	roots := s.children()
	if s.cwd != "" {
		n, _ := s.result.Lookup(s.cwd)
		roots = []*tree.Node{n}
	}
	if len(args) > 0 {
		n, err := s.resolve(args[0])
		if err != nil {
			return err
		}
		roots = []*tree.Node{n}
	}
	return tree.Print(s.out, roots)
}

func (s *Shell) find(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: find TEXT")
	}
	needle := strings.ToLower(args[0])

	matches := 0
	err := tree.Walk(s.result.Roots, func(n *tree.Node, _ int) error {
		if strings.Contains(strings.ToLower(n.Code), needle) || strings.Contains(strings.ToLower(n.Name), needle) {
			matches++
			_, err := fmt.Fprintf(s.out, "%-24s %s\n", n.Code, label(n))
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	if matches == 0 {
		fmt.Fprintln(s.out, "no matches")
	}
	return nil
}

func (s *Shell) trace(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: trace CODE [upstream|downstream]")
	}
	n, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	dir := tree.Upstream
	if len(args) > 1 {
		if dir, err = tree.ParseDirection(args[1]); err != nil {
			return err
		}
	}

	steps, _ := s.result.Trace(n.Code, dir)
	for _, st := range steps {
		fmt.Fprintf(s.out, "%3d  %-24s %s\n", st.Level, st.Code, st.Name)
	}
	return nil
}

func (s *Shell) orphans() error {
	if len(s.result.Orphans) == 0 {
		fmt.Fprintln(s.out, "no orphans")
		return nil
	}
	for _, o := range s.result.Orphans {
		line := fmt.Sprintf("%-24s %s (parent %s)", o.Object.Code, o.Reason, o.Object.Parent())
		if o.SuggestedParent != "" {
			line += ", suggest " + o.SuggestedParent
		}
		fmt.Fprintln(s.out, line)
	}
	return nil
}

func (s *Shell) dups() error {
	if len(s.result.Duplicates) == 0 {
		fmt.Fprintln(s.out, "no duplicates")
		return nil
	}
	for _, d := range s.result.Duplicates {
		fmt.Fprintf(s.out, "%-24s ids %v, kept %d\n", d.Code, d.ObjectIDs, d.SurvivingID)
	}
	return nil
}

func (s *Shell) help() {
	fmt.Fprint(s.out, `Commands:
  ls [CODE]                      list children
  cd CODE|..|/                   change position
  pwd                            show the path from the root
  tree [CODE]                    print a subtree
  find TEXT                      search codes and names
  trace CODE [upstream|downstream]
  orphans                        list orphaned objects
  dups                           list duplicate code claims
  help                           show this help
  exit                           leave the shell
`)
}
