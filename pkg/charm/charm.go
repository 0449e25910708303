// Package charm is a minimalist CLI framework of nested commands, each with
// its own flag set.  Flags belong to the command they follow, e.g.,
//
//	esql -log.level debug serve -l :9200
package charm

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
)

var (
	NeedHelp = errors.New("help")
	ErrNoRun = errors.New("no run method")
)

type Constructor func(Command, *flag.FlagSet) (Command, error)

type Command interface {
	Run([]string) error
}

type Spec struct {
	Name  string
	Usage string
	Short string
	Long  string
	New   Constructor
	// Hidden hides this command from help.
	Hidden bool
	// HiddenFlags (comma-separated) are left out of help.
	HiddenFlags string
	children    []*Spec
	parent      *Spec
}

func (c *Spec) Add(child *Spec) {
	c.children = append(c.children, child)
	child.parent = c
}

func (c *Spec) lookupSub(name string) *Spec {
	for _, child := range c.children {
		if name == child.Name {
			return child
		}
	}
	return nil
}

type instance struct {
	spec  *Spec
	flags *flag.FlagSet
	cmd   Command
	help  bool
}

// parse builds the command for each spec named in args, parsing the flags
// that follow each name into that command's flag set, and returns the
// innermost command with its remaining arguments.
func parse(spec *Spec, args []string) ([]*instance, []string, error) {
	var path []*instance
	var parent Command
	for {
		fs := flag.NewFlagSet(spec.Name, flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		inst := &instance{spec: spec, flags: fs}
		fs.BoolVar(&inst.help, "h", false, "display help")
		fs.BoolVar(&inst.help, "help", false, "display help")
		cmd, err := spec.New(parent, fs)
		if err != nil {
			return nil, nil, err
		}
		inst.cmd = cmd
		path = append(path, inst)
		if err := fs.Parse(args); err != nil {
			if err == flag.ErrHelp {
				return path, nil, NeedHelp
			}
			return path, nil, fmt.Errorf("%s: %w", spec.Name, err)
		}
		if inst.help {
			return path, nil, NeedHelp
		}
		args = fs.Args()
		if len(args) == 0 {
			return path, args, nil
		}
		child := spec.lookupSub(args[0])
		if child == nil {
			return path, args, nil
		}
		spec, parent, args = child, cmd, args[1:]
	}
}

func (s *Spec) Exec(args []string) error {
	path, rest, err := parse(s, args)
	if err == nil {
		err = path[len(path)-1].cmd.Run(rest)
	}
	if err == NeedHelp && len(path) > 0 {
		displayHelp(os.Stdout, path[len(path)-1])
		return nil
	}
	return err
}

func NoRun(args []string) error {
	if len(args) == 0 {
		return NeedHelp
	}
	return ErrNoRun
}

func displayHelp(w io.Writer, inst *instance) {
	spec := inst.spec
	fmt.Fprintf(w, "NAME\n    %s - %s\n\n", spec.Name, spec.Short)
	fmt.Fprintf(w, "USAGE\n    %s\n", spec.Usage)
	if long := strings.TrimSpace(spec.Long); long != "" {
		fmt.Fprintf(w, "\nDESCRIPTION\n")
		for _, line := range strings.Split(long, "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
	hidden := strings.Split(spec.HiddenFlags, ",")
	var flags []*flag.Flag
	inst.flags.VisitAll(func(f *flag.Flag) {
		if f.Name != "h" && f.Name != "help" && !slices.Contains(hidden, f.Name) {
			flags = append(flags, f)
		}
	})
	if len(flags) > 0 {
		fmt.Fprintf(w, "\nOPTIONS\n")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, f := range flags {
			def := ""
			if f.DefValue != "" && f.DefValue != "false" {
				def = fmt.Sprintf(" (default %q)", f.DefValue)
			}
			fmt.Fprintf(tw, "    -%s\t%s%s\n", f.Name, f.Usage, def)
		}
		tw.Flush()
	}
	var children []*Spec
	for _, c := range spec.children {
		if !c.Hidden {
			children = append(children, c)
		}
	}
	if len(children) > 0 {
		fmt.Fprintf(w, "\nCOMMANDS\n")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, c := range children {
			fmt.Fprintf(tw, "    %s\t%s\n", c.Name, c.Short)
		}
		tw.Flush()
	}
}
