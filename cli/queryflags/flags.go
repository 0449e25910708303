package queryflags

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brimdata/esql/api/params"
	"github.com/brimdata/esql/runtime/exec"
	"github.com/brimdata/esql/vector"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

type Flags struct {
	Query    string
	Includes Includes
	Stats    bool
	Params   *params.List
	Locale   language.Tag
	Limit    int
	params   string
	locale   string
}

func (f *Flags) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&f.Query, "c", "", "query to execute")
	fs.Var(&f.Includes, "I", "source file containing query text (may be used multiple times)")
	fs.StringVar(&f.params, "P", "", `query parameters as a JSON array, e.g., '[{"n":1}]'`)
	fs.StringVar(&f.locale, "locale", "en-US", "locale of case conversion functions")
	fs.IntVar(&f.Limit, "limit", exec.DefaultLimit, "rows returned by a query without a LIMIT (0 for no limit)")
	fs.BoolVar(&f.Stats, "stats", false, "display query stats on stderr")
}

func (f *Flags) Init() error {
	f.Params = &params.List{}
	if f.params != "" {
		list, err := params.Parse([]byte(f.params))
		if err != nil {
			return fmt.Errorf("-P: %w", err)
		}
		f.Params = list
	}
	tag, err := language.Parse(f.locale)
	if err != nil {
		return fmt.Errorf("-locale: %w", err)
	}
	f.Locale = tag
	return nil
}

// Environment returns the execution environment of a query run from the
// command line.
func (f *Flags) Environment(env *exec.Environment) *exec.Environment {
	env.DefaultLimit = f.Limit
	return env
}

type stats struct {
	vector.Progress `yaml:",inline"`
	Took            time.Duration `yaml:"took"`
}

func (f *Flags) PrintStats(progress vector.Progress, took time.Duration) {
	if f.Stats {
		out, err := yaml.Marshal(stats{progress, took})
		if err != nil {
			out = []byte(fmt.Sprintf("error marshaling stats: %s\n", err))
		}
		os.Stderr.Write(out)
	}
}

// Includes is a flag.Value collecting the files named by repeated -I flags.
type Includes []string

func (i *Includes) Set(value string) error {
	*i = append(*i, value)
	return nil
}

func (i Includes) String() string {
	return strings.Join(i, ",")
}
