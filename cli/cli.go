// Package cli holds the flags shared by every esql command.
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/brimdata/esql"
)

// Initializer is implemented by flag groups that need checking or setup
// once the command line has been parsed.
type Initializer interface {
	Init() error
}

type Flags struct {
	showVersion bool
}

func (f *Flags) SetFlags(fs *flag.FlagSet) {
	fs.BoolVar(&f.showVersion, "version", false, "print version and exit")
}

// Init initializes each flag group in turn and returns a context that is
// canceled on SIGINT or SIGTERM.  The returned cleanup function must be
// called when the command is done.
func (f *Flags) Init(all ...Initializer) (context.Context, func(), error) {
	if f.showVersion {
		version, date, hash := esql.BuildInfo()
		fmt.Printf("Version: %s\n", version)
		if hash != "" {
			fmt.Printf("Commit: %s %s\n", hash, date)
		}
		os.Exit(0)
	}
	for _, i := range all {
		if err := i.Init(); err != nil {
			return nil, nil, err
		}
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctx, cancel, nil
}
