package main

import (
	"fmt"
	"os"

	_ "github.com/brimdata/esql/cmd/esql/parse"
	_ "github.com/brimdata/esql/cmd/esql/query"
	_ "github.com/brimdata/esql/cmd/esql/repl"
	"github.com/brimdata/esql/cmd/esql/root"
	_ "github.com/brimdata/esql/cmd/esql/serve"
)

func main() {
	if err := root.Esql.Exec(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
