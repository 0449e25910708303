// Package ztest runs formulaic tests ("ztests") that can be (1) run in-process
// with the compiled-in code base or (2) run as a bash script running a sequence
// of arbitrary shell commands invoking the esql executable.  Case (1) is
// easier to debug by simply running "go test".
//
// In the query style, ztest runs a query over named NDJSON inputs and checks
// for an expected output, error, or set of warnings.
//
//	query: FROM people | STATS n = COUNT(*) BY team | SORT team
//
//	input:
//	  people: |
//	    {"name":"alice","team":"red"}
//	    {"name":"bob","team":"blue"}
//
//	format: csv
//
//	output: |
//	  n,team
//	  1,blue
//	  1,red
//
// The output format defaults to json, in which case the trailing "took"
// field is always zero.  The fields params (a JSON array as in a query
// request), delimiter and columnar have the same meaning as in an HTTP
// query request.  The warnings field lists the expected warnings, one per
// line, and error holds the expected error message with a trailing newline.
//
// Alternatively, tests can be configured to run as shell scripts.
// Scripts are executed by "bash -e -o pipefail", and a nonzero shell exit
// code causes a test failure.  The yaml sets up a collection of input files
// and stdin, the script runs, and the test driver compares expected output
// files, stdout, and stderr with data in the yaml spec.
//
//	inputs:
//	  - name: people.ndjson
//	    data: |
//	      {"name":"alice"}
//
//	script: |
//	  esql query -f csv -c "FROM people | KEEP name" people.ndjson
//
//	outputs:
//	  - name: stdout
//	    data: |
//	      name
//	      alice
//
// Each input and output has a name.  For inputs, a file (source)
// or inline data (data) may be specified.
// If no data is specified, then a file of the same name as the
// name field is looked for in the same directory as the yaml file.
// The source spec is a file path relative to the directory of the
// yaml file.  For outputs, expected output is defined in the same
// fashion as the inputs though you can also specify a "regexp" string
// instead of expected data.
//
// Ztest YAML files for a package reside in a subdirectory named ztests.
// Name YAML files descriptively since each ztest runs as a subtest
// named for the file that defines it.
//
// If the ZTEST_PATH environment variable is unset or empty, Run runs the
// query tests in the current process and skips the script tests.
// Otherwise, Run runs only the script tests, using the esql executable in
// the directories specified by ZTEST_PATH.
//
// Tests of either style can be skipped by setting the skip field to a non-empty
// string.  A message containing the string will be written to the test log.
package ztest

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/brimdata/esql/api/params"
	"github.com/brimdata/esql/api/queryio"
	"github.com/brimdata/esql/catalog"
	"github.com/brimdata/esql/compiler"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/runtime/exec"
	"github.com/brimdata/esql/sio"
	"github.com/brimdata/esql/sio/anyio"
	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

func ShellPath() string {
	return os.Getenv("ZTEST_PATH")
}

type Bundle struct {
	TestName string
	FileName string
	Test     *ZTest
	Error    error
}

func Load(dirname string) ([]Bundle, error) {
	var bundles []Bundle
	fileinfos, err := os.ReadDir(dirname)
	if err != nil {
		return nil, err
	}
	for _, fi := range fileinfos {
		filename := fi.Name()
		const dotyaml = ".yaml"
		if !strings.HasSuffix(filename, dotyaml) {
			continue
		}
		testname := strings.TrimSuffix(filename, dotyaml)
		filename = filepath.Join(dirname, filename)
		zt, err := FromYAMLFile(filename)
		bundles = append(bundles, Bundle{testname, filename, zt, err})
	}
	return bundles, nil
}

// Run runs the ztests in the directory named dirname.  For each file f.yaml in
// the directory, Run calls FromYAMLFile to load a ztest and then runs it in
// subtest named f.
func Run(t *testing.T, dirname string) {
	shellPath := ShellPath()
	bundles, err := Load(dirname)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range bundles {
		t.Run(b.TestName, func(t *testing.T) {
			t.Parallel()
			if b.Error != nil {
				t.Fatalf("%s: %s", b.FileName, b.Error)
			}
			b.Test.Run(t, shellPath, b.FileName)
		})
	}
}

type File struct {
	// Name is the name of the file with respect to the directoy in which
	// the test script runs.  For inputs, if no data source is specified,
	// then name is also the name of a data file in the diectory containing
	// the yaml test file, which is copied to the test script directory.
	// Name can also be stdin (for inputs) or stdout or stderr (for outputs).
	Name string `yaml:"name"`
	// Data and Source represent the different ways file data can
	// be defined for this file.  Data is a string turned into the contents
	// of the file. Source is a string representing
	// the pathname of a file the repo that is read to comprise the data.
	Data   *string `yaml:"data,omitempty"`
	Source string  `yaml:"source,omitempty"`
	// Re is a regular expression describing the contents of the file,
	// which is only applicable to output files.
	Re string `yaml:"regexp,omitempty"`
}

func (f *File) check() error {
	if f.Data != nil && f.Source != "" {
		return fmt.Errorf("%s: must specify at most one of data or source", f.Name)
	}
	return nil
}

func (f *File) load(dir string) ([]byte, *regexp.Regexp, error) {
	if f.Data != nil {
		return []byte(*f.Data), nil, nil
	}
	if f.Source != "" {
		b, err := os.ReadFile(filepath.Join(dir, f.Source))
		return b, nil, err
	}
	if f.Re != "" {
		re, err := regexp.Compile(f.Re)
		return nil, re, err
	}
	b, err := os.ReadFile(filepath.Join(dir, f.Name))
	if err == nil {
		return b, nil, nil
	}
	if os.IsNotExist(err) {
		err = fmt.Errorf("%s: no data source", f.Name)
	}
	return nil, nil, err
}

// ZTest defines a ztest.
type ZTest struct {
	Skip string `yaml:"skip,omitempty"`
	Tag  string `yaml:"tag,omitempty"`

	// For query-style tests.
	Query     string            `yaml:"query,omitempty"`
	Params    string            `yaml:"params,omitempty"`
	Input     map[string]string `yaml:"input,omitempty"`
	Format    string            `yaml:"format,omitempty"`
	Delimiter string            `yaml:"delimiter,omitempty"`
	Columnar  bool              `yaml:"columnar,omitempty"`
	Output    string            `yaml:"output,omitempty"`
	Error     string            `yaml:"error,omitempty"`
	Warnings  string            `yaml:"warnings,omitempty"`

	// For script-style tests.
	Script  string   `yaml:"script,omitempty"`
	Inputs  []File   `yaml:"inputs,omitempty"`
	Outputs []File   `yaml:"outputs,omitempty"`
	Env     []string `yaml:"env,omitempty"`
}

func (z *ZTest) check() error {
	if z.Script != "" {
		if z.Outputs == nil {
			return errors.New("outputs field missing in a sh test")
		}
		for _, f := range z.Inputs {
			if err := f.check(); err != nil {
				return err
			}
			if f.Re != "" {
				return fmt.Errorf("%s: cannot use regexp in an input", f.Name)
			}
		}
		for _, f := range z.Outputs {
			if err := f.check(); err != nil {
				return err
			}
		}
	} else if z.Query == "" {
		return errors.New("either a query field or script field must be present")
	}
	return nil
}

// FromYAMLFile loads a ZTest from the YAML file named filename.
func FromYAMLFile(filename string) (*ZTest, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return FromYAML(f)
}

// FromYAML decodes a ZTest from the single YAML document in r.  Unknown
// fields are an error.
func FromYAML(r io.Reader) (*ZTest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var z ZTest
	if err := dec.Decode(&z); err != nil {
		return nil, err
	}
	var extra any
	if err := dec.Decode(&extra); err != io.EOF {
		return nil, errors.New("file must contain one YAML document")
	}
	return &z, nil
}

func (z *ZTest) ShouldSkip(path string) string {
	switch {
	case z.Script != "" && path == "":
		return "script test on in-process run"
	case z.Query != "" && path != "":
		return "in-process test on script run"
	case z.Skip != "":
		return z.Skip
	case z.Tag != "" && z.Tag != os.Getenv("ZTEST_TAG"):
		return fmt.Sprintf("tag %q does not match ZTEST_TAG=%q", z.Tag, os.Getenv("ZTEST_TAG"))
	}
	return ""
}

func (z *ZTest) RunScript(ctx context.Context, shellPath, testDir string, tempDir func() string) error {
	if err := z.check(); err != nil {
		return fmt.Errorf("bad yaml format: %w", err)
	}
	return runsh(ctx, shellPath, testDir, tempDir(), z)
}

func (z *ZTest) RunInternal(ctx context.Context) error {
	if err := z.check(); err != nil {
		return fmt.Errorf("bad yaml format: %w", err)
	}
	out, warnings, err := z.RunQuery(ctx, z.Format, z.Columnar)
	return z.diffInternal(out, warnings, err)
}

func (z *ZTest) diffInternal(out string, warnings []string, err error) error {
	var outDiffErr, errDiffErr, warnDiffErr error
	if z.Output != out {
		outDiffErr = diffErr("output", z.Output, out)
	}
	var errStr string
	if err != nil {
		// Append newline if err doesn't end with one.
		errStr = strings.TrimSuffix(err.Error(), "\n") + "\n"
	}
	if z.Error != errStr {
		errDiffErr = diffErr("error", z.Error, errStr)
	}
	var warnStr string
	if len(warnings) > 0 {
		warnStr = strings.Join(warnings, "\n") + "\n"
	}
	if z.Warnings != warnStr {
		warnDiffErr = diffErr("warnings", z.Warnings, warnStr)
	}
	return errors.Join(outDiffErr, errDiffErr, warnDiffErr)
}

func (z *ZTest) Run(t *testing.T, path, filename string) {
	if msg := z.ShouldSkip(path); msg != "" {
		t.Skip("skipping test:", msg)
	}
	var err error
	if z.Script != "" {
		err = z.RunScript(t.Context(), path, filepath.Dir(filename), t.TempDir)
	} else {
		err = z.RunInternal(t.Context())
	}
	if err != nil {
		t.Fatalf("%s: %s", filename, err)
	}
}

func diffErr(name, expected, actual string) error {
	if !utf8.ValidString(expected) {
		expected = hex.Dump([]byte(expected))
		actual = hex.Dump([]byte(actual))
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		FromFile: "expected",
		B:        difflib.SplitLines(actual),
		ToFile:   "actual",
		Context:  5,
	})
	if err != nil {
		panic("ztest: " + err.Error())
	}
	return fmt.Errorf("expected and actual %s differ:\n%s", name, diff)
}

func runsh(ctx context.Context, path, testDir, tempDir string, zt *ZTest) error {
	var stdin io.Reader
	for _, f := range zt.Inputs {
		b, _, err := f.load(testDir)
		if err != nil {
			return err
		}
		if f.Name == "stdin" {
			stdin = bytes.NewReader(b)
			continue
		}
		if err := os.WriteFile(filepath.Join(tempDir, f.Name), b, 0644); err != nil {
			return err
		}
	}
	stdout, stderr, err := RunShell(ctx, tempDir, path, zt.Script, stdin, zt.Env)
	if err != nil {
		return fmt.Errorf("script failed: %w\n=== stdout ===\n%s=== stderr ===\n%s",
			err, stdout, stderr)
	}
	for _, f := range zt.Outputs {
		var actual string
		switch f.Name {
		case "stdout":
			actual = stdout
		case "stderr":
			actual = stderr
		default:
			b, err := os.ReadFile(filepath.Join(tempDir, f.Name))
			if err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
			actual = string(b)
		}
		expected, expectedRE, err := f.load(testDir)
		if err != nil {
			return err
		}
		if expected != nil && string(expected) != actual {
			return diffErr(f.Name, string(expected), actual)
		}
		if expectedRE != nil && !expectedRE.MatchString(actual) {
			return fmt.Errorf("%s: regexp %q does not match %q", f.Name, expectedRE, actual)
		}
	}
	return nil
}

// RunQuery runs the test's query over its inputs and returns the output
// rendered in format along with any warnings.  The options are checked as
// they are for an HTTP request so format errors are returned before the
// query runs.
func (z *ZTest) RunQuery(ctx context.Context, format string, columnar bool) (string, []string, error) {
	opts, err := queryio.Negotiate(queryio.Options{
		Format:    format,
		Delimiter: z.Delimiter,
		Columnar:  columnar,
	})
	if err != nil {
		return "", nil, err
	}
	list := &params.List{}
	if z.Params != "" {
		if list, err = params.Parse([]byte(z.Params)); err != nil {
			return "", nil, err
		}
	}
	cat := catalog.NewMemory()
	names := make([]string, 0, len(z.Input))
	for name := range z.Input {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := cat.Load(name, "ndjson", strings.NewReader(z.Input[name])); err != nil {
			return "", nil, err
		}
	}
	rctx := runtime.NewContext(ctx, language.AmericanEnglish)
	q, err := compiler.Compile(rctx, exec.NewEnvironment(cat), list, z.Query)
	if err != nil {
		rctx.Cancel()
		return "", nil, err
	}
	defer q.Close()
	var outbuf bytes.Buffer
	w, err := anyio.NewWriter(sio.NopCloser(&outbuf), q.Schema(), opts)
	if err != nil {
		return "", nil, err
	}
	err = sio.Copy(w, q)
	if err == nil {
		// A zero summary keeps the output of the json and yaml formats
		// reproducible.
		err = sio.Finish(w, sio.Summary{})
	}
	if err2 := w.Close(); err == nil {
		err = err2
	}
	return outbuf.String(), q.Warnings(), err
}
