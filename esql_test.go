package esql_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/brimdata/esql/sio/anyio"
	"github.com/brimdata/esql/sio/arrowio"
	"github.com/brimdata/esql/ztest"
	"github.com/stretchr/testify/require"
)

func TestESQL(t *testing.T) {
	t.Parallel()

	dirs, err := findZTests()
	require.NoError(t, err)

	t.Run("formats", func(t *testing.T) {
		t.Parallel()
		tests, err := loadQueryTests(dirs)
		require.NoError(t, err)
		for _, format := range anyio.Formats {
			runAllFormats(t, format, false, tests)
		}
		runAllFormats(t, "json", true, tests)
		runAllFormats(t, "yaml", true, tests)
	})

	for d := range dirs {
		t.Run(filepath.ToSlash(d), func(t *testing.T) {
			t.Parallel()
			ztest.Run(t, d)
		})
	}
}

func findZTests() (map[string]struct{}, error) {
	dirs := map[string]struct{}{}
	pattern := fmt.Sprintf(`.*ztests\%c.*\.yaml$`, filepath.Separator)
	re := regexp.MustCompile(pattern)
	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && strings.HasPrefix(info.Name(), "_") {
			return filepath.SkipDir
		}
		if !info.IsDir() && strings.HasSuffix(path, ".yaml") && re.MatchString(path) {
			dirs[filepath.Dir(path)] = struct{}{}
		}
		return nil
	})
	return dirs, err
}

// loadQueryTests returns the in-process ztests that are expected to
// succeed.
func loadQueryTests(dirs map[string]struct{}) (map[string]*ztest.ZTest, error) {
	out := map[string]*ztest.ZTest{}
	for dir := range dirs {
		bundles, err := ztest.Load(dir)
		if err != nil {
			return nil, err
		}
		for _, b := range bundles {
			if b.Test == nil || b.Test.Query == "" || b.Test.Error != "" || b.Test.Skip != "" {
				continue
			}
			out[b.FileName] = b.Test
		}
	}
	return out, nil
}

// runAllFormats checks that the result of every query can be written in
// format.
func runAllFormats(t *testing.T, format string, columnar bool, tests map[string]*ztest.ZTest) {
	name := format
	if columnar {
		name += "-columnar"
	}
	t.Run(name, func(t *testing.T) {
		t.Parallel()
		for filename, zt := range tests {
			t.Run(filename, func(t *testing.T) {
				t.Parallel()
				clone := *zt
				clone.Delimiter = ""
				_, _, err := clone.RunQuery(t.Context(), format, columnar)
				if errors.Is(err, arrowio.ErrMultiValue) {
					t.Skipf("skipping due to expected error: %s", err)
				}
				require.NoError(t, err)
			})
		}
	})
}
