package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // лимит для тестового корпуса
	maxFuzzInput = 256 << 10
)

var templateSeeds = []string{
	"",
	"package p\n",
	`//go:build overrider

package p

//overrider:default
func Greet() string { return "default" }

//overrider:override_default(priority = 2)
func Greet() string { return "override" }
`,
	`//go:build overrider

package p

type T struct{}

//overrider:default
func (T) Speed() int { return 1 }

//overrider:override_flag(flag = fast, priority = 2)
func (t T) Speed() int { return 2 }

//overrider:override_flag(flag = fast, invert = true)
func (t *T) Speed() int { return 0 }
`,
	`//go:build overrider

package p

const (
	//overrider:default
	Limit = 10
	//overrider:override_default(priority = 1)
	Limit = 20
)

//overrider:override_final
const Limit = 30
`,
	`package p

//overrider:override_default(priority = -1, priority = 2, bogus)
func F() {}

//overrider:override_flag(flag = )
var V int
`,
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range templateSeeds {
		f.Add([]byte(s))
	}
	addTestdataSeeds(f)
}

// addTestdataSeeds adds every Go file under the repository's testdata
// directories.
func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..")
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() || filepath.Ext(path) != ".go" || filepath.Base(filepath.Dir(path)) == "fuzz" {
			return nil
		}
		if !underTestdata(path) {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func underTestdata(path string) bool {
	for dir := filepath.Dir(path); dir != "." && dir != ".."; dir = filepath.Dir(dir) {
		if filepath.Base(dir) == "testdata" {
			return true
		}
	}
	return false
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		input = input[:maxFuzzInput]
	}
	return append([]byte(nil), input...)
}
