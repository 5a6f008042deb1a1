// Command overriderlint reports //overrider: directives that the Go
// toolchain would compile as plain comments or that overrider would reject.
//
//	go vet -vettool=$(which overriderlint) ./...
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"overrider/internal/lint"
)

func main() {
	singlechecker.Main(lint.Analyzer)
}
