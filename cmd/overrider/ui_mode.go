package main

import (
	"fmt"
	"os"
	"strings"
)

// uiMode is the --ui setting of build.
type uiMode uint8

const (
	uiAuto uiMode = iota
	uiOn
	uiOff
)

var uiModes = map[string]uiMode{"": uiAuto, "auto": uiAuto, "on": uiOn, "off": uiOff}

func parseUIMode(value string) (uiMode, error) {
	mode, ok := uiModes[strings.TrimSpace(strings.ToLower(value))]
	if !ok {
		return uiAuto, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
	return mode, nil
}

// enabled decides whether the progress view draws on out. Auto needs a
// terminal and a non-quiet run.
func (m uiMode) enabled(out *os.File, quiet bool) bool {
	switch m {
	case uiOn:
		return true
	case uiOff:
		return false
	default:
		return !quiet && isTerminal(out)
	}
}
