package main

import (
	"fmt"
	"os"
	"strings"
)

// uiMode selects between the progress view and plain log output.
type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	mode := uiMode(strings.ToLower(strings.TrimSpace(value)))
	switch mode {
	case "":
		return uiModeAuto, nil
	case uiModeAuto, uiModeOn, uiModeOff:
		return mode, nil
	default:
		return "", fmt.Errorf("--ui %q: the shim build progress view is auto, on or off", value)
	}
}

// progressView reports whether the build should draw the progress view on
// out; auto draws it only on a terminal.
func (m uiMode) progressView(out *os.File) bool {
	switch m {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	default:
		return isTerminal(out)
	}
}
