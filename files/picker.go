package files

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// ErrCancelled is returned by a picker when the user dismisses it.
var ErrCancelled = errors.New("file selection cancelled")

// Picker asks the user to choose a configuration file.
type Picker interface {
	Pick(ctx context.Context) (Handle, error)
}

// PromptPicker is a terminal picker: it prints a numbered listing of the
// registry and reads a choice. Choosing a directory descends into it; an
// empty line or EOF cancels. Concurrent picks take turns at the terminal.
type PromptPicker struct {
	Registry *Registry
	In       io.Reader
	Out      io.Writer

	mu      sync.Mutex
	scanner *bufio.Scanner // over In, shared by every pick
}

func (p *PromptPicker) Pick(ctx context.Context) (Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.scanner == nil {
		p.scanner = bufio.NewScanner(p.In)
	}
	scanner := p.scanner
	dir := ""
	for {
		if err := ctx.Err(); err != nil {
			return Handle{}, err
		}
		entries, err := p.Registry.List(dir)
		if err != nil {
			return Handle{}, err
		}
		if len(entries) == 0 {
			fmt.Fprintf(p.Out, "No %s files in %s\n", p.Registry.Extension(), dir)
		}
		for i, e := range entries {
			suffix := ""
			if e.IsDir {
				suffix = "/"
			}
			fmt.Fprintf(p.Out, "%3d) %s%s\n", i+1, e.Name, suffix)
		}
		fmt.Fprint(p.Out, "Select a config file (empty to cancel): ")

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return Handle{}, err
			}
			return Handle{}, ErrCancelled
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			return Handle{}, ErrCancelled
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(entries) {
			fmt.Fprintf(p.Out, "Invalid choice %q\n", line)
			continue
		}
		chosen := entries[n-1]
		if chosen.IsDir {
			dir = chosen.Path
			continue
		}
		return p.Registry.Grant(chosen.Path)
	}
}
