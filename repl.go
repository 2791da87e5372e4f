package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/thiremani/redscript/compiler"
	"github.com/thiremani/redscript/config"
	"github.com/thiremani/redscript/mc"
	"github.com/thiremani/redscript/token"
)

const (
	historyFile = ".redscript_history"
	promptMain  = "rs> "
	promptCont  = "... "
	replFile    = "<repl>"
)

// replSession recompiles everything entered so far on each entry and
// reports the commands the entry added.
type replSession struct {
	cfg      *config.Config
	accepted string
	shown    int             // entry function commands already reported
	funcs    map[string]bool // functions already reported
	warned   int
}

func newReplSession(cfg *config.Config) *replSession {
	return &replSession{cfg: cfg, funcs: map[string]bool{}}
}

// Eval compiles entry after the accepted source. incomplete reports input
// that ends inside a statement or block; nothing is accepted then.
func (s *replSession) Eval(entry string) (out []string, incomplete bool, err error) {
	src := s.accepted + entry + "\n"
	p, err := compiler.Compile(replFile, src, compiler.Options{Entry: "repl"})
	if err != nil {
		var ce *token.CompileError
		if errors.As(err, &ce) && ce.Kind == token.EOFError {
			return nil, true, nil
		}
		return nil, false, err
	}
	gen, err := mc.Generate(p, s.cfg)
	if err != nil {
		return nil, false, err
	}
	s.accepted = src

	for _, w := range p.Warnings[s.warned:] {
		out = append(out, "⚠️ "+w.String())
	}
	s.warned = len(p.Warnings)

	for _, f := range gen.Functions {
		if f == gen.Entry || s.funcs[f.Name] {
			continue
		}
		s.funcs[f.Name] = true
		out = append(out, fmt.Sprintf("function %s:", f.ID(gen.Namespace)))
		for _, l := range f.Lines() {
			out = append(out, "  "+l)
		}
	}
	body := gen.Entry.Lines()[gen.InitLen:]
	out = append(out, body[min(s.shown, len(body)):]...)
	s.shown = len(body)
	return out, false, nil
}

// Source returns everything accepted so far.
func (s *replSession) Source() string { return s.accepted }

func cmdRepl(stdout, stderr io.Writer) int {
	cfg := config.New()
	if loaded, err := config.Load(config.FileName); err == nil {
		cfg = loaded
	}
	session := newReplSession(cfg)
	fmt.Fprintln(stdout, "redscript", Version, "- type :quit to exit")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	var pending strings.Builder
	for {
		prompt := promptMain
		if pending.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(stdout)
			return 0
		}
		if err != nil {
			fmt.Fprintf(stderr, "⚠️ %v\n", err)
			return 1
		}

		if pending.Len() == 0 {
			switch strings.TrimSpace(line) {
			case "":
				continue
			case ":quit":
				return 0
			case ":source":
				fmt.Fprint(stdout, session.Source())
				continue
			}
		}
		if pending.Len() > 0 {
			pending.WriteByte('\n')
		}
		pending.WriteString(line)

		out, incomplete, err := session.Eval(pending.String())
		if incomplete {
			continue
		}
		entry := pending.String()
		pending.Reset()
		if err != nil {
			printError(stderr, err, map[string]string{replFile: session.Source() + entry + "\n"})
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(entry, "\n", " "))
		for _, l := range out {
			fmt.Fprintln(stdout, l)
		}
	}
}
