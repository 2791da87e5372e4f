package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/thiremani/redscript/compiler"
	"github.com/thiremani/redscript/config"
	"github.com/thiremani/redscript/datapack"
	"github.com/thiremani/redscript/mc"
	"github.com/thiremani/redscript/rbc"
	"github.com/thiremani/redscript/token"
)

var RS_SUFFIX = ".rs"

const usage = `usage:
  redscript build [-config rs.config] [-ir] <file.rs> [outdir]
  redscript repl
  redscript version
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	switch args[0] {
	case "build":
		return cmdBuild(args[1:], stdout, stderr)
	case "repl":
		return cmdRepl(stdout, stderr)
	case "version", "-v", "--version":
		printVersion(stdout)
		return 0
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	}
	fmt.Fprintf(stderr, "⚠️ unknown command %q\n%s", args[0], usage)
	return 2
}

// fileIncluder resolves `use` paths relative to the including project.
type fileIncluder struct {
	dir     string
	sources map[string]string // every file read, for error diagrams
}

func (fi *fileIncluder) Include(path string) (string, string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(fi.dir, path)
	}
	name := filepath.Clean(path)
	data, err := os.ReadFile(name)
	if err != nil {
		return "", "", err
	}
	fi.sources[name] = string(data)
	return name, string(data), nil
}

func cmdBuild(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", config.FileName, "path of the config file")
	dumpIR := fs.Bool("ir", false, "print the intermediate representation")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	srcFile := fs.Arg(0)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		printError(stderr, err, nil)
		return 1
	}

	source, err := os.ReadFile(srcFile)
	if err != nil {
		fmt.Fprintf(stderr, "⚠️ Error reading %s: %v\n", srcFile, err)
		return 1
	}
	stem := strings.ToLower(strings.TrimSuffix(filepath.Base(srcFile), RS_SUFFIX))

	includer := &fileIncluder{dir: filepath.Dir(srcFile), sources: map[string]string{srcFile: string(source)}}
	p, err := compiler.Compile(srcFile, string(source), compiler.Options{
		Entry:    cfg.Entry(stem),
		Includer: includer,
	})
	if err != nil {
		printError(stderr, err, includer.sources)
		return 1
	}
	printWarnings(stderr, p)
	if *dumpIR {
		fmt.Fprint(stdout, p.Dump())
	}

	out, err := mc.Generate(p, cfg)
	if err != nil {
		printError(stderr, err, includer.sources)
		return 1
	}

	dir := fs.Arg(1)
	if dir == "" {
		if dir, err = datapack.DefaultDir(cfg, stem); err != nil {
			printError(stderr, err, nil)
			return 1
		}
	}
	res, err := datapack.Write(dir, out, cfg)
	if err != nil {
		printError(stderr, err, includer.sources)
		return 1
	}
	fmt.Fprintf(stdout, "✅ Built datapack %s: %d function(s), build %s\n", res.Dir, len(out.Functions), res.BuildID)
	return 0
}

func printWarnings(w io.Writer, p *rbc.Program) {
	for _, warn := range p.Warnings {
		fmt.Fprintf(w, "⚠️ %s\n", warn)
	}
}

// printError renders compile errors as caret diagrams when the offending
// source is known.
func printError(w io.Writer, err error, sources map[string]string) {
	var ce *token.CompileError
	if !errors.As(err, &ce) {
		fmt.Fprintf(w, "⚠️ %v\n", err)
		return
	}
	if src, ok := sources[ce.Token.FileName]; ok {
		fmt.Fprint(w, ce.Diagram(src))
		return
	}
	fmt.Fprintf(w, "⚠️ %s\n", ce)
}
