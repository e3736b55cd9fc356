// rsminspect inspects RSM model assets headlessly: LOD and slot listing,
// UV layout rendering, isolate/highlight entry dumps and slot editing.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Faultbox/rsm-inspector/internal/config"
	"github.com/Faultbox/rsm-inspector/internal/inspector"
	"github.com/Faultbox/rsm-inspector/internal/logger"
)

const loadTimeout = 30 * time.Second

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "uv":
		cmdUV(args)
	case "isolate":
		cmdIsolate(args)
	case "slots":
		cmdSlots(args)
	case "watch":
		cmdWatch(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`rsminspect - RSM model inspector

Usage:
  rsminspect <command> [options] <model.yaml>

Commands:
  info     <model.yaml>                       Show LODs, submeshes and material slots
  uv       [-o out.png] [-lod N] [-submesh N] Render the UV layout to PNG
  isolate  [-slot N] [-highlight N]           Print render entries per LOD
  slots    [-resize N] [-assign L:S=slot]     Edit material slots (-material N=path, -save to write back)
  watch    [-o out.png]                       Re-render the UV layout on every file change

Common options:
  -config <file>   Config file (default ./rsminspect.yaml or user config dir)
  -channel <name>  UV channel: texcoord, lightmap, none
  -size <px>       Preview size
  -workers <n>     Mesh decode workers
  -debug           Debug logging
  -log <file>      Also log to a rotating file

Examples:
  rsminspect info data/model/crate.yaml
  rsminspect uv -o crate_uv.png -lod 1 data/model/crate.yaml
  rsminspect isolate -slot 1 data/model/crate.yaml
  rsminspect slots -resize 3 -assign 0:1=2 -save data/model/crate.yaml`)
}

// session is the shared setup of every subcommand.
type session struct {
	fs    *flag.FlagSet
	flags *config.Flags
	cfg   *config.Config
}

func newSession(name string) *session {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return &session{fs: fs, flags: config.RegisterFlags(fs)}
}

// parse parses args, loads config and starts logging. It exits on error.
func (s *session) parse(args []string, usage string) string {
	s.fs.Parse(args)
	if s.fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: rsminspect %s\n", usage)
		os.Exit(1)
	}

	cfg, err := config.Load(s.flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	s.cfg = cfg

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	return s.fs.Arg(0)
}

// open opens the window and waits for the model to finish streaming.
func (s *session) open(manifest string, watch bool) *inspector.Window {
	cfg := *s.cfg
	cfg.Watch.Enabled = cfg.Watch.Enabled && watch

	w, err := inspector.Open(manifest, &cfg, logger.Named("inspector"))
	if err != nil {
		fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	if err := w.Model().WaitLoaded(ctx); err != nil {
		w.Close()
		fatal(fmt.Errorf("loading model: %w", err))
	}
	return w
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	logger.Sync()
	os.Exit(1)
}
