package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/otofune/reddl"
	"github.com/otofune/reddl/config"
	"github.com/otofune/reddl/ctxdebugfs"
	"github.com/otofune/reddl/ctxlogger"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

type options struct {
	configPath  string
	showVersion bool

	logLevel  string
	muxer     string
	userAgent string
	dir       string
	debugDir  string
	noProg    bool
}

func parseFlags(args []string, stderr io.Writer) (*options, []string, error) {
	opts := &options{}

	fs := pflag.NewFlagSet("reddl", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.configPath, "config", "c", "", "YAML config file")
	fs.BoolVar(&opts.showVersion, "version", false, "Print version and exit")
	fs.StringVar(&opts.logLevel, "log-level", "", "DEBUG, INFO, WARNING, ERROR, CRITICAL or OFF (overrides LOGLEVEL)")
	fs.StringVar(&opts.muxer, "ffmpeg", "", "ffmpeg executable (overrides FFMPEG)")
	fs.StringVar(&opts.userAgent, "user-agent", "", "HTTP User-Agent (overrides USER_AGENT)")
	fs.StringVarP(&opts.dir, "output-dir", "o", "", "Directory for intermediate and final files")
	fs.StringVar(&opts.debugDir, "debug-dir", "", "Save the API response and manifest here")
	fs.BoolVar(&opts.noProg, "no-progress", false, "Do not draw download progress bars")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: reddl [flags] <post_id>\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if !opts.showVersion && fs.NArg() < 1 {
		fs.Usage()
		return nil, nil, reddl.ErrMissingPostID
	}
	return opts, fs.Args(), nil
}

// apply overrides cfg with the flags that were given.
func (o *options) apply(cfg *config.Config) error {
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.muxer != "" {
		cfg.Muxer = o.muxer
	}
	if o.userAgent != "" {
		cfg.UserAgent = o.userAgent
	}
	if o.dir != "" {
		cfg.Dir = o.dir
	}
	if o.debugDir != "" {
		cfg.DebugDir = o.debugDir
	}
	if o.noProg {
		cfg.Progress = false
	}
	return cfg.Validate()
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, rest, err := parseFlags(args, stderr)
	if err == pflag.ErrHelp {
		return 0
	}
	if err != nil {
		return 1
	}
	if opts.showVersion {
		fmt.Fprintf(stdout, "reddl %s\n", version())
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	if err := opts.apply(cfg); err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}

	logger, err := ctxlogger.New(cfg.LogLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "logger: %v\n", err)
		return 1
	}
	ctx := ctxlogger.WithLogger(context.Background(), logger)

	if cfg.DebugDir != "" {
		dfs, err := ctxdebugfs.NewOSDebugFS(cfg.DebugDir)
		if err != nil {
			logger.Errorf("%v", err)
			return 1
		}
		ctx = ctxdebugfs.WithDebugFS(ctx, dfs)
	}

	client := reddl.New(cfg)
	if cfg.Progress && isTerminal(stderr) {
		client = client.WithProgress(stderr)
	}

	if _, err := client.Run(ctx, rest[0]); err != nil {
		logger.Errorf("%v", err)
		return 1
	}
	return 0
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
