package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opd-ai/clipxfer/cadence"
	"github.com/opd-ai/clipxfer/config"
	"github.com/opd-ai/clipxfer/file"
	"github.com/opd-ai/clipxfer/limits"
	"github.com/opd-ai/clipxfer/transport"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Exit codes.
const (
	exitOK       = 0
	exitConfig   = 1
	exitTransfer = 2
)

// errUsage marks problems with the command line itself.
var errUsage = errors.New("usage error")

// printUsage prints the top-level usage information.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "clipxfer - move files through a shared clipboard")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  clipxfer send <file-or-directory> [options]")
	fmt.Fprintln(w, "  clipxfer recv (--out <file> | --out-dir <dir>) [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'clipxfer send --help' or 'clipxfer recv --help' for options.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  # Send a directory tree, one frame every 10s tick")
	fmt.Fprintln(w, "  clipxfer send ./outbox --recursive --ext .pdf --ext .txt")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  # Receive into a directory, give up after 10 minutes without progress")
	fmt.Fprintln(w, "  clipxfer recv --out-dir ./inbox --timeout 10m")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  # Step through frames by hand with the control protocol")
	fmt.Fprintln(w, "  clipxfer send report.pdf --protocol control --cadence manual --chunk 1m")
	fmt.Fprintln(w, "  clipxfer recv --out report.pdf --protocol control --cadence manual")
}

// newFlagSet defines the flags of a subcommand.
func newFlagSet(role config.Role, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("clipxfer "+string(role), pflag.ContinueOnError)
	fs.SetOutput(stderr)

	// Wire format and pacing
	fs.String(config.KeyProtocol, config.DefaultProtocol, "Wire protocol: header-crc or control")
	fs.String(config.KeyCadence, string(config.CadenceAligned), "Pacing: interval, aligned or manual")
	fs.Duration(config.KeyInterval, config.DefaultInterval, "Delay (interval) or tick period (aligned)")
	offset := time.Duration(0)
	if role == config.RoleRecv {
		offset = config.DefaultRecvOffset
	}
	fs.Duration(config.KeyOffset, offset, "Offset after each aligned tick")
	fs.Bool(config.KeyNoWaitFirst, false, "Do not wait before the first frame or poll")

	// Transport
	fs.String(config.KeyTransport, string(config.TransportClipboard), "Shared buffer: clipboard or file")
	fs.String(config.KeyTransportFile, "", "Path of the shared file for --transport file")

	switch role {
	case config.RoleSend:
		fs.String(config.KeyChunk, config.DefaultChunk, "Base64 payload size per frame (e.g. 4m, 512k, '1 << 20')")
		fs.Bool(config.KeyRecursive, false, "Include subdirectories")
		fs.StringSlice(config.KeyExtensions, nil, "Only send files with these extensions (repeatable)")
	case config.RoleRecv:
		fs.String(config.KeyOut, "", "Write every received file to this path")
		fs.String(config.KeyOutDir, "", "Write received files under this directory")
		fs.Bool(config.KeyAppend, false, "Append to existing outputs instead of truncating")
		fs.Duration(config.KeyTimeout, 0, "Stop after this long without progress (0 = never)")
	}

	// Logging
	fs.String(config.KeyLogLevel, config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	fs.String(config.KeyLogFormat, "text", "Log format: text or json")
	fs.String(config.KeyLogFile, "", "Log file path (default: stderr)")

	fs.String("config", "", "Configuration file (yaml, toml or json)")
	fs.BoolP("help", "h", false, "Show help message")
	return fs
}

// parseCLI parses a subcommand's arguments into a validated configuration and
// its positional arguments.
func parseCLI(role config.Role, args []string, stderr io.Writer) (*config.Config, []string, error) {
	fs := newFlagSet(role, stderr)
	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if help, _ := fs.GetBool("help"); help {
		fmt.Fprintf(stderr, "Usage of clipxfer %s:\n", role)
		fs.PrintDefaults()
		return nil, nil, pflag.ErrHelp
	}

	v := config.NewViper()
	config.SetDefaults(v, role)
	if err := bindFlags(v, fs); err != nil {
		return nil, nil, err
	}

	configFile, _ := fs.GetString("config")
	if err := config.ReadFile(v, configFile); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(v, role)
	if err != nil {
		return nil, nil, err
	}
	return cfg, fs.Args(), nil
}

// bindFlags binds every setting flag to its viper key.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Name == "config" || f.Name == "help" {
			return
		}
		err = v.BindPFlag(f.Name, f)
	})
	return err
}

// setupLogging configures the standard logger and returns the log file to
// close, if any.
func setupLogging(cfg *config.Config, stderr io.Writer) (io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logrus.SetLevel(level)

	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if cfg.LogFile == "" {
		logrus.SetOutput(stderr)
		return nil, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logrus.SetOutput(f)
	return f, nil
}

// buildTransport creates the shared buffer selected by cfg.
func buildTransport(cfg *config.Config) (transport.Transport, error) {
	switch cfg.Transport {
	case config.TransportFile:
		return transport.NewSharedFile(cfg.TransportFile)
	default:
		return transport.NewClipboard()
	}
}

// buildCadence creates the pacing selected by cfg.
func buildCadence(cfg *config.Config, stdin io.Reader, stdout io.Writer, prompt string) (cadence.Cadence, error) {
	var c cadence.Cadence
	var err error

	switch cfg.Cadence {
	case config.CadenceManual:
		c = cadence.NewManual(stdin, stdout, prompt)
	case config.CadenceInterval:
		c, err = cadence.NewInterval(cfg.Interval, cadence.SystemClock{})
	default:
		c, err = cadence.NewAligned(cfg.Interval, cfg.Offset, cadence.SystemClock{})
	}
	if err != nil {
		return nil, err
	}

	if cfg.NoWaitFirst {
		c = cadence.SkipFirst(c)
	}
	return c, nil
}

// printProgress writes one progress line per frame.
func printProgress(w io.Writer) file.ProgressFunc {
	return func(p file.Progress) {
		line := p.String()
		if p.Rate > 0 {
			line += " " + limits.FormatBytes(p.Rate) + "/s"
		}
		if eta := p.ETA(); eta > 0 {
			line += fmt.Sprintf(" eta %s", eta.Round(time.Second))
		}
		fmt.Fprintln(w, line)
	}
}

// printSummary writes one line per finished file.
func printSummary(w io.Writer, results []file.FileResult) {
	for _, res := range results {
		status := "done"
		if !res.Complete {
			status = "partial"
		}
		fmt.Fprintf(w, "%s %s %s blake2b=%s\n", status, res.Name, limits.FormatBytes(float64(res.Bytes)), res.Digest)
	}
}

// runSend sends every source under root.
func runSend(ctx context.Context, cfg *config.Config, root string, stdin io.Reader, stdout io.Writer) error {
	sources, err := file.CollectSources(root, cfg.Recursive, cfg.Extensions)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if len(sources) == 0 {
		fmt.Fprintln(stdout, "No files found.")
		return nil
	}

	protocol, err := file.ParseProtocol(cfg.Protocol)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	t, err := buildTransport(cfg)
	if err != nil {
		return err
	}
	defer t.Close()

	c, err := buildCadence(cfg, stdin, stdout, "Press Enter to copy the next frame ['q' to quit]: ")
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	sender, err := file.NewSender(t, file.SenderOptions{
		Protocol:   protocol,
		ChunkSize:  cfg.ChunkSize,
		Cadence:    c,
		OnProgress: printProgress(stdout),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	logrus.WithFields(logrus.Fields{
		"function":   "runSend",
		"root":       root,
		"files":      len(sources),
		"protocol":   protocol.String(),
		"chunk_size": sender.ChunkSize(),
		"cadence":    string(cfg.Cadence),
	}).Info("Starting send")

	results, err := sender.Send(ctx, sources)
	printSummary(stdout, results)
	return err
}

// runRecv receives until quit, timeout, cancellation or a fatal error.
func runRecv(ctx context.Context, cfg *config.Config, stdin io.Reader, stdout io.Writer) error {
	protocol, err := file.ParseProtocol(cfg.Protocol)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	target := file.FileTarget(cfg.Out)
	if cfg.OutDir != "" {
		if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
			return fmt.Errorf("%w: %v", file.ErrOutputFailure, err)
		}
		target = file.DirectoryTarget(cfg.OutDir)
	}
	target = target.WithAppend(cfg.Append)

	t, err := buildTransport(cfg)
	if err != nil {
		return err
	}
	defer t.Close()

	c, err := buildCadence(cfg, stdin, stdout, "Press Enter to read the clipboard ['q' to quit]: ")
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	receiver, err := file.NewReceiver(t, file.ReceiverOptions{
		Protocol:     protocol,
		Target:       target,
		Cadence:      c,
		Timeout:      cfg.Timeout,
		AllowRepeats: cfg.AllowRepeats(),
		OnProgress:   printProgress(stdout),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	err = receiver.Run(ctx)
	printSummary(stdout, receiver.Completed())
	return err
}

// exitCode maps a run result to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil,
		errors.Is(err, cadence.ErrQuit),
		errors.Is(err, context.Canceled),
		errors.Is(err, pflag.ErrHelp):
		return exitOK
	case errors.Is(err, errUsage),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, transport.ErrClipboardUnsupported):
		return exitConfig
	default:
		return exitTransfer
	}
}

// setupSignalHandling cancels ctx on SIGINT or SIGTERM. The returned function
// stops listening.
func setupSignalHandling(cancel context.CancelFunc) func() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigChan:
			logrus.WithFields(logrus.Fields{
				"function": "setupSignalHandling",
				"signal":   sig.String(),
			}).Warn("Received signal, shutting down")
			cancel()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}

// run executes the command line and returns the exit status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return exitConfig
	}

	var role config.Role
	switch args[0] {
	case "send":
		role = config.RoleSend
	case "recv", "receive":
		role = config.RoleRecv
	case "help", "-h", "--help":
		printUsage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "Unknown command %q\n\n", args[0])
		printUsage(stderr)
		return exitConfig
	}

	cfg, rest, err := parseCLI(role, args[1:], stderr)
	if err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(stderr, "Configuration error: %v\n", err)
			fmt.Fprintf(stderr, "Use 'clipxfer %s --help' for usage information.\n", role)
		}
		return exitCode(err)
	}

	logFile, err := setupLogging(cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return exitConfig
	}
	if logFile != nil {
		defer logFile.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := setupSignalHandling(cancel)
	defer stop()

	switch role {
	case config.RoleSend:
		if len(rest) != 1 {
			fmt.Fprintln(stderr, "Configuration error: send needs exactly one file or directory")
			return exitConfig
		}
		err = runSend(ctx, cfg, rest[0], stdin, stdout)
	default:
		if len(rest) != 0 {
			fmt.Fprintf(stderr, "Configuration error: unexpected arguments %v\n", rest)
			return exitConfig
		}
		err = runRecv(ctx, cfg, stdin, stdout)
	}

	code := exitCode(err)
	switch {
	case err == nil:
		fmt.Fprintln(stdout, "Done.")
	case code == exitOK:
		fmt.Fprintf(stdout, "Stopped: %v\n", err)
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return code
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
