// Command cncrouter runs a G-code program through the motion core:
// parse and validate the whole program, then drive three stepper axes
// in parallel, one command at a time, per spec.md §4.E.
//
// Grounded on amken3d-gopper/host/cmd/gopper-host/main.go's package-level
// flag.* variables and Connect/Close/error-to-stderr shape.
package main

import (
	"flag"
	"fmt"
	"os"

	"cncrouter/internal/config"
	"cncrouter/internal/executor"
	"cncrouter/internal/gcode"
	"cncrouter/internal/hal"
	"cncrouter/internal/logx"
	"cncrouter/internal/planner"
	"cncrouter/internal/position"
	"cncrouter/internal/rampcache"
)

var (
	gcodePath  = flag.String("gcode", "", "Path to the G-code program to run (required)")
	debug      = flag.Bool("debug", false, "Run against a mock GPIO provider instead of real hardware")
	configPath = flag.String("config", "", "Path to the YAML configuration file")
	rampDBPath = flag.String("ramp-cache-db", "", "Path to a SQLite database for ramp-profile memoization")
)

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	if *gcodePath == "" {
		fmt.Fprintln(os.Stderr, "cncrouter: -gcode PATH is required")
		flag.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cncrouter: %v\n", err)
		return 1
	}

	log, err := logx.New(logx.Config{Level: cfg.Logging.Level, LogDir: cfg.Logging.LogDir, MaxSizeMB: 20, MaxBackups: 3, MaxAgeDays: 14})
	if err != nil {
		fmt.Fprintf(os.Stderr, "cncrouter: %v\n", err)
		return 1
	}
	defer log.Sync()

	dbPath := *rampDBPath
	if dbPath == "" {
		dbPath = cfg.RampCacheDB
	}
	cache, closeCache, err := openRampCache(dbPath)
	if err != nil {
		log.Errorw("failed to open ramp cache", "error", err)
		return 1
	}
	defer closeCache()

	provider, err := openProvider(*debug)
	if err != nil {
		log.Errorw("failed to open GPIO provider", "error", err)
		return 1
	}
	defer provider.Close()

	store := position.NewStore(cfg.CoordFile)
	plan := planner.New(cache)

	exec, err := executor.New(cfg, provider, plan, store, log)
	if err != nil {
		log.Errorw("failed to initialize executor", "error", err)
		return 1
	}
	defer func() {
		if err := exec.Shutdown(); err != nil {
			log.Errorw("shutdown error", "error", err)
		}
	}()

	f, err := os.Open(*gcodePath)
	if err != nil {
		log.Errorw("failed to open G-code file", "path", *gcodePath, "error", err)
		return 1
	}
	defer f.Close()

	parser := gcode.NewParser(newLimitsAdapter(cfg))
	cmds, err := parser.ParseAll(f)
	if err != nil {
		log.Errorw("G-code parse error", "error", err)
		return 1
	}
	log.Infow("parsed program", "commands", len(cmds))

	if err := exec.Run(cmds); err != nil {
		log.Errorw("run aborted", "error", err)
		return 1
	}

	pos := exec.Position()
	log.Infow("run complete", "x", pos.X, "y", pos.Y, "z", pos.Z)
	return 0
}

func openProvider(debugMode bool) (hal.Provider, error) {
	if debugMode {
		return hal.NewMockProvider(), nil
	}
	return hal.NewRPIOProvider()
}

func openRampCache(dbPath string) (rampcache.Cache, func(), error) {
	if dbPath == "" {
		c := rampcache.NewMemCache()
		return c, func() { c.Close() }, nil
	}
	c, err := rampcache.NewSQLiteCache(dbPath)
	if err != nil {
		return nil, func() {}, err
	}
	return c, func() { c.Close() }, nil
}

// limitsAdapter adapts config.Config's per-axis limits to gcode.Limits.
type limitsAdapter struct {
	cfg *config.Config
}

func newLimitsAdapter(cfg *config.Config) *limitsAdapter { return &limitsAdapter{cfg: cfg} }

func (l *limitsAdapter) InLimits(axis byte, v float64) bool {
	key := map[byte]string{'X': "x", 'Y': "y", 'Z': "z"}[axis]
	a, ok := l.cfg.Axes[key]
	if !ok {
		return true
	}
	return v >= a.LimitMin && v <= a.LimitMax
}
