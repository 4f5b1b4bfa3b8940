package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"ghst-moe/internal/adapter/analyzer"
	"ghst-moe/internal/adapter/snapshot"
	"ghst-moe/internal/adapter/store"
	"ghst-moe/internal/domain"
	"ghst-moe/internal/infra/config"
	"ghst-moe/internal/infra/logger"
	"ghst-moe/internal/infra/tracer"
	"ghst-moe/internal/usecase"
	"ghst-moe/internal/usecase/orchestrator"
	"ghst-moe/internal/usecase/scheduler"
)

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "--help", "-h", "help":
		showUsage()
		return
	}

	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "moe: %v\n", err)
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`GHST MoE routing engine

Usage: moe <command> [options]

Commands:
  route <query>      Route a query to the most relevant experts and collect analyses
  suggest <text>     Suggest experts for a task description (no analysis)
  experts            List registered experts
  search <term>      Search experts by keyword, expertise or specialization
  domains            List known domains and their experts
  stats              Show router statistics
  export <file>      Export the registry to a JSON snapshot
  import <file>      Import a JSON snapshot (merge; --replace to overwrite)
  help               Show this help

Options common to all commands:
  --config <path>    Config file (default: moe.yaml; env GHSTMOE_CONFIG overrides)`)
}

// app bundles the wired components for a CLI invocation.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *usecase.Registry
	router   *usecase.Router
	orch     *orchestrator.Orchestrator
	store    *store.SQLiteStore
	flusher  *scheduler.Flusher
	shutdown []func()
}

func (a *app) close() {
	for i := len(a.shutdown) - 1; i >= 0; i-- {
		a.shutdown[i]()
	}
}

func buildApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: log}
	a.shutdown = append(a.shutdown, func() { closeLog() })

	stopTrace, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		a.close()
		return nil, err
	}
	a.shutdown = append(a.shutdown, func() { stopTrace(context.Background()) })

	a.registry = usecase.NewRegistry(log)
	if cfg.SeedBuiltinExperts() {
		if err := usecase.SeedBuiltin(a.registry); err != nil {
			a.close()
			return nil, err
		}
	}
	for _, meta := range cfg.Experts {
		if err := a.registry.Register(meta); err != nil {
			a.close()
			return nil, err
		}
	}

	scorer := usecase.NewScorer(usecase.ScoringWeights(cfg.Router.Weights))
	if err := scorer.Weights().Validate(); err != nil {
		a.close()
		return nil, err
	}
	a.router = usecase.NewRouter(a.registry, scorer, log)

	if cfg.Store.Path != "" {
		st, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			a.close()
			return nil, err
		}
		a.store = st
		a.shutdown = append(a.shutdown, func() { st.Close() })

		// Restore any persisted registry snapshot over the seed.
		saved, err := st.LoadRegistry(ctx)
		if err != nil {
			a.close()
			return nil, err
		}
		if len(saved) > 0 {
			if err := a.registry.Import(saved); err != nil {
				a.close()
				return nil, err
			}
		}

		a.flusher = scheduler.NewFlusher(a.registry, a.router, st, log)
		if cfg.Store.FlushSchedule != "" {
			if err := a.flusher.Start(cfg.Store.FlushSchedule); err != nil {
				a.close()
				return nil, err
			}
			a.shutdown = append(a.shutdown, a.flusher.Stop)
		} else {
			a.shutdown = append(a.shutdown, a.flusher.Flush)
		}
	}

	// Default analyzer bindings: metadata fallback behind a circuit
	// breaker, bound after the store restore so snapshot-only experts
	// get an analyzer too.
	analyzers := analyzer.NewRegistry(log)
	var breaker *analyzer.BreakerSettings
	if cfg.Orchestrator.Breaker.Enabled {
		breaker = &analyzer.BreakerSettings{
			MaxFailures: cfg.Orchestrator.Breaker.MaxFailures,
			Timeout:     cfg.Orchestrator.Breaker.Timeout,
			Interval:    cfg.Orchestrator.Breaker.Interval,
		}
	}
	if err := analyzer.BindDefaults(analyzers, a.registry.List(), breaker, log); err != nil {
		a.close()
		return nil, err
	}

	a.orch = orchestrator.New(a.router, analyzers, a.registry, orchestrator.Options{
		ExpertTimeout:  cfg.Orchestrator.ExpertTimeout,
		OverallTimeout: cfg.Orchestrator.OverallTimeout,
		InvokeRate:     cfg.Orchestrator.InvokeRate,
		InvokeBurst:    cfg.Orchestrator.InvokeBurst,
	}, log)

	return a, nil
}

func run(command string, args []string) error {
	fs := flag.NewFlagSet(command, flag.ExitOnError)
	configPath := fs.String("config", "moe.yaml", "config file path")

	var (
		topK      = fs.Int("top-k", -1, "maximum experts to select (default from config)")
		threshold = fs.Float64("threshold", -1, "minimum relevance score (default from config)")
		domainArg = fs.String("domain", "", "primary domain hint / domain filter")
		preferred = fs.String("prefer", "", "comma-separated preferred expert IDs")
		replace   = fs.Bool("replace", false, "replace the registry instead of merging")
		asJSON    = fs.Bool("json", false, "JSON output")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()

	ctx := context.Background()
	a, err := buildApp(ctx, *configPath)
	if err != nil {
		return err
	}
	defer a.close()

	opts := usecase.RouteOptions{}
	switch {
	case *topK >= 0:
		opts = opts.WithTopK(*topK)
	case a.cfg.Router.TopK > 0:
		opts = opts.WithTopK(a.cfg.Router.TopK)
	}
	switch {
	case *threshold >= 0:
		opts = opts.WithThreshold(*threshold)
	case a.cfg.Router.Threshold > 0:
		opts = opts.WithThreshold(a.cfg.Router.Threshold)
	}

	switch command {
	case "route":
		if len(rest) == 0 {
			return fmt.Errorf("route: missing query")
		}
		qctx := buildContext(*domainArg, *preferred)
		result, err := a.orch.QueryExperts(ctx, strings.Join(rest, " "), qctx, opts)
		if err != nil {
			return err
		}
		return printJSON(result)

	case "suggest":
		if len(rest) == 0 {
			return fmt.Errorf("suggest: missing task description")
		}
		return printJSON(a.orch.Suggest(ctx, strings.Join(rest, " "), opts))

	case "experts":
		var experts []domain.ExpertMetadata
		if *domainArg != "" {
			experts = a.registry.ListByDomain(domain.ExpertDomain(*domainArg))
		} else {
			experts = a.registry.List()
		}
		if *asJSON {
			return printJSON(experts)
		}
		for _, e := range experts {
			state := "enabled"
			if !e.Enabled {
				state = "disabled"
			}
			fmt.Printf("%-22s %-14s %-8s %s\n", e.ExpertID, e.Domain, state, e.Expertise)
		}
		return nil

	case "search":
		if len(rest) == 0 {
			return fmt.Errorf("search: missing term")
		}
		return printJSON(a.registry.Search(strings.Join(rest, " ")))

	case "domains":
		return printJSON(a.orch.ListDomains())

	case "stats":
		return printJSON(a.orch.Statistics())

	case "export":
		if len(rest) != 1 {
			return fmt.Errorf("export: expected one file argument")
		}
		if err := snapshot.ExportFile(a.registry, rest[0]); err != nil {
			return err
		}
		fmt.Printf("exported %d experts to %s\n", a.registry.Len(), rest[0])
		return nil

	case "import":
		if len(rest) != 1 {
			return fmt.Errorf("import: expected one file argument")
		}
		n, err := snapshot.ImportFile(a.registry, rest[0], *replace)
		if err != nil {
			return err
		}
		fmt.Printf("imported %d experts from %s\n", n, rest[0])
		return nil

	default:
		showUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// buildContext assembles a QueryContext from CLI hints. Returns nil when
// no hint was given.
func buildContext(primaryDomain, preferred string) *domain.QueryContext {
	if primaryDomain == "" && preferred == "" {
		return nil
	}
	qctx := &domain.QueryContext{}
	if primaryDomain != "" {
		qctx.PrimaryDomain = domain.ExpertDomain(primaryDomain)
	}
	if preferred != "" {
		for _, id := range strings.Split(preferred, ",") {
			if id = strings.TrimSpace(id); id != "" {
				qctx.PreferredExperts = append(qctx.PreferredExperts, id)
			}
		}
	}
	return qctx
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
