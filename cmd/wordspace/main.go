// Package main is the wordspace CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hyperjump/wordspace/internal/analogy"
	"github.com/hyperjump/wordspace/internal/cli"
	"github.com/hyperjump/wordspace/internal/config"
	"github.com/hyperjump/wordspace/internal/graph"
	"github.com/hyperjump/wordspace/internal/loader"
	"github.com/hyperjump/wordspace/internal/mcp"
	"github.com/hyperjump/wordspace/internal/models"
	"github.com/hyperjump/wordspace/internal/server"
	"github.com/hyperjump/wordspace/internal/space"
	"github.com/hyperjump/wordspace/internal/storage"
	"github.com/hyperjump/wordspace/internal/watcher"
	"github.com/hyperjump/wordspace/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/wordspace/config.yaml"

// stdout receives command output; tests replace it.
var stdout io.Writer = os.Stdout

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// A missing default config falls back to built-in defaults and the environment.
// Returns the config and the path that was actually loaded, empty for defaults.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg := &config.Config{}
			if err := config.ApplyEnv(cfg); err != nil {
				return nil, "", err
			}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	config.LoadDotEnv()

	command, args := os.Args[1], os.Args[2:]
	var err error
	switch command {
	case "server":
		err = runServer(args)
	case "neighbors":
		err = runNeighbors(args)
	case "like":
		err = runPair("like", args, false)
	case "unlike":
		err = runPair("unlike", args, true)
	case "query":
		err = runQuery(args)
	case "within":
		err = runWithin(args)
	case "distance":
		err = runDistance(args)
	case "get":
		err = runGet(args)
	case "suggest":
		err = runSuggest(args)
	case "cluster":
		err = runCluster(args)
	case "graph":
		err = runGraph(args)
	case "import":
		err = runImport(args)
	case "status":
		err = runStatus(args)
	case "mcp":
		err = runMCP(args)
	case "version", "--version", "-v":
		fmt.Printf("wordspace version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// commonFlags are shared by every command that reads vectors.
type commonFlags struct {
	configPath *string
	vectors    *string
	format     *string
	maxWords   *int
	fraction   *float64
	debug      *bool
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		configPath: fs.String("config", defaultConfigPath, "config file path"),
		vectors:    fs.String("vectors", "", "vectors file, snapshot database or s3://bucket/key (overrides vectors.path)"),
		format:     fs.String("format", "", "vectors format: auto, text, binary or sqlite (overrides vectors.format)"),
		maxWords:   fs.Int("max-words", 0, "read at most this many words (overrides vectors.limit)"),
		fraction:   fs.Float64("fraction", 0, "read this share of the file's words when max-words is unset"),
		debug:      fs.Bool("debug", false, "enable debug logging"),
	}
}

// setup loads the config and applies flag overrides.
func (cf *commonFlags) setup(server bool) (*config.Config, *zap.Logger, error) {
	cfg, resolved, err := loadConfig(*cf.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if *cf.vectors != "" {
		cfg.Vectors.Path = *cf.vectors
	}
	if *cf.format != "" {
		cfg.Vectors.Format = *cf.format
	}
	if *cf.maxWords > 0 {
		cfg.Vectors.Limit = *cf.maxWords
	}
	if *cf.fraction > 0 {
		cfg.Vectors.Fraction = *cf.fraction
	}
	if _, err := loader.ParseFormat(cfg.Vectors.Format); err != nil {
		return nil, nil, err
	}

	debugMode := cfg.Debug || *cf.debug
	var logger *zap.Logger
	if server {
		logger, err = utils.NewLogger(debugMode)
	} else {
		logger, err = utils.NewCLILogger(debugMode)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded",
		zap.String("config_path", resolved),
		zap.String("vectors", cfg.Vectors.Path),
		zap.Bool("debug", debugMode))
	return cfg, logger, nil
}

// queryFlags adds the flags of commands that answer queries.
type queryFlags struct {
	*commonFlags
	server *string
	output *string
}

func addQueryFlags(fs *flag.FlagSet) *queryFlags {
	return &queryFlags{
		commonFlags: addCommonFlags(fs),
		server:      fs.String("server", "", "server URL; empty loads the vectors in-process"),
		output:      fs.String("output", "text", "output format: text, compact (word<TAB>distance) or json"),
	}
}

// open returns the backend selected by -server and the parsed output format.
func (qf *queryFlags) open(withVocab bool) (backend, cli.OutputFormat, error) {
	format, err := cli.ParseOutputFormat(*qf.output)
	if err != nil {
		return nil, "", err
	}
	if *qf.server != "" {
		return newHTTPBackend(*qf.server), format, nil
	}
	cfg, logger, err := qf.setup(false)
	if err != nil {
		return nil, "", err
	}
	if err := resolveVectorsPath(cfg); err != nil {
		return nil, "", err
	}
	components, err := initializeComponents(cfg, logger, withVocab)
	if err != nil {
		return nil, "", err
	}
	return newLocalBackend(components, cfg), format, nil
}

// reorderArgs moves any flags (and their values) that appear after the
// positional words to the front so that flag.Parse sees them. Go's flag
// package stops at the first non-flag argument.
func reorderArgs(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// joinArgs joins positional args with spaces so expressions work with or
// without shell quoting.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// flagSet reports whether name was given on the command line.
func flagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func usageFor(fs *flag.FlagSet, synopsis string) func() {
	return func() {
		fmt.Fprintf(fs.Output(), "Usage: wordspace %s\n\n", synopsis)
		fs.PrintDefaults()
	}
}

// queryError adds spelling suggestions to a not found error.
func queryError(ctx context.Context, b backend, err error, words ...string) error {
	var suggestions []string
	var ae *apiError
	switch {
	case errors.As(err, &ae):
		suggestions = ae.Suggestions
	case errors.Is(err, space.ErrNotFound):
		if lb, ok := b.(*localBackend); ok {
			suggestions = lb.Corrections(ctx, words...)
		}
	}
	if len(suggestions) > 0 {
		return fmt.Errorf("%w (did you mean: %s?)", err, strings.Join(suggestions, ", "))
	}
	return err
}

func runNeighbors(args []string) error {
	fs := flag.NewFlagSet("neighbors", flag.ExitOnError)
	qf := addQueryFlags(fs)
	n := fs.Int("n", 0, "number of results (default from config)")
	fs.Usage = usageFor(fs, "neighbors [flags] <word>")
	_ = fs.Parse(reorderArgs(args))
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("neighbors takes exactly one word")
	}

	b, format, err := qf.open(false)
	if err != nil {
		return err
	}
	defer b.Close()
	ctx := context.Background()
	word := fs.Arg(0)
	resp, err := b.Neighbors(ctx, &models.NeighborsRequest{Word: word, N: *n})
	if err != nil {
		return queryError(ctx, b, err, word)
	}
	return cli.WriteResults(stdout, resp, format)
}

func runPair(name string, args []string, negative bool) error {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	qf := addQueryFlags(fs)
	n := fs.Int("n", 0, "number of results (default from config)")
	factor := fs.Float64("factor", 1, "projection factor: 1 reflects through the hyperplane, 0.5 projects onto it (default from config)")
	fs.Usage = usageFor(fs, name+" [flags] <first> <second>")
	_ = fs.Parse(reorderArgs(args))
	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("%s takes exactly two words", name)
	}

	b, format, err := qf.open(false)
	if err != nil {
		return err
	}
	defer b.Close()
	ctx := context.Background()
	first, second := fs.Arg(0), fs.Arg(1)

	var resp *models.QueryResponse
	if first == second {
		// a word relates to itself as its own neighbours
		resp, err = b.Neighbors(ctx, &models.NeighborsRequest{Word: first, N: *n})
	} else {
		req := &models.PairRequest{First: first, Second: second, N: *n}
		if flagSet(fs, "factor") {
			f := float32(*factor)
			req.Factor = &f
		}
		resp, err = b.Pair(ctx, req, negative)
	}
	if err != nil {
		return queryError(ctx, b, err, first, second)
	}
	return cli.WriteResults(stdout, resp, format)
}

func runQuery(args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	qf := addQueryFlags(fs)
	n := fs.Int("n", 0, "number of results (default from config)")
	factor := fs.Float64("factor", 1, "projection factor for operators that do not give one (default from config)")
	fs.Usage = func() {
		usageFor(fs, "query [flags] <expression>")()
		fmt.Fprintf(fs.Output(), `
Expressions nest like and unlike; an optional third argument sets the factor:
  wordspace query 'unlike(like(mouse, keyboard), screen)'
  wordspace query 'like(paris, france, 0.5)'
Words that are reserved in the expression language must be quoted: like("in", "out").
`)
	}
	_ = fs.Parse(reorderArgs(args))
	expr := joinArgs(fs.Args())
	if expr == "" {
		fs.Usage()
		return errors.New("query needs an expression")
	}

	b, format, err := qf.open(false)
	if err != nil {
		return err
	}
	defer b.Close()
	ctx := context.Background()
	req := &models.QueryRequest{Expression: expr, N: *n}
	if flagSet(fs, "factor") {
		f := float32(*factor)
		req.Factor = &f
	}
	resp, err := b.Query(ctx, req)
	if err != nil {
		var words []string
		if tree, perr := analogy.Parse(expr, 1); perr == nil {
			words = tree.Words()
		}
		return queryError(ctx, b, err, words...)
	}
	return cli.WriteResults(stdout, resp, format)
}

func runWithin(args []string) error {
	fs := flag.NewFlagSet("within", flag.ExitOnError)
	qf := addQueryFlags(fs)
	threshold := fs.Float64("threshold", 0.3, "cosine distance bound between 0 and 2")
	fs.Usage = usageFor(fs, "within [flags] <word>")
	_ = fs.Parse(reorderArgs(args))
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("within takes exactly one word")
	}

	b, format, err := qf.open(false)
	if err != nil {
		return err
	}
	defer b.Close()
	ctx := context.Background()
	word := fs.Arg(0)
	resp, err := b.Within(ctx, &models.WithinRequest{Word: word, Threshold: float32(*threshold)})
	if err != nil {
		return queryError(ctx, b, err, word)
	}
	return cli.WriteResults(stdout, resp, format)
}

func runDistance(args []string) error {
	fs := flag.NewFlagSet("distance", flag.ExitOnError)
	qf := addQueryFlags(fs)
	fs.Usage = usageFor(fs, "distance [flags] <first> <second>")
	_ = fs.Parse(reorderArgs(args))
	if fs.NArg() != 2 {
		fs.Usage()
		return errors.New("distance takes exactly two words")
	}

	b, format, err := qf.open(false)
	if err != nil {
		return err
	}
	defer b.Close()
	ctx := context.Background()
	d, err := b.Distance(ctx, fs.Arg(0), fs.Arg(1))
	if err != nil {
		return queryError(ctx, b, err, fs.Arg(0), fs.Arg(1))
	}
	return cli.WriteDistance(stdout, d, format)
}

func runGet(args []string) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	qf := addQueryFlags(fs)
	exact := fs.Bool("exact", false, "disable fuzzy prefix/suffix matching")
	fs.Usage = usageFor(fs, "get [flags] <word>")
	_ = fs.Parse(reorderArgs(args))
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("get takes exactly one word")
	}

	b, format, err := qf.open(false)
	if err != nil {
		return err
	}
	defer b.Close()
	ctx := context.Background()
	info, err := b.Word(ctx, fs.Arg(0), *exact)
	if err != nil {
		return queryError(ctx, b, err, fs.Arg(0))
	}
	return cli.WriteWord(stdout, info, format)
}

func runSuggest(args []string) error {
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	qf := addQueryFlags(fs)
	limit := fs.Int("limit", 0, "maximum suggestions (default from config)")
	fs.Usage = usageFor(fs, "suggest [flags] <prefix-or-misspelling>")
	_ = fs.Parse(reorderArgs(args))
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("suggest takes exactly one word")
	}

	b, format, err := qf.open(true)
	if err != nil {
		return err
	}
	defer b.Close()
	resp, err := b.Suggest(context.Background(), fs.Arg(0), *limit)
	if err != nil {
		return err
	}
	return cli.WriteSuggestions(stdout, resp, format)
}

func runCluster(args []string) error {
	fs := flag.NewFlagSet("cluster", flag.ExitOnError)
	qf := addQueryFlags(fs)
	n := fs.Int("n", models.DefaultClusterSize, "size of each group")
	factor := fs.Float64("factor", 1, "projection factor of the like lists (default from config)")
	cutoff := fs.Float64("cutoff", models.DefaultClusterCutoff, "share of a group that must appear in another for the two to cluster")
	lists := fs.Bool("print-lists", false, "print every group")
	shared := fs.Bool("print-shared", false, "print how many members each group shares with the others")
	apart := fs.Bool("show-apart", false, "also print the groups each group does not cluster with")
	suppress := fs.Bool("suppress-clusters", false, "do not print the groups each group clusters with")
	fill := fs.Bool("fill-graph", false, "print every word that clusters with another group")
	fs.Usage = func() {
		usageFor(fs, "cluster [flags] <word>")()
		fmt.Fprintf(fs.Output(), `
Each of the -n neighbours w of word gets the group like(word, w); word's own
group is its neighbours. Two groups cluster when more than -cutoff of one
group's members also appear in the other.
`)
	}
	_ = fs.Parse(reorderArgs(args))
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("cluster takes exactly one word")
	}

	b, format, err := qf.open(false)
	if err != nil {
		return err
	}
	defer b.Close()
	ctx := context.Background()
	word := fs.Arg(0)
	req := &models.ClusterRequest{Word: word, N: *n, Cutoff: cutoff}
	if flagSet(fs, "factor") {
		f := float32(*factor)
		req.Factor = &f
	}
	res, err := b.Cluster(ctx, req)
	if err != nil {
		return queryError(ctx, b, err, word)
	}
	return cli.WriteCluster(stdout, res, cli.ClusterView{
		Lists:            *lists,
		Shared:           *shared,
		Apart:            *apart,
		SuppressClusters: *suppress,
		Members:          *fill,
	}, format)
}

func runGraph(args []string) error {
	fs := flag.NewFlagSet("graph", flag.ExitOnError)
	qf := addQueryFlags(fs)
	defaults := graph.DefaultOptions()
	ego := fs.String("ego", "", "build the network around this word only")
	hops := fs.Int("hops", 0, "with -ego, build the whole graph and keep the words within this many edges of the ego")
	words := fs.Int("words", defaults.Words, "maximum number of nodes")
	limit := fs.Float64("distance-limit", float64(defaults.DistanceLimit), "join words closer than this cosine distance")
	minN := fs.Int("min-neighbours", defaults.MinNeighbours, "edges every seed word gets even beyond the distance limit")
	maxN := fs.Int("max-neighbours", defaults.MaxNeighbours, "most edges added from one seed word")
	scaling := fs.Float64("weight-scaling", defaults.WeightScaling, "edge weight multiplier")
	out := fs.String("o", "", "output file; .json writes JSON, anything else GEXF, optionally .gz, .zst or .lz4 compressed (default stdout)")
	graphFormat := fs.String("graph-format", "auto", "graph format: auto (by -o extension, gexf on stdout), gexf or json")
	fs.Usage = usageFor(fs, "graph [flags]")
	_ = fs.Parse(reorderArgs(args))
	if fs.NArg() != 0 {
		fs.Usage()
		return errors.New("graph takes no positional arguments; use -ego")
	}
	gf, err := graph.ParseFormat(*graphFormat)
	if err != nil {
		return err
	}

	b, _, err := qf.open(false)
	if err != nil {
		return err
	}
	defer b.Close()
	ctx := context.Background()
	g, err := b.Graph(ctx, &models.GraphRequest{
		Ego:           *ego,
		Hops:          *hops,
		Words:         *words,
		DistanceLimit: float32(*limit),
		MinNeighbours: *minN,
		MaxNeighbours: *maxN,
		WeightScaling: *scaling,
	})
	if err != nil {
		return queryError(ctx, b, err, *ego)
	}

	if *out == "" {
		if gf == graph.FormatAuto {
			gf = graph.FormatGEXF
		}
		return graph.Encode(stdout, g, gf)
	}
	if err := graph.WriteFile(*out, g, gf); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	fmt.Fprintf(stdout, "Wrote %d nodes and %d edges to %s\n", len(g.Nodes), len(g.Edges), *out)
	return nil
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	cf := addCommonFlags(fs)
	outFormat := fs.String("out-format", "auto", "output format: auto (by extension), text, binary or sqlite")
	fs.Usage = func() {
		usageFor(fs, "import [flags] <source> [destination]")()
		fmt.Fprintf(fs.Output(), `
Reads vectors from a local file or s3://bucket/key (optionally .gz, .zst or
.lz4 compressed) and writes them to destination, by default the snapshot
database at storage.snapshot_path. Destinations ending in .txt or .bin are
written as word2vec files, compressed by suffix.
`)
	}
	_ = fs.Parse(reorderArgs(args))
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		return errors.New("import takes a source and an optional destination")
	}

	cfg, logger, err := cf.setup(false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	inFormat, err := loader.ParseFormat(cfg.Vectors.Format)
	if err != nil {
		return err
	}
	if *cf.format == "" {
		inFormat = loader.FormatAuto
	}
	out, err := loader.ParseFormat(*outFormat)
	if err != nil {
		return err
	}
	src := fs.Arg(0)
	dst := cfg.Storage.SnapshotPath
	if fs.NArg() == 2 {
		dst = fs.Arg(1)
	} else {
		out = loader.FormatSQLite
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	start := time.Now()
	ld := loader.New(loader.WithLogger(logger), loader.WithObjectStore(cfg.ObjectStore))
	s, err := ld.Load(ctx, src, loader.Options{
		Format: inFormat,
		Limits: loader.Limits{Limit: cfg.Vectors.Limit, Fraction: cfg.Vectors.Fraction},
	})
	if err != nil {
		return fmt.Errorf("load %s: %w", src, err)
	}
	if err := loader.WriteFile(dst, s, out); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	fmt.Fprintf(stdout, "Imported %d words (%d dimensions) from %s into %s in %s\n",
		s.Len(), s.Dimension(), src, dst, time.Since(start).Round(time.Millisecond))
	return nil
}

func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for the snapshot path)")
	serverURL := fs.String("server", "", "server URL; empty reports the local snapshot")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if *serverURL != "" {
		st, err := newHTTPBackend(*serverURL).Status(ctx)
		if err != nil {
			return fmt.Errorf("status failed: %w", err)
		}
		return cli.WriteStatus(stdout, st, format)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	path := cfg.Storage.SnapshotPath
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no snapshot at %s; run wordspace import or pass -server", path)
	}
	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return err
	}
	defer store.Close()
	info, err := store.Info(ctx)
	if err != nil {
		return fmt.Errorf("read snapshot %s: %w", path, err)
	}
	size, err := storage.SnapshotBytes(path)
	if err != nil {
		return err
	}
	return cli.WriteSnapshotInfo(stdout, path, info, size, format)
}

func runServer(args []string) error {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	cf := addCommonFlags(fs)
	port := fs.Int("port", 0, "listen port (overrides server.port)")
	_ = fs.Parse(args)

	cfg, logger, err := cf.setup(true)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if err := resolveVectorsPath(cfg); err != nil {
		return err
	}

	components, err := initializeComponents(cfg, logger, true)
	if err != nil {
		return err
	}
	defer components.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := components.Engine.Reload(ctx); err != nil {
		return err
	}

	if cfg.Vectors.Watch && !loader.IsObjectURL(cfg.Vectors.Path) {
		engine := components.Engine
		watchSvc := watcher.NewWatcher(
			[]string{cfg.Vectors.Path},
			func(path string) {
				if err := engine.Reload(ctx); err != nil {
					logger.Warn("reload after change failed", zap.String("path", path), zap.Error(err))
				}
			},
			watcher.WithLogger(logger),
		)
		if err := watchSvc.Start(ctx); err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(components.Engine, components.Vocab, cfg, logger)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func runMCP(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	cf := addCommonFlags(fs)
	_ = fs.Parse(args)

	cfg, logger, err := cf.setup(false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if err := resolveVectorsPath(cfg); err != nil {
		return err
	}
	components, err := initializeComponents(cfg, logger, true)
	if err != nil {
		return err
	}
	defer components.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := components.Engine.Reload(ctx); err != nil {
		return err
	}

	s := mcp.NewServer(components.Engine, components.Vocab, version, logger)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(s)
	}()
	select {
	case <-ctx.Done():
		return nil
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("mcp server error: %w", err)
		}
		return nil
	}
}

func printUsage() {
	fmt.Println(`wordspace - word embedding similarity and analogy engine

Usage:
  wordspace server [flags]                  Start the HTTP server
  wordspace neighbors [flags] <word>        Closest words by cosine distance
  wordspace like [flags] <first> <second>   Words related to first as second is not
  wordspace unlike [flags] <first> <second> The opposite transform of like
  wordspace query [flags] <expression>      Composed analogy, e.g. unlike(like(a, b), c)
  wordspace within [flags] <word>           Every word within -threshold of word
  wordspace distance [flags] <a> <b>        Cosine distance between two words
  wordspace get [flags] <word>              Resolve a word and print its vector
  wordspace suggest [flags] <text>          Completions and spelling suggestions
  wordspace cluster [flags] <word>          Which neighbours of word group together
  wordspace graph [flags]                   Export the neighbourhood graph as GEXF or JSON
  wordspace import [flags] <src> [dst]      Convert vectors, by default into the snapshot database
  wordspace status [flags]                  Show the snapshot or a running server
  wordspace mcp [flags]                     Serve MCP tools on stdio
  wordspace version                         Show version
  wordspace help                            Show this help

Common Flags:
  --config string     Config file path (default: /usr/local/etc/wordspace/config.yaml)
  --vectors string    Vectors file, snapshot database or s3://bucket/key
  --format string     auto, text, binary or sqlite
  --max-words int     Read at most this many words
  --fraction float    Read this share of the file when --max-words is unset
  --debug             Enable debug logging

Query Flags:
  --server string     Server URL. Empty (default) loads the vectors in-process.
  --output string     text, compact or json (default: text)
  --n int             Number of results (neighbors, like, unlike, query, cluster)
  --factor float      Projection factor (like, unlike, query, cluster)

Examples:
  wordspace import GoogleNews-vectors-negative300.bin.gz
  wordspace neighbors king
  wordspace like -n 5 king man
  wordspace query 'unlike(like(mouse, keyboard), screen)'
  wordspace within -threshold 0.25 coffee
  wordspace cluster -cutoff 0.4 -fill-graph bank
  wordspace graph -words 2000 -o words.gexf.gz
  wordspace graph -ego music -hops 2 -o music.json
  wordspace neighbors --server http://localhost:8080 --output json paris
  wordspace server --vectors vectors.txt.zst`)
}
