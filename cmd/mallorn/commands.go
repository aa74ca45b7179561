package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mallornproject/mallorn/internal/app"
	"github.com/mallornproject/mallorn/internal/config"
	"github.com/mallornproject/mallorn/internal/decision"
	"github.com/mallornproject/mallorn/internal/decision/cache"
	"github.com/mallornproject/mallorn/internal/store"
)

var (
	graphFile  string
	revisionID string

	evalTrace bool

	diffOldFile     string
	diffNewFile     string
	diffOldRevision string
	diffNewRevision string

	outputPath string

	saveDescription string
	saveSample      bool
)

var rootCmd = &cobra.Command{
	Use:   "mallorn",
	Short: "Evaluate, explain and diff update decision graphs",
	Long: `Mallorn routes update queries through a decision graph and answers
three questions about it: which package does this client get (eval),
which clients end up at this outcome (explain), and which clients
changed outcome between two graph versions (diff).

Graphs come from a JSON file (--graph), a stored revision
(--revision), or default to the built-in sample routing graph.`,
	SilenceUsage: true,
}

var evalCmd = &cobra.Command{
	Use:   "eval [key=value ...]",
	Short: "Evaluate a query against a graph",
	Long: `Evaluate a query against a graph and print the outcome.

Examples:
  mallorn eval product=Firefox os=windows cpuarch=64 osarch=32 version=56.0.1 locale=fr JAWS=0
  mallorn eval --graph routing.json product=Thunderbird
  mallorn eval --revision 01J... --trace product=Firefox os=linux version=57.0 locale=en-US`,
	RunE: runEval,
}

var explainCmd = &cobra.Command{
	Use:   "explain TARGET",
	Short: "Show which queries reach a node",
	Long: `Print one boolean expression per simple path that reaches TARGET.
A query satisfying any printed expression ends up at the node.

Example:
  mallorn explain jaws-incompatible`,
	Args: cobra.ExactArgs(1),
	RunE: runExplain,
}

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare outcome reachability between two graph versions",
	Long: `Compare two graph versions and report, per outcome, the query
populations that lost it (-) and gained it (+).

Examples:
  mallorn diff --old-graph v1.json --new-graph v2.json
  mallorn diff --old 01JOLD... --new 01JNEW...`,
	RunE: runDiff,
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a graph as Graphviz DOT",
	RunE:  runRender,
}

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Store a graph as a new revision",
	Long: `Store a graph file as a new revision and print its id.

Examples:
  mallorn save --graph routing.json -m "move cutoff to 57"
  mallorn save --sample -m "initial sample graph"`,
	RunE: runSave,
}

var revisionsCmd = &cobra.Command{
	Use:   "revisions",
	Short: "List stored graph revisions",
	RunE:  runRevisions,
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Write the built-in sample graph as JSON",
	RunE:  runDemo,
}

func init() {
	for _, cmd := range []*cobra.Command{evalCmd, explainCmd, renderCmd} {
		cmd.Flags().StringVarP(&graphFile, "graph", "f", "", "graph JSON file")
		cmd.Flags().StringVarP(&revisionID, "revision", "r", "", "stored revision id")
	}
	evalCmd.Flags().BoolVar(&evalTrace, "trace", false, "print the full evaluation trace")

	diffCmd.Flags().StringVar(&diffOldFile, "old-graph", "", "old graph JSON file")
	diffCmd.Flags().StringVar(&diffNewFile, "new-graph", "", "new graph JSON file")
	diffCmd.Flags().StringVar(&diffOldRevision, "old", "", "old revision id")
	diffCmd.Flags().StringVar(&diffNewRevision, "new", "", "new revision id")

	renderCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write to file instead of stdout")
	demoCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write to file instead of stdout")

	saveCmd.Flags().StringVarP(&graphFile, "graph", "f", "", "graph JSON file")
	saveCmd.Flags().StringVarP(&saveDescription, "message", "m", "", "revision description")
	saveCmd.Flags().BoolVar(&saveSample, "sample", false, "save the built-in sample graph")

	rootCmd.AddCommand(evalCmd, explainCmd, diffCmd, renderCmd, saveCmd, revisionsCmd, demoCmd)
}

// newService builds the engine, analyzer and cache from environment
// configuration. The revision store is only opened when a command
// actually touches it, so file-based commands never create a database.
func newService(needStore bool) (*app.Service, func(), error) {
	cfg := config.Load()

	engineOpts := []decision.EngineOption{decision.WithMaxSteps(cfg.MaxSteps)}
	if cfg.Seed != 0 {
		engineOpts = append(engineOpts, decision.WithRoller(decision.NewSeededRoller(cfg.Seed)))
	}
	engine := decision.NewEngine(engineOpts...)
	analyzer := decision.NewAnalyzer(decision.WithMaxDepth(cfg.MaxDepth))

	var graphStore app.GraphStore
	closeStore := func() {}
	if needStore {
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open store at %s: %w", cfg.DBPath, err)
		}
		graphStore = st
		closeStore = func() { _ = st.Close() }
	}

	svc := app.NewService(engine, analyzer, graphStore, cache.NewInMemory(cfg.CacheMaxItems))
	return svc, closeStore, nil
}

func resolveGraph(svc *app.Service) (*decision.Graph, error) {
	switch {
	case graphFile != "" && revisionID != "":
		return nil, fmt.Errorf("--graph and --revision are mutually exclusive")
	case graphFile != "":
		return readGraphFile(graphFile)
	case revisionID != "":
		return svc.Load(revisionID)
	default:
		return decision.SampleGraph(), nil
	}
}

func readGraphFile(path string) (*decision.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph file: %w", err)
	}
	var records []decision.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse graph file %s: %w", path, err)
	}
	g, err := decision.Decode(records)
	if err != nil {
		return nil, fmt.Errorf("decode graph file %s: %w", path, err)
	}
	return g, nil
}

func writeOutput(s string) error {
	if outputPath == "" {
		fmt.Print(s)
		return nil
	}
	return os.WriteFile(outputPath, []byte(s), 0o644)
}

func runEval(cmd *cobra.Command, args []string) error {
	q, err := ParseQuery(args)
	if err != nil {
		return err
	}

	svc, closeStore, err := newService(revisionID != "")
	if err != nil {
		return err
	}
	defer closeStore()

	g, err := resolveGraph(svc)
	if err != nil {
		return err
	}

	if evalTrace {
		outcome, trace, err := svc.EvaluateWithTrace(g, q)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(struct {
			Outcome any                       `json:"outcome"`
			Trace   *decision.EvaluationTrace `json:"trace"`
		}{outcome, trace}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	outcome, err := svc.Evaluate(g, q)
	if err != nil {
		return err
	}
	out, err := json.Marshal(outcome)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runExplain(cmd *cobra.Command, args []string) error {
	svc, closeStore, err := newService(revisionID != "")
	if err != nil {
		return err
	}
	defer closeStore()

	g, err := resolveGraph(svc)
	if err != nil {
		return err
	}

	explanations, err := svc.Explain(g, decision.NodeID(args[0]))
	if err != nil {
		return err
	}
	if len(explanations) == 0 {
		fmt.Println("unreachable")
		return nil
	}
	for _, e := range explanations {
		fmt.Println(e.Expr)
	}
	return nil
}

func runDiff(cmd *cobra.Command, args []string) error {
	fromFiles := diffOldFile != "" || diffNewFile != ""
	fromRevisions := diffOldRevision != "" || diffNewRevision != ""
	if fromFiles == fromRevisions {
		return fmt.Errorf("pass either --old-graph/--new-graph or --old/--new")
	}

	svc, closeStore, err := newService(fromRevisions)
	if err != nil {
		return err
	}
	defer closeStore()

	var changes []decision.Change
	if fromFiles {
		oldGraph, err := readGraphFile(diffOldFile)
		if err != nil {
			return err
		}
		newGraph, err := readGraphFile(diffNewFile)
		if err != nil {
			return err
		}
		changes, err = svc.Diff(oldGraph, newGraph)
		if err != nil {
			return err
		}
	} else {
		changes, err = svc.DiffRevisions(diffOldRevision, diffNewRevision)
		if err != nil {
			return err
		}
	}

	if len(changes) == 0 {
		fmt.Println("no outcome changes")
		return nil
	}
	for _, ch := range changes {
		if ch.Old != nil {
			fmt.Printf("- %s (no longer serves %v)\n", ch.Node, ch.Old)
		} else {
			fmt.Printf("+ %s (now serves %v)\n", ch.Node, ch.New)
		}
		for _, r := range ch.Regions {
			fmt.Printf("    %s\n", r.ExprString())
		}
	}
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	svc, closeStore, err := newService(revisionID != "")
	if err != nil {
		return err
	}
	defer closeStore()

	g, err := resolveGraph(svc)
	if err != nil {
		return err
	}

	dot, err := decision.RenderDOT(g)
	if err != nil {
		return err
	}
	return writeOutput(dot)
}

func runSave(cmd *cobra.Command, args []string) error {
	if saveSample == (graphFile != "") {
		return fmt.Errorf("pass either --graph or --sample")
	}

	svc, closeStore, err := newService(true)
	if err != nil {
		return err
	}
	defer closeStore()

	g := decision.SampleGraph()
	if graphFile != "" {
		g, err = readGraphFile(graphFile)
		if err != nil {
			return err
		}
	}

	id, err := svc.Save(g, saveDescription)
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func runRevisions(cmd *cobra.Command, args []string) error {
	svc, closeStore, err := newService(true)
	if err != nil {
		return err
	}
	defer closeStore()

	revisions, err := svc.Revisions()
	if err != nil {
		return err
	}
	for _, rev := range revisions {
		fmt.Printf("%s  %s  %s\n", rev.ID, rev.CreatedAt.Format("2006-01-02 15:04:05"), rev.Description)
	}
	return nil
}

func runDemo(cmd *cobra.Command, args []string) error {
	records, err := decision.Encode(decision.SampleGraph())
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return writeOutput(string(out) + "\n")
}
