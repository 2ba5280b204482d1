package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"multimind/internal/config"
	"multimind/internal/engine"
	"multimind/internal/index"
	"multimind/internal/llm"
	"multimind/internal/logging"
	"multimind/internal/persona"
	"multimind/internal/spacemap"
	"multimind/internal/types"
)

var (
	// Global flags
	configPath string
	workspace  string
	verbose    bool

	// ask flags
	expertise  string
	userRole   string
	industry   string
	region     string
	explain    bool
	jsonOutput bool

	// index flags
	indexDomain string
	indexID     string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "multimind",
	Short: "multimind - Multi-persona explainable reasoning engine",
	Long: `multimind analyzes queries through multiple domain expert personas
(legal, financial, compliance) running in parallel, combines their findings
into a weighted consensus, and records an explanation tree for every step.

Responses are shaped for the requesting audience: beginner, intermediate,
or expert.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		ws := workspace
		if ws == "" {
			ws = cfg.Logging.Workspace
		}
		if ws == "" || ws == "." {
			ws, _ = os.Getwd()
		}
		return logging.Initialize(ws, verbose || cfg.Logging.DebugMode, cfg.Logging.Level)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
	},
}

// askCmd processes a single query through the full pipeline
var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Analyze a query through all relevant expert personas",
	Long: `Runs the full pipeline: persona scoring, parallel analysis,
weighted consensus, semantic-space mapping, and audience-shaped formatting.

Example:
  multimind ask "What are the GDPR implications of storing EU user data in the US?" --expertise expert --explain`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

// personasCmd shows persona relevance scores for a query without dispatching
var personasCmd = &cobra.Command{
	Use:   "personas [query]",
	Short: "Show persona relevance scores for a query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPersonas,
}

// indexCmd manages the evidence store
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Evidence store commands",
}

var indexAddCmd = &cobra.Command{
	Use:   "add [content]",
	Short: "Add a document to the evidence store",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIndexAdd,
}

var indexSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the evidence store",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIndexSearch,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "multimind.yaml", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	askCmd.Flags().StringVarP(&expertise, "expertise", "e", "intermediate", "Audience expertise: beginner, intermediate, expert")
	askCmd.Flags().StringVar(&userRole, "role", "", "Requester role (feeds persona scoring)")
	askCmd.Flags().StringVar(&industry, "industry", "", "Industry context")
	askCmd.Flags().StringVar(&region, "region", "", "Jurisdiction or region context")
	askCmd.Flags().BoolVar(&explain, "explain", false, "Print the explanation tree")
	askCmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the response as JSON")

	indexAddCmd.Flags().StringVar(&indexDomain, "domain", "", "Persona domain this document supports (legal, financial, compliance)")
	indexAddCmd.Flags().StringVar(&indexID, "id", "", "Document ID (generated when empty)")
	indexSearchCmd.Flags().StringVar(&indexDomain, "domain", "", "Restrict search to one persona domain")

	indexCmd.AddCommand(indexAddCmd, indexSearchCmd)
	rootCmd.AddCommand(askCmd, personasCmd, indexCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	rootCmd.SetContext(ctx)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildEngine assembles the full pipeline from configuration. Collaborators
// that need an API key degrade to nil when none is configured, so offline
// commands still work.
func buildEngine(cfg config.Config) (*engine.Engine, *index.Store, error) {
	var embedder types.Embedder
	if cfg.Embedding.APIKey != "" {
		e, err := llm.NewGenAIEmbedder(cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.TaskType)
		if err != nil {
			return nil, nil, err
		}
		embedder = e
	}

	store, err := index.Open(cfg.Index.DatabasePath, embedder)
	if err != nil {
		return nil, nil, err
	}

	var client types.LLMClient
	if cfg.LLM.APIKey != "" {
		c, err := llm.NewGenAIClient(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout.Std())
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		client = c
	} else {
		store.Close()
		return nil, nil, types.NewInputError("llm.api_key",
			"no API key configured (set llm.api_key or MULTIMIND_API_KEY)")
	}

	defs := cfg.PersonaDefinitions()
	opts := persona.Options{
		Timeout:       cfg.Engine.PersonaTimeout.Std(),
		MaxRetries:    cfg.Engine.MaxRetries,
		RetryBackoff:  cfg.Engine.RetryBackoff.Std(),
		EvidenceLimit: cfg.Engine.EvidenceLimit,
	}
	analyzers := persona.BuildAnalyzers(defs, client, store, opts)

	eng := engine.New(cfg.Engine, defs, analyzers, embedder, spacemap.NewIndex())
	return eng, store, nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	eng, store, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	uctx := types.UserContext{
		ExpertiseLevel: types.Expertise(expertise),
		Role:           userRole,
		Industry:       industry,
		Region:         region,
		Timestamp:      time.Now(),
	}

	result, err := eng.ProcessQuery(cmd.Context(), args[0], uctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Response)
	}

	fmt.Printf("Query %s (confidence %.2f)\n\n", result.QueryID, result.Response.Confidence)
	fmt.Println(result.Response.Analysis)
	if len(result.Response.Recommendations) > 0 {
		fmt.Println("\nRecommendations:")
		for _, rec := range result.Response.Recommendations {
			fmt.Printf("  - [%s] %s\n", rec.Persona, rec.Content)
		}
	}
	if explain {
		fmt.Println("\nReasoning:")
		fmt.Print(engine.RenderExplanation(result.Explanation))
	}
	return nil
}

func runPersonas(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	registry := persona.NewRegistry(cfg.PersonaDefinitions())
	ranked, err := registry.RankPersonas(args[0], map[string]string{})
	if err != nil {
		return err
	}

	for _, sp := range ranked {
		marker := " "
		if sp.Score > cfg.Engine.ActivationThreshold {
			marker = "*"
		}
		fmt.Printf("%s %-12s %.3f\n", marker, sp.Name, sp.Score)
	}
	return nil
}

func runIndexAdd(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	var embedder types.Embedder
	if cfg.Embedding.APIKey != "" {
		if e, eerr := llm.NewGenAIEmbedder(cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.TaskType); eerr == nil {
			embedder = e
		}
	}

	store, err := index.Open(cfg.Index.DatabasePath, embedder)
	if err != nil {
		return err
	}
	defer store.Close()

	id := indexID
	if id == "" {
		id = "doc-" + uuid.NewString()
	}
	doc := index.Document{ID: id, Content: args[0], Domain: indexDomain}
	if err := store.Add(cmd.Context(), doc); err != nil {
		return err
	}
	fmt.Printf("Indexed %s\n", id)
	return nil
}

func runIndexSearch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, err := index.Open(cfg.Index.DatabasePath, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	filters := map[string]string{}
	if indexDomain != "" {
		filters["domain"] = indexDomain
	}
	hits, err := store.Search(cmd.Context(), args[0], filters, 10)
	if err != nil {
		return err
	}
	for _, hit := range hits {
		fmt.Printf("%.3f  %-20s %s\n", hit.Score, hit.ID, hit.Content)
	}
	return nil
}
