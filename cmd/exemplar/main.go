// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/exemplar"
	"github.com/poiesic/exemplar/ai"
	"github.com/poiesic/exemplar/ai/openai"
	"github.com/poiesic/exemplar/core"
	"github.com/poiesic/exemplar/ingestion"
	"github.com/poiesic/exemplar/reembed"
	"github.com/poiesic/exemplar/search"
	"github.com/poiesic/exemplar/selector"
	"github.com/poiesic/exemplar/storage/badger"
	"github.com/poiesic/exemplar/styleembed"
	"github.com/urfave/cli/v2"
)

// indexDrainTimeout bounds the wait for queued vector indexing when an
// ingest run finishes.
const indexDrainTimeout = 5 * time.Minute

func main() {
	app := &cli.App{
		Name:  "exemplar",
		Usage: "Writing example retrieval for email reply drafting",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before:   setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Ingest emails from a JSONL file into the candidate store",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "JSONL input file (defaults to stdin)",
					},
					&cli.StringFlag{
						Name:    "user",
						Aliases: []string{"u"},
						Usage:   "User id applied to records without one",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of emails per ingestion batch",
						Value: 32,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "all-minilm",
					},
					&cli.StringFlag{
						Name:  "detector-host",
						Usage: "Relationship detector host URL (defaults to embedding-host)",
					},
					&cli.StringFlag{
						Name:  "detector-model",
						Usage: "Relationship detector model name",
						Value: "qwen2.5:3b",
					},
					&cli.StringFlag{
						Name:  "style-model",
						Usage: "Path to the ONNX style embedding model",
					},
					&cli.StringFlag{
						Name:  "style-vocab",
						Usage: "Path to the tokenizer vocab.json file",
					},
					&cli.StringFlag{
						Name:  "style-merges",
						Usage: "Path to the tokenizer merges.txt file",
					},
					&cli.StringFlag{
						Name:  "onnx-library",
						Usage: "Path to the ONNX Runtime shared library",
					},
				},
			},
			{
				Name:   "search",
				Usage:  "Search a user's stored mail for text similar to a query",
				Action: searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User id whose mail to search",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Query text",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum matches to return (0 uses the engine default)",
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum combined score (negative disables the cutoff)",
					},
					&cli.StringFlag{
						Name:  "recipient",
						Usage: "Only match mail sent to this address",
					},
					&cli.StringFlag{
						Name:  "relationship",
						Usage: "Only match mail in this relationship category",
					},
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Only match mail of this kind (sent, received)",
					},
					&cli.StringFlag{
						Name:  "since",
						Usage: "Only match mail sent at or after this RFC 3339 time",
					},
					&cli.StringFlag{
						Name:  "until",
						Usage: "Only match mail sent at or before this RFC 3339 time",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "all-minilm",
					},
					&cli.StringFlag{
						Name:  "detector-host",
						Usage: "Relationship detector host URL (defaults to embedding-host)",
					},
					&cli.StringFlag{
						Name:  "detector-model",
						Usage: "Relationship detector model name",
						Value: "qwen2.5:3b",
					},
					&cli.StringFlag{
						Name:  "style-model",
						Usage: "Path to the ONNX style embedding model",
					},
					&cli.StringFlag{
						Name:  "style-vocab",
						Usage: "Path to the tokenizer vocab.json file",
					},
					&cli.StringFlag{
						Name:  "style-merges",
						Usage: "Path to the tokenizer merges.txt file",
					},
					&cli.StringFlag{
						Name:  "onnx-library",
						Usage: "Path to the ONNX Runtime shared library",
					},
				},
			},
			{
				Name:   "select",
				Usage:  "Select writing examples for drafting a reply",
				Action: selectCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User id whose mail to draw examples from",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "recipient",
						Aliases:  []string{"r"},
						Usage:    "Address the reply goes to",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "message",
						Aliases:  []string{"m"},
						Usage:    "Incoming message being replied to",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "count",
						Aliases: []string{"n"},
						Usage:   "Number of examples to select (0 uses the configured default)",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "all-minilm",
					},
					&cli.StringFlag{
						Name:  "detector-host",
						Usage: "Relationship detector host URL (defaults to embedding-host)",
					},
					&cli.StringFlag{
						Name:  "detector-model",
						Usage: "Relationship detector model name",
						Value: "qwen2.5:3b",
					},
					&cli.StringFlag{
						Name:  "style-model",
						Usage: "Path to the ONNX style embedding model",
					},
					&cli.StringFlag{
						Name:  "style-vocab",
						Usage: "Path to the tokenizer vocab.json file",
					},
					&cli.StringFlag{
						Name:  "style-merges",
						Usage: "Path to the tokenizer merges.txt file",
					},
					&cli.StringFlag{
						Name:  "onnx-library",
						Usage: "Path to the ONNX Runtime shared library",
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all stored candidates with new embeddings",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of candidates to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N candidates",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.StringFlag{
						Name:  "style-model",
						Usage: "Path to the ONNX style embedding model",
					},
					&cli.StringFlag{
						Name:  "style-vocab",
						Usage: "Path to the tokenizer vocab.json file",
					},
					&cli.StringFlag{
						Name:  "style-merges",
						Usage: "Path to the tokenizer merges.txt file",
					},
					&cli.StringFlag{
						Name:  "onnx-library",
						Usage: "Path to the ONNX Runtime shared library",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	var input io.Reader = os.Stdin
	source := "stdin"
	if path := c.String("file"); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()
		input = f
		source = path
	}

	emails, err := readEmails(input, c.String("user"))
	if err != nil {
		return fmt.Errorf("reading %s: %w", source, err)
	}
	if len(emails) == 0 {
		return fmt.Errorf("no emails found in %s", source)
	}

	batchSize := c.Int("batch-size")
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}

	system, err := openSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	pipeline, err := system.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}

	stored := 0
	for offset := 0; offset < len(emails); offset += batchSize {
		end := offset + batchSize
		if end > len(emails) {
			end = len(emails)
		}
		added, err := pipeline.Ingest(ctx, emails[offset:end]...)
		if err != nil {
			pipeline.Release()
			return fmt.Errorf("ingesting batch at offset %d: %w", offset, err)
		}
		stored += len(added)
	}

	// Let queued vector indexing drain before the store closes.
	if err := pipeline.ReleaseTimeout(indexDrainTimeout); err != nil {
		return fmt.Errorf("waiting for indexing to finish: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Ingested %d emails from %s\n", stored, source)
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	filter, err := buildFilter(c)
	if err != nil {
		return err
	}

	system, err := openSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	opts := search.SearchOptions{
		Limit:          c.Int("limit"),
		ScoreThreshold: c.Float64("threshold"),
	}
	result, err := system.Engine().Search(ctx, c.String("user"), c.String("query"), filter, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(result.Matches) == 0 {
		fmt.Println("No matches.")
	} else {
		printMatches(result.Matches)
	}
	fmt.Fprintf(os.Stderr, "\nConsidered %d candidates, matched %d in %v\n",
		result.Stats.CandidatesConsidered, result.Stats.Matches, result.Stats.Took)

	return nil
}

func selectCommand(c *cli.Context) error {
	ctx := context.Background()

	system, err := openSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	result, err := system.Selector().SelectExamples(ctx, selector.Request{
		UserID:         c.String("user"),
		MessageText:    c.String("message"),
		RecipientEmail: c.String("recipient"),
		DesiredCount:   c.Int("count"),
	})
	if err != nil {
		return fmt.Errorf("example selection failed: %w", err)
	}

	fmt.Printf("Relationship: %s\n", result.Relationship)
	if len(result.Examples) == 0 {
		fmt.Println("No examples.")
	} else {
		fmt.Println()
		printMatches(result.Examples)
	}

	stats := result.Stats
	fmt.Fprintf(os.Stderr, "\n%d direct and %d same-relationship matches from %d candidates (mean score %.3f, mean age %.1f days)\n",
		stats.DirectMatches, stats.RelationshipMatches, stats.TotalCandidates,
		stats.MeanCombinedScore, stats.MeanAgeDays)

	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	// Validate flags
	dbPath := c.String("db")
	if dbPath == "" {
		return fmt.Errorf("database path is required")
	}

	// Open database
	backend, err := badger.OpenBackend(dbPath, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	store := badger.NewCandidateStore(backend)
	defer store.Close()

	// Create AI config
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)

	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	// Create embedder
	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	// Optional style service for refreshing style vectors
	var style reembed.StyleEmbedder
	if styleConfig := styleConfigFromFlags(c); styleConfig != nil {
		service, err := styleembed.NewService(styleConfig)
		if err != nil {
			return fmt.Errorf("failed to create style embedder: %w", err)
		}
		defer service.Close()
		style = service
	}

	// Create reembedding config
	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	// Create reembedder
	reembedder, err := reembed.NewReembedder(store, embedder, style, reembedConfig, os.Stderr)
	if err != nil {
		return err
	}

	// Run reembedding
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	if c.String("style-model") != "" {
		fmt.Fprintf(os.Stderr, "Style model: %s\n", c.String("style-model"))
	}
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	return nil
}

// openSystem assembles the retrieval system from command flags. The style
// service is only constructed when a style model path is given.
func openSystem(c *cli.Context) (*exemplar.System, error) {
	opts := []exemplar.SystemOption{exemplar.WithAIConfig(aiConfigFromFlags(c))}
	if styleConfig := styleConfigFromFlags(c); styleConfig != nil {
		opts = append(opts, exemplar.WithStyleConfig(styleConfig))
	}

	system, err := exemplar.Open(c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return system, nil
}

func aiConfigFromFlags(c *cli.Context) *ai.Config {
	// Detector host defaults to the embedding host
	detectorHost := c.String("detector-host")
	if detectorHost == "" {
		detectorHost = c.String("embedding-host")
	}

	return ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithDetectorHost(detectorHost),
		ai.WithDetectorModel(c.String("detector-model")),
	)
}

func styleConfigFromFlags(c *cli.Context) *styleembed.Config {
	if c.String("style-model") == "" {
		return nil
	}
	return styleembed.NewConfig(
		styleembed.WithModelPath(c.String("style-model")),
		styleembed.WithVocabPath(c.String("style-vocab")),
		styleembed.WithMergesPath(c.String("style-merges")),
		styleembed.WithLibraryPath(c.String("onnx-library")),
	)
}

// emailRecord is one line of JSONL ingest input.
type emailRecord struct {
	UserID    string `json:"user_id"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Text      string `json:"text"`
	SentAt    string `json:"sent_at"`
	Kind      string `json:"kind"`
}

// readEmails parses JSONL ingest input. Records without a user_id fall back
// to defaultUser; sent_at is RFC 3339 and defaults to the ingestion time.
func readEmails(r io.Reader, defaultUser string) ([]ingestion.EmailInput, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var emails []ingestion.EmailInput
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var record emailRecord
		if err := json.Unmarshal([]byte(text), &record); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		userID := record.UserID
		if userID == "" {
			userID = defaultUser
		}
		if userID == "" {
			return nil, fmt.Errorf("line %d: user_id required (or pass --user)", line)
		}

		kind, err := parseKind(record.Kind)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		var sentAt time.Time
		if record.SentAt != "" {
			sentAt, err = time.Parse(time.RFC3339, record.SentAt)
			if err != nil {
				return nil, fmt.Errorf("line %d: parsing sent_at: %w", line, err)
			}
		}

		emails = append(emails, ingestion.EmailInput{
			UserID:         userID,
			RecipientEmail: record.Recipient,
			Subject:        record.Subject,
			Text:           record.Text,
			SentAt:         sentAt,
			Kind:           kind,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return emails, nil
}

// parseKind maps a JSONL or flag kind value to a CandidateKind. The empty
// string maps to the zero kind so downstream defaults apply.
func parseKind(s string) (core.CandidateKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return 0, nil
	case "sent":
		return core.CandidateKindSent, nil
	case "received":
		return core.CandidateKindReceived, nil
	default:
		return 0, fmt.Errorf("invalid kind %q: must be sent or received", s)
	}
}

// buildFilter assembles a search filter from the search command's flags.
func buildFilter(c *cli.Context) (core.SearchFilter, error) {
	var filter core.SearchFilter

	if raw := c.String("relationship"); raw != "" {
		relationship := core.ParseRelationship(raw)
		if relationship == core.RelationshipUnknown && !strings.EqualFold(strings.TrimSpace(raw), string(core.RelationshipUnknown)) {
			return filter, fmt.Errorf("unknown relationship %q", raw)
		}
		filter.Relationship = relationship
	}

	filter.RecipientEmail = c.String("recipient")

	kind, err := parseKind(c.String("kind"))
	if err != nil {
		return filter, err
	}
	filter.Kind = kind

	if raw := c.String("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fmt.Errorf("parsing since: %w", err)
		}
		filter.Since = since
	}
	if raw := c.String("until"); raw != "" {
		until, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fmt.Errorf("parsing until: %w", err)
		}
		filter.Until = until
	}

	return filter, nil
}

func printMatches(matches []core.ScoredMatch) {
	for i, match := range matches {
		candidate := match.Candidate
		fmt.Printf("%2d. score=%.3f sent=%s to=%s relationship=%s\n",
			i+1, match.TemporalScore, candidate.SentAt.Format("2006-01-02"),
			candidate.RecipientEmail, candidate.Relationship)
		if candidate.Subject != "" {
			fmt.Printf("    subject: %s\n", candidate.Subject)
		}
		fmt.Printf("    %s\n", snippet(candidate.Contents, 120))
	}
}

// snippet collapses whitespace and truncates to max runes.
func snippet(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
