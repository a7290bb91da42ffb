package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cookassist/backend/internal/corpus"
	appLogger "github.com/cookassist/backend/pkg/logger"
	"github.com/cookassist/backend/pkg/utils"
)

var (
	outPath           string
	sourceType        string
	sentencesPerChunk int
	overlapSentences  int
)

func main() {
	root := &cobra.Command{
		Use:   "ingest [files or globs...]",
		Short: "Prepare a corpus JSON file from plain-text and HTML recipe files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  run,
	}

	root.Flags().StringVarP(&outPath, "out", "o", "corpus.json", "output corpus file")
	root.Flags().StringVar(&sourceType, "source-type", "recipe", "sourceType recorded on ingested documents")
	root.Flags().IntVar(&sentencesPerChunk, "sentences-per-chunk", 5, "sentences per passage")
	root.Flags().IntVar(&overlapSentences, "overlap-sentences", 1, "sentence overlap between passages")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if err := appLogger.Init("info", "console", "stderr"); err != nil {
		return err
	}
	defer appLogger.Sync()

	var paths []string
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil || len(matches) == 0 {
			matches = []string{arg}
		}
		paths = append(paths, matches...)
	}

	chunker := corpus.NewChunker(sentencesPerChunk, overlapSentences)
	var documents []corpus.Document

	for _, path := range paths {
		doc, err := readDocument(path)
		if err != nil {
			appLogger.Warn("Skipping unreadable file", zap.String("path", path), zap.Error(err))
			continue
		}
		if doc.Text == "" {
			appLogger.Warn("Skipping file with no extractable text", zap.String("path", path))
			continue
		}

		chunks, err := chunker.Chunk(doc)
		if err != nil {
			appLogger.Warn("Skipping unchunkable file", zap.String("path", path), zap.Error(err))
			continue
		}
		documents = append(documents, chunks...)
		appLogger.Info("Ingested file",
			zap.String("path", path),
			zap.Int("passages", len(chunks)),
		)
	}

	if len(documents) == 0 {
		return fmt.Errorf("no documents ingested from %d file(s)", len(paths))
	}

	data, err := json.MarshalIndent(documents, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write corpus file: %w", err)
	}

	appLogger.Info("Corpus written",
		zap.String("path", outPath),
		zap.Int("documents", len(documents)),
	)
	return nil
}

// readDocument loads one source file. HTML gets stripped to readable text;
// anything else is treated as plain text.
func readDocument(path string) (corpus.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return corpus.Document{}, err
	}

	text := string(data)
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".html" || ext == ".htm" {
		title, body := corpus.ExtractHTML(text)
		if title != "" {
			text = title + ". " + body
		} else {
			text = body
		}
	}
	text = strings.TrimSpace(text)

	return corpus.Document{
		ID:         utils.HashString(path),
		Text:       text,
		SourceType: sourceType,
	}, nil
}
