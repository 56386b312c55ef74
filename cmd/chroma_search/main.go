package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/hetulpatel/arbmatch/internal/chroma"
	"github.com/hetulpatel/arbmatch/internal/collectors"
	"github.com/hetulpatel/arbmatch/internal/config"
	"github.com/hetulpatel/arbmatch/internal/embed"
)

func main() {
	queryText := flag.String("text", "", "The text to search for")
	limit := flag.Int("k", 5, "Number of top results to return")
	venue := flag.String("venue", "", "restrict results to kalshi or polymarket")
	flag.Parse()

	if *queryText == "" {
		log.Fatal("Please provide search text using -text")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	var filter collectors.Venue
	if *venue != "" {
		if filter, err = collectors.ParseVenue(*venue); err != nil {
			log.Fatal(err)
		}
	}

	embedClient, err := embed.New(embed.Config{
		APIKey:  cfg.NebiusAPIKey,
		BaseURL: cfg.NebiusBaseURL,
		Model:   cfg.EmbedModel,
	})
	if err != nil {
		log.Fatalf("Failed to create embed client: %v", err)
	}
	chromaURL := cfg.ChromaURL
	if chromaURL == "" {
		chromaURL = "http://localhost:8000"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mirror, err := chroma.NewMirror(ctx, chroma.NewClient(chromaURL, cfg.HTTPTimeout), cfg.ChromaCollection)
	if err != nil {
		log.Fatalf("Failed to open collection: %v", err)
	}

	// Same normalization the collectors apply to titles.
	text := collectors.NormalizeTitle(*queryText)
	fmt.Printf("Embedding query: %q...\n", text)
	embedding, err := embedClient.Embed(ctx, text)
	if err != nil {
		log.Fatalf("Failed to embed query: %v", err)
	}

	hits, err := mirror.Search(ctx, embedding, filter, *limit)
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	if len(hits) == 0 {
		fmt.Println("No matches found.")
		return
	}
	for i, h := range hits {
		fmt.Printf("--- Match #%d ---\n", i+1)
		fmt.Printf("ID:         %s\n", h.ID)
		fmt.Printf("Venue:      %s\n", h.Venue)
		fmt.Printf("Title:      %s\n", h.Title)
		fmt.Printf("Similarity: %.4f\n", h.Similarity)
		fmt.Printf("Descriptor: %s\n\n", truncate(h.Descriptor, 240))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
