package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/hetulpatel/arbmatch/internal/chroma"
	"github.com/hetulpatel/arbmatch/internal/config"
)

func main() {
	peekLimit := flag.Int("peek", 2, "documents to print per collection")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	chromaURL := cfg.ChromaURL
	if chromaURL == "" {
		chromaURL = "http://localhost:8000"
	}

	client := chroma.NewClient(chromaURL, cfg.HTTPTimeout)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collections, err := client.ListCollections(ctx)
	if err != nil {
		log.Fatalf("Error listing collections: %v\n(Make sure Chroma is running at %s)", err, chromaURL)
	}
	if len(collections) == 0 {
		fmt.Println("No collections found.")
		return
	}

	fmt.Printf("Found %d collections:\n", len(collections))
	for _, col := range collections {
		count, err := client.Count(ctx, col.ID)
		if err != nil {
			fmt.Printf("- %s (ID: %s): Error getting count: %v\n", col.Name, col.ID, err)
			continue
		}
		marker := ""
		if col.Name == cfg.ChromaCollection {
			marker = " [mirror]"
		}
		fmt.Printf("- %s (ID: %s): %d items%s\n", col.Name, col.ID, count, marker)
		if count == 0 || *peekLimit <= 0 {
			continue
		}

		peek, err := client.Get(ctx, col.ID, chroma.GetRequest{
			Limit:   *peekLimit,
			Include: []string{"documents", "metadatas"},
		})
		if err != nil {
			fmt.Printf("    Error peeking: %v\n", err)
			continue
		}
		for i := range peek.IDs {
			fmt.Printf("    ID: %s\n", peek.IDs[i])
			if i < len(peek.Documents) {
				doc := peek.Documents[i]
				if len(doc) > 100 {
					doc = doc[:100] + "..."
				}
				fmt.Printf("    Doc: %s\n", doc)
			}
			if i < len(peek.Metadatas) {
				meta, _ := json.Marshal(peek.Metadatas[i])
				fmt.Printf("    Meta: %s\n", string(meta))
			}
			fmt.Println()
		}
	}
}
