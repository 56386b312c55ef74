package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/hetulpatel/arbmatch/internal/config"
	kafkautil "github.com/hetulpatel/arbmatch/internal/kafka"
	"github.com/hetulpatel/arbmatch/internal/queue"
)

func main() {
	group := flag.String("group", "", "consumer group (empty reads the topic from the start without committing)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	brokers := kafkautil.ParseBrokers(cfg.KafkaBrokers)
	if len(brokers) == 0 {
		brokers = []string{kafkautil.DefaultBroker}
	}
	if err := kafkautil.WaitForBroker(ctx, brokers); err != nil {
		log.Fatalf("kafka unavailable: %v", err)
	}

	reader := kafkautil.NewReader(brokers, cfg.MatchesKafkaTopic, *group)
	defer reader.Close()
	log.Printf("[match-tail] reading %s from %v", cfg.MatchesKafkaTopic, brokers)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Fatalf("read: %v", err)
		}
		rec, err := queue.DecodeMatch(msg)
		if err != nil {
			log.Printf("[match-tail] skip: %v", err)
			continue
		}
		fmt.Printf("%s [%s] sim=%.4f  polymarket %s (%s)  <->  kalshi %s (%s)\n",
			rec.ObservedAt.Format("15:04:05"), rec.Tier, rec.Similarity,
			rec.Polymarket.ID, rec.Polymarket.Title, rec.Kalshi.ID, rec.Kalshi.Title)
	}
}
