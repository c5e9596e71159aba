package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/oficina-cloud/diagnose/pkg/catalog"
)

func cmdSeed(args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	dbPath := fs.String("db", "catalog.db", "path to the catalog database")
	fs.Parse(args)

	packs := fs.Args()
	if len(packs) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: diagnose seed [--db <path>] <pack.yaml> [pack.yaml ...]")
		os.Exit(1)
	}

	store, err := catalog.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open catalog: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	total := 0
	for _, path := range packs {
		pack, err := catalog.LoadSeedPack(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[%s] ERROR: %v\n", path, err)
			os.Exit(1)
		}
		n, err := store.Seed(ctx, pack)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[%s] ERROR: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("[%s] OK, %d problems inserted\n", path, n)
		total += n
	}

	tot, active, err := store.Count(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "count: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Catalog: %d problems (%d active), %d new\n", tot, active, total)
}
