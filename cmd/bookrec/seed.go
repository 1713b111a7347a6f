package main

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/store"
)

// seedFile 是种子数据文件格式：
//
//	books:
//	  - id: 1
//	    owner_id: 10
//	    title: The Hobbit
//	    author: J.R.R. Tolkien
//	    category: Fantasy
//	    condition: good
//	    available: true
//	interactions:
//	  - user_id: 20
//	    book_id: 1
//	    interaction_type: like
type seedFile struct {
	Books        []core.Book        `yaml:"books"`
	Interactions []core.Interaction `yaml:"interactions"`
}

type seedCounts struct {
	books        int
	interactions int
}

func loadSeed(ctx context.Context, repo *store.Repository, path string) (seedCounts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return seedCounts{}, fmt.Errorf("read seed file: %w", err)
	}
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return seedCounts{}, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return applySeed(ctx, repo, sf)
}

func applySeed(ctx context.Context, repo *store.Repository, sf seedFile) (seedCounts, error) {
	var n seedCounts
	for i := range sf.Books {
		if err := repo.PutBook(ctx, &sf.Books[i]); err != nil {
			return n, fmt.Errorf("seed book %q: %w", sf.Books[i].Title, err)
		}
		n.books++
	}
	for i := range sf.Interactions {
		in := &sf.Interactions[i]
		if _, err := repo.BookByID(ctx, in.BookID); err != nil {
			return n, fmt.Errorf("seed interaction on book %d: %w", in.BookID, err)
		}
		if err := repo.AddInteraction(ctx, in); err != nil {
			return n, fmt.Errorf("seed interaction on book %d: %w", in.BookID, err)
		}
		n.interactions++
	}
	return n, nil
}
