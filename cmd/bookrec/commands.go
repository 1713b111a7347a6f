package main

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/recommend"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func newSeedCmd(a *app, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the --seed file into the configured store",
		Long: `Loads books and interactions from the --seed file. Only useful with a
persistent backend (store.backend: redis); with the memory store every other
command can simply take --seed directly.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.seed == "" {
				return fmt.Errorf("--seed is required")
			}
			books, err := a.repo.AvailableBooks(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"store":           a.kv.Name(),
				"available_books": len(books),
			})
		},
	}
}

func newRecommendCmd(a *app) *cobra.Command {
	var (
		userID int64
		count  int
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Generate recommendations for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := recommend.ValidateCount(count); err != nil {
				return err
			}
			recs, err := a.engine.GenerateRecommendations(cmd.Context(), userID, count)
			if err != nil {
				return err
			}
			for i := range recs {
				recs[i].Score = recs[i].RoundedScore()
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"user_id":         userID,
				"recommendations": recs,
				"count":           len(recs),
			})
		},
	}
	userFlag(cmd, &userID)
	cmd.Flags().IntVarP(&count, "count", "n", 10, "number of recommendations (1-50)")
	return cmd
}

func newSimilarCmd(a *app) *cobra.Command {
	var (
		bookID      int64
		requesterID int64
		count       int
	)
	cmd := &cobra.Command{
		Use:   "similar",
		Short: "List books similar to a reference book",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := recommend.ValidateCount(count); err != nil {
				return err
			}
			res, err := a.engine.SimilarBooksFor(cmd.Context(), requesterID, bookID, count)
			if err != nil {
				return err
			}
			for i := range res.Items {
				res.Items[i].Score = res.Items[i].RoundedScore()
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().Int64VarP(&bookID, "book", "b", 0, "reference book id")
	_ = cmd.MarkFlagRequired("book")
	cmd.Flags().Int64VarP(&requesterID, "user", "u", 0, "requesting user; their own books are excluded")
	cmd.Flags().IntVarP(&count, "count", "n", 5, "number of similar books (1-50)")
	return cmd
}

func newProfileCmd(a *app) *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the preference profile derived from a user's history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.engine.BuildUserProfile(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
	userFlag(cmd, &userID)
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show interaction statistics for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := a.engine.UserStats(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
	userFlag(cmd, &userID)
	return cmd
}

func newPopularCmd(a *app) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "popular",
		Short: "List the most interacted-with available books",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := recommend.ValidateCount(count); err != nil {
				return err
			}
			books, err := a.engine.PopularBooks(cmd.Context(), count)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), books)
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 10, "number of books (1-50)")
	return cmd
}

func newInteractCmd(a *app) *cobra.Command {
	var (
		userID int64
		bookID int64
		kind   string
	)
	cmd := &cobra.Command{
		Use:   "interact",
		Short: "Record a user interaction (view, like, request, search)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, recorded, err := a.repo.RecordInteraction(cmd.Context(), userID, bookID, core.InteractionKind(kind))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"interaction": in,
				"recorded":    recorded,
			})
		},
	}
	userFlag(cmd, &userID)
	cmd.Flags().Int64VarP(&bookID, "book", "b", 0, "book id")
	_ = cmd.MarkFlagRequired("book")
	cmd.Flags().StringVarP(&kind, "kind", "k", string(core.InteractionView), "interaction type")
	return cmd
}

func newRefreshCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Rebuild the similarity model and report its size",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.engine.Refresh(cmd.Context()); err != nil {
				return err
			}
			snap := a.engine.Snapshot()
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"corpus_size": snap.Len(),
				"vocabulary":  snap.Space.Dim(),
				"built_at":    snap.BuiltAt,
			})
		},
	}
}
