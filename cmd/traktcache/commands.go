package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/amaumene/traktcache/internal/controllers"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <trakt-id>...",
	Short: "Print the metadata documents for movies, resolving them as needed",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}

		a, err := newApp(os.Stderr)
		if err != nil {
			return err
		}
		defer a.Close()

		docs, err := a.query.GetMovieList(cmd.Context(), ids)
		if err != nil {
			return err
		}
		return printJSON(docs)
	},
}

var markCmd = &cobra.Command{
	Use:       "mark <watched|unwatched|collected|uncollected> <trakt-id>",
	Short:     "Set or clear a movie flag",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"watched", "unwatched", "collected", "uncollected"},
	RunE: func(cmd *cobra.Command, args []string) error {
		marks := map[string]func(*controllers.FlagController, context.Context, int64) error{
			"watched":     (*controllers.FlagController).MarkWatched,
			"unwatched":   (*controllers.FlagController).MarkUnwatched,
			"collected":   (*controllers.FlagController).MarkCollected,
			"uncollected": (*controllers.FlagController).MarkUncollected,
		}
		mark, ok := marks[args[0]]
		if !ok {
			return fmt.Errorf("unknown state %q", args[0])
		}

		ids, err := parseIDs(args[1:])
		if err != nil {
			return err
		}

		a, err := newApp(os.Stderr)
		if err != nil {
			return err
		}
		defer a.Close()

		// Register the movie first so the flag has a row to land on
		_, err = a.refresh.GetMovie(cmd.Context(), ids[0], controllers.RefreshOptions{})
		if err != nil && !errors.Is(err, controllers.ErrUnavailable) {
			return err
		}
		return mark(a.flags, cmd.Context(), ids[0])
	},
}

var listCmd = &cobra.Command{
	Use:       "list <all|watched|collected|unresolved>",
	Short:     "Print the IDs of stored movies",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"all", "watched", "collected", "unresolved"},
	RunE: func(cmd *cobra.Command, args []string) error {
		reads := map[string]func(*controllers.FlagController, context.Context) ([]int64, error){
			"all":        (*controllers.FlagController).AllMovieIDs,
			"watched":    (*controllers.FlagController).WatchedMovieIDs,
			"collected":  (*controllers.FlagController).CollectedMovieIDs,
			"unresolved": (*controllers.FlagController).UnresolvedMovieIDs,
		}
		read, ok := reads[args[0]]
		if !ok {
			return fmt.Errorf("unknown list %q", args[0])
		}

		a, err := newApp(os.Stderr)
		if err != nil {
			return err
		}
		defer a.Close()

		ids, err := read(a.flags, cmd.Context())
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid trakt id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
