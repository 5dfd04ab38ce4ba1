package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"notely/notely/sources/psql/dao"
	"notely/notely/sources/storage"
	"notely/notely/utils/color"

	"github.com/spf13/cobra"
)

const notePrefix = "notes/"

var pruneCmd = &cobra.Command{
	Use:   "prune-orphans",
	Short: "Remove stored images no note refers to",
	Long: `List every object under notes/ in the bucket and delete those whose URL is
not recorded on any image row. Objects younger than --min-age are kept so that
uploads still being recorded are not touched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		minAge, _ := cmd.Flags().GetDuration("min-age")

		if cfg.MinIOEndpoint == "" {
			return errors.New("MINIO_ENDPOINT is not set")
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		db, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		blobs, err := storage.NewMinIOClient(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connect blob store: %w", err)
		}

		// List the bucket first: a row written after this point can only
		// reference a key we have not seen or one younger than minAge.
		keys, err := blobs.Keys(ctx, notePrefix)
		if err != nil {
			return err
		}
		referenced, err := dao.NewNoteImageDAO(db.DB).ReferencedURLs(ctx)
		if err != nil {
			return fmt.Errorf("load image urls: %w", err)
		}

		orphans := orphanKeys(keys, referenced, blobs.KeyFromURL, time.Now().Add(-minAge))
		if len(orphans) == 0 {
			fmt.Println(color.ColorInfo(fmt.Sprintf("No orphans among %d objects", len(keys))))
			return nil
		}

		failed := 0
		for _, key := range orphans {
			if dryRun {
				fmt.Println(color.ColorWarning("would remove ") + key)
				continue
			}
			if err := blobs.RemoveKey(ctx, key); err != nil {
				failed++
				fmt.Println(color.ColorError("failed ") + key + ": " + err.Error())
				continue
			}
			fmt.Println(color.ColorInfo("removed ") + key)
		}

		if dryRun {
			fmt.Println(color.ColorWarning(fmt.Sprintf("%d of %d objects are orphaned (dry run)", len(orphans), len(keys))))
			return nil
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d removals failed", failed, len(orphans))
		}
		fmt.Println(color.ColorSuccess(fmt.Sprintf("Removed %d orphaned objects", len(orphans))))
		return nil
	},
}

func init() {
	pruneCmd.Flags().Bool("dry-run", false, "only list what would be removed")
	pruneCmd.Flags().Duration("min-age", time.Hour, "keep objects uploaded more recently than this")
	rootCmd.AddCommand(pruneCmd)
}

// orphanKeys returns the keys no referenced URL resolves to, skipping keys
// stamped after cutoff. Keys without a parseable stamp are treated as old.
func orphanKeys(keys []string, referenced map[string]struct{}, keyOf func(string) (string, bool), cutoff time.Time) []string {
	inUse := make(map[string]struct{}, len(referenced))
	for u := range referenced {
		if key, ok := keyOf(u); ok {
			inUse[key] = struct{}{}
		}
	}

	var orphans []string
	for _, key := range keys {
		if _, ok := inUse[key]; ok {
			continue
		}
		if stamp, ok := uploadedAt(key); ok && stamp.After(cutoff) {
			continue
		}
		orphans = append(orphans, key)
	}
	sort.Strings(orphans)
	return orphans
}

// uploadedAt reads the millisecond stamp from a notes/<millis>-<suffix> key.
func uploadedAt(key string) (time.Time, bool) {
	name, ok := strings.CutPrefix(key, notePrefix)
	if !ok {
		return time.Time{}, false
	}
	millis, _, ok := strings.Cut(name, "-")
	if !ok {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(millis, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
