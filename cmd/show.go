package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/engsaleh/quran-pipeline/internal/domain"
)

// Reference selects a single verse or a whole surah.
type Reference struct {
	Surah int
	Verse int // zero selects the whole surah
}

// ParseReference accepts "2:255" for a verse or "2" for a surah.
func ParseReference(s string) (Reference, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ":") {
		key, err := domain.ParseVerseKey(s)
		if err != nil {
			return Reference{}, err
		}
		return Reference{Surah: key.Surah, Verse: key.Verse}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > domain.TotalSurahs {
		return Reference{}, fmt.Errorf("invalid reference %q: want a surah number 1-%d or surah:verse", s, domain.TotalSurahs)
	}
	return Reference{Surah: n}, nil
}

// ShowResult is the data selected by a reference.
type ShowResult struct {
	Surah  domain.Surah   `json:"surah"`
	Verses []domain.Verse `json:"verses"`
}

// ShowRunner looks references up in the stored corpus.
type ShowRunner interface {
	Show(ctx context.Context, ref Reference) (*ShowResult, error)
}

// NewShowCmd creates the show command with the given runner.
func NewShowCmd(runner ShowRunner) *cobra.Command {
	var (
		jsonOutput bool
		simpleOnly bool
	)

	cmd := &cobra.Command{
		Use:          "show REF",
		Short:        "Print a verse (2:255) or a whole surah (2) from the SQLite export",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := ParseReference(args[0])
			if err != nil {
				return err
			}
			result, err := runner.Show(cmd.Context(), ref)
			if err != nil {
				return err
			}
			if jsonOutput || GetJSON() {
				writeJSON(cmd.OutOrStdout(), result)
				return nil
			}
			writeShowHuman(cmd.OutOrStdout(), result, simpleOnly)
			return nil
		},
	}

	cmd.Flags().String("database", "", "SQLite database to read (default from output settings)")
	cmd.Flags().BoolVar(&simpleOnly, "simple", false, "Print only the simple text")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")

	return cmd
}

func writeShowHuman(w io.Writer, r *ShowResult, simpleOnly bool) {
	s := r.Surah
	fmt.Fprintf(w, "Surah %d %s (%s), %s, %d verses\n\n", s.Number, s.NameArabic, s.NameEnglish, s.RevelationType, s.VersesCount)
	for _, v := range r.Verses {
		if simpleOnly {
			fmt.Fprintf(w, "%s  %s\n", v.Key(), v.TextSimple)
			continue
		}
		fmt.Fprintf(w, "%s  %s\n", v.Key(), v.TextUthmani)
		fmt.Fprintf(w, "%s  %s\n", strings.Repeat(" ", len(v.Key().String())), v.TextSimple)
	}
}
