package back

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"puma/internal/elo"
	"puma/internal/util"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v4"
)

// ImportResult counts the rows of an import, Errors holds one message per
// skipped row.
type ImportResult struct {
	Imported, Skipped int
	Errors            []string
}

func (r *ImportResult) skip(line int, format string, args ...interface{}) {
	r.Skipped++
	r.Errors = append(r.Errors, fmt.Sprintf("line %d: ", line)+fmt.Sprintf(format, args...))
}

// csvTable is a CSV document whose columns are addressed by header name.
type csvTable struct {
	columns map[string]int
	rows    [][]string
}

func readCSV(r io.Reader, required ...string) (csvTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return csvTable{}, util.ErrPublic(fmt.Sprintf("unable to read CSV: %s", err))
	}

	if len(records) == 0 {
		return csvTable{}, util.ErrPublic("the CSV file is empty")
	}

	t := csvTable{columns: make(map[string]int, len(records[0])), rows: records[1:]}
	for k, v := range records[0] {
		t.columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(v, "\ufeff")))] = k
	}

	for _, v := range required {
		if _, ok := t.columns[v]; !ok {
			return csvTable{}, util.ErrPublic(fmt.Sprintf("missing required CSV column `%s`", v))
		}
	}

	return t, nil
}

// get returns the trimmed value of a cell, empty if the column or the cell
// does not exist.
func (t csvTable) get(row []string, column string) string {
	k, ok := t.columns[column]
	if !ok || k >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[k])
}

func parseRating(str string) (float64, error) {
	v, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, err
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("rating must be finite")
	}

	return v, nil
}

// ImportPlayers creates players from a CSV with the columns
// display_name,first_name,last_name,elo. Only display_name is required, a
// missing or unreadable elo falls back to the default rating. Invalid rows
// are skipped and reported.
func (b *Back) ImportPlayers(r io.Reader) (res ImportResult, _ error) {
	table, err := readCSV(r, "display_name")
	if err != nil {
		return ImportResult{}, err
	}

	start := time.Now()
	if err := b.transaction(func(tx *sqlx.Tx) error {
		now := time.Now()
		for k, row := range table.rows {
			line := k + 2
			in := PlayerInput{
				DisplayName: table.get(row, "display_name"),
				FirstName:   null.StringFrom(table.get(row, "first_name")),
				LastName:    null.StringFrom(table.get(row, "last_name")),
			}

			if err := in.normalize(); err != nil {
				res.skip(line, "%s", err)
				continue
			}

			if err := ensureNameIsFree(tx, in.DisplayName, 0); err != nil {
				if !util.IsPublic(err) {
					return err
				}
				res.skip(line, "%s", err)
				continue
			}

			rating := elo.DefaultRating
			if str := table.get(row, "elo"); str != "" {
				if v, err := parseRating(str); err == nil {
					rating = v
				} else {
					log.Printf("debug: line %d: ignoring elo %q: %s", line, str, err)
				}
			}

			player := NewPlayer(in)
			if err := player.insert(tx); err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}

			if _, err := setRating(tx, player.ID, rating, reasonBulkImport, now); err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}

			res.Imported++
		}

		return nil
	}); err != nil {
		return ImportResult{}, err
	}

	ratingWrites.WithLabelValues("import").Add(float64(res.Imported))
	log.Printf("info: imported %d players (%d skipped) in %s", res.Imported, res.Skipped, time.Since(start))

	return res, nil
}

// ImportRatings sets the rating of existing players from a CSV with the
// columns name,elo where name is the display name. Unknown names and
// unreadable ratings are skipped and reported.
func (b *Back) ImportRatings(r io.Reader) (res ImportResult, _ error) {
	table, err := readCSV(r, "name", "elo")
	if err != nil {
		return ImportResult{}, err
	}

	start := time.Now()
	if err := b.transaction(func(tx *sqlx.Tx) error {
		now := time.Now()
		for k, row := range table.rows {
			line := k + 2
			name := table.get(row, "name")

			rating, err := parseRating(table.get(row, "elo"))
			if err != nil {
				res.skip(line, "invalid rating for `%s`", name)
				continue
			}

			player, err := getPlayerByName(tx, name)
			if err != nil {
				if !errors.Is(err, sql.ErrNoRows) {
					return err
				}
				res.skip(line, "unknown player `%s`", name)
				continue
			}

			if _, err := setRating(tx, player.ID, rating, reasonRatingImport, now); err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}

			res.Imported++
		}

		return nil
	}); err != nil {
		return ImportResult{}, err
	}

	ratingWrites.WithLabelValues("import").Add(float64(res.Imported))
	log.Printf("info: imported %d ratings (%d skipped) in %s", res.Imported, res.Skipped, time.Since(start))

	return res, nil
}
