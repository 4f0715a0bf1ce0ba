package back

import (
	"bytes"
	"io"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/wcharczuk/go-chart"
	"github.com/wcharczuk/go-chart/drawing"
)

const emptySVG = `<svg xmlns="http://www.w3.org/2000/svg"/>`

// GetRatingsDistributionGraph renders an histogram of the current ratings as
// SVG, each bar is the share of players within 100 rating units.
func (b *Back) GetRatingsDistributionGraph() ([]byte, error) {
	start := time.Now()
	defer func() { log.Printf("info: computed ratings stats in %s", time.Since(start)) }()

	var ratings []float64
	if err := b.transaction(func(tx *sqlx.Tx) error {
		return tx.Select(&ratings, `SELECT Rating FROM PlayerRating`)
	}); err != nil {
		return nil, err
	}

	if len(ratings) == 0 {
		return []byte(emptySVG), nil
	}

	bars, maxValue := getRatingsBars(ratings, chart.Style{
		FontColor:   drawing.ColorBlack,
		FillColor:   drawing.ColorFromHex("285577"),
		StrokeColor: drawing.ColorFromHex("4c7899"),
		StrokeWidth: 1,
	})

	graph := chart.BarChart{
		Height: 300,
		Width:  600,
		Canvas: chart.Style{FillColor: chart.ColorTransparent},
		Background: chart.Style{
			FillColor: chart.ColorTransparent,
		},
		YAxis: chart.YAxis{
			Ticks: []chart.Tick{
				{Value: 0},
				{Value: maxValue},
			},
		},
		Bars: bars,
	}
	graph.BarWidth = (graph.Width - (len(bars) * graph.BarSpacing)) / len(bars)

	return renderChart(graph)
}

func getRatingsBars(ratings []float64, barStyle chart.Style) ([]chart.Value, float64) {
	binWidth := 100 // width in rating units

	bins := make(map[int]int, 20)
	minBin, maxBin := math.MaxInt64, math.MinInt64
	maxValue := math.MinInt64

	for _, v := range ratings {
		r := int(math.Round(v/float64(binWidth)) * float64(binWidth))
		bins[r]++
		if r < minBin {
			minBin = r
		}
		if r > maxBin {
			maxBin = r
		}

		if bins[r] > maxValue {
			maxValue = bins[r]
		}
	}

	bars := make([]chart.Value, 0, len(bins))
	for i := minBin; i <= maxBin; i += binWidth {
		bars = append(bars, chart.Value{
			Value: float64(bins[i]) / float64(len(ratings)),
			Label: strconv.Itoa(i),
			Style: barStyle,
		})
	}

	return bars, float64(maxValue) / float64(len(ratings))
}

// GetPlayerRatingGraph renders the rating history of a player as SVG.
func (b *Back) GetPlayerRatingGraph(playerID int64) ([]byte, error) {
	var history []struct {
		CreatedAt int64
		NewRating float64
	}
	if err := b.transaction(func(tx *sqlx.Tx) error {
		if _, err := getPlayerByID(tx, playerID); err != nil {
			return err
		}

		return tx.Select(&history, `
            SELECT CreatedAt, NewRating FROM RatingHistory
            WHERE PlayerID = ? ORDER BY CreatedAt ASC, rowid ASC`,
			playerID,
		)
	}); err != nil {
		return nil, err
	}

	if len(history) < 2 {
		// Not enough data, return nothing.
		return []byte(emptySVG), nil
	}

	x := make([]float64, len(history))
	y := make([]float64, len(history))
	for i := range history {
		// Changes in the same second are spread so the series stays monotonic.
		x[i] = float64(history[i].CreatedAt)
		if i > 0 && x[i] <= x[i-1] {
			x[i] = x[i-1] + 1
		}
		y[i] = history[i].NewRating
	}

	graph := chart.Chart{
		Width:      620,
		Height:     200,
		Canvas:     chart.Style{FillColor: chart.ColorTransparent},
		Background: chart.Style{FillColor: chart.ColorTransparent},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				return time.Unix(int64(v.(float64)), 0).UTC().Format("2006-01-02")
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Rating",
				XValues: x,
				YValues: y,
			},
		},
	}

	return renderChart(graph)
}

type renderable interface {
	Render(chart.RendererProvider, io.Writer) error
}

func renderChart(r renderable) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(chart.SVG, &buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
