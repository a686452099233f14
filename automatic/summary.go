package automatic

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"gonum.org/v1/gonum/stat"

	"github.com/domino14/goban/move"
	"github.com/domino14/goban/stats"
)

const (
	summaryConfidence = 95
	histogramBins     = 10
)

// Summary describes a batch of self-play games.
type Summary struct {
	Games     int
	BlackWins int
	WhiteWins int
	Draws     int
	// A draw counts as a game Black did not win.
	BlackWinRate float64
	WinRateLow   float64
	WinRateHigh  float64
	MeanScore    float64
	ScoreStdev   float64
	MeanMoves    float64
	Histogram    histogram.Histogram
}

// Summarize computes win counts, a confidence interval for Black's win
// rate and the distribution of final scores.
func Summarize(results []Result) Summary {
	s := Summary{Games: len(results)}
	if s.Games == 0 {
		return s
	}
	scores := make([]float64, len(results))
	moves := make([]float64, len(results))
	for i, r := range results {
		scores[i] = r.Score
		moves[i] = float64(r.Moves)
		switch r.Winner {
		case move.Black:
			s.BlackWins++
		case move.White:
			s.WhiteWins++
		default:
			s.Draws++
		}
	}
	s.BlackWinRate = float64(s.BlackWins) / float64(s.Games)
	s.WinRateLow, s.WinRateHigh = stats.ProportionInterval(s.BlackWins, s.Games, summaryConfidence)
	s.MeanScore, s.ScoreStdev = stat.MeanStdDev(scores, nil)
	if s.Games == 1 {
		s.ScoreStdev = 0
	}
	s.MeanMoves = stat.Mean(moves, nil)
	s.Histogram = histogram.Hist(histogramBins, scores)
	return s
}

func (s Summary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Games played: %d\n", s.Games)
	if s.Games == 0 {
		return sb.String()
	}
	fmt.Fprintf(&sb, "Black wins: %d  White wins: %d  Draws: %d\n", s.BlackWins, s.WhiteWins, s.Draws)
	fmt.Fprintf(&sb, "Black win rate: %.3f (%d%% interval %.3f - %.3f)\n",
		s.BlackWinRate, summaryConfidence, s.WinRateLow, s.WinRateHigh)
	fmt.Fprintf(&sb, "Mean score: %.2f  Stdev: %.2f  Mean moves: %.1f\n",
		s.MeanScore, s.ScoreStdev, s.MeanMoves)
	if len(s.Histogram.Buckets) > 0 {
		sb.WriteString("Score distribution (Black's point of view):\n")
		histogram.Fprint(&sb, s.Histogram, histogram.Linear(40))
	}
	return sb.String()
}

// AnalyzeLogFile reads a result log written by StartCompVComp and
// summarizes it.
func AnalyzeLogFile(filepath string) (Summary, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return Summary{}, err
	}
	defer file.Close()
	r := csv.NewReader(file)
	r.FieldsPerRecord = len(logHeader)

	var results []Result
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Summary{}, err
		}
		if record[0] == logHeader[0] {
			continue
		}
		res, err := parseRecord(record)
		if err != nil {
			return Summary{}, err
		}
		results = append(results, res)
	}
	return Summarize(results), nil
}

func parseRecord(record []string) (Result, error) {
	var res Result
	var err error
	if res.GameID, err = strconv.Atoi(record[0]); err != nil {
		return res, err
	}
	if res.Moves, err = strconv.Atoi(record[1]); err != nil {
		return res, err
	}
	if res.Score, err = strconv.ParseFloat(record[2], 64); err != nil {
		return res, err
	}
	if res.MeanPlayoutLength, err = strconv.ParseFloat(record[5], 64); err != nil {
		return res, err
	}
	res.Winner = winner(res.Score)
	return res, nil
}
