package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"busters/inference"
)

type EpisodeRecord struct {
	ID         string
	Goroutines int // Belief update parallelism
	EpisodeMetric
}

type TurnRecord struct {
	Episode string // EpisodeRecord.ID
	TurnMetric
}

type TickTrace struct {
	Episode string // EpisodeRecord.ID
	TickRecord
}

type BeliefRecord struct {
	Episode   string // EpisodeRecord.ID
	Adversary string
	Belief    inference.Distribution
}

type Writer struct {
	baseDir string
}

func NewWriter(root, name string) (*Writer, error) {
	// Create a subfolder named by current timestamp
	timestamp := time.Now().UTC().Format("20060102T150405Z")
	baseDir := filepath.Join(root, name, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WriteEpisodeRecords(records []EpisodeRecord) error {
	header := []string{"id", "layout", "ghosts", "captured", "score", "turns", "start_time", "end_time", "duration", "goroutines"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			record.ID,
			record.Layout,
			strconv.Itoa(record.Ghosts),
			strconv.Itoa(record.Captured),
			strconv.Itoa(record.Score),
			strconv.Itoa(record.Turns),
			record.StartTime.Format(time.RFC3339),
			record.EndTime.Format(time.RFC3339),
			record.Duration.String(),
			strconv.Itoa(record.Goroutines),
		})
	}
	return w.write("episode_records.csv", header, rows)
}

func (w *Writer) WriteTurnRecords(records []TurnRecord) error {
	header := []string{"episode", "turn", "duration", "tracked", "elapses", "observations", "impossible"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			record.Episode,
			strconv.Itoa(record.Turn),
			record.Duration.String(),
			strconv.Itoa(record.Tracked),
			strconv.Itoa(record.Elapses),
			strconv.Itoa(record.Observations),
			strconv.Itoa(record.Impossible),
		})
	}
	return w.write("turn_records.csv", header, rows)
}

// WriteTickTraces writes one row per tick: tracker position, then per adversary its living
// flag, reading (-1 for none) and most likely position, then scores and the move taken.
func (w *Writer) WriteTickTraces(traces []TickTrace) error {
	header := []string{"episode", "tick", "tracker_x", "tracker_y", "living", "readings", "estimates", "score", "next_score", "direction"}
	rows := make([][]string, 0, len(traces))
	for _, trace := range traces {
		rows = append(rows, []string{
			trace.Episode,
			strconv.Itoa(trace.Tick),
			strconv.Itoa(trace.Tracker.X),
			strconv.Itoa(trace.Tracker.Y),
			joinBools(trace.Living),
			joinReadings(trace),
			joinEstimates(trace),
			strconv.Itoa(trace.Score),
			strconv.Itoa(trace.NextScore),
			trace.Direction.String(),
		})
	}
	return w.write("tick_traces.csv", header, rows)
}

// WriteBeliefRecords writes every nonzero cell of each final belief.
func (w *Writer) WriteBeliefRecords(records []BeliefRecord) error {
	header := []string{"episode", "adversary", "removed", "x", "y", "p"}
	rows := [][]string{}
	for _, record := range records {
		weights := record.Belief.Weights()
		for i, p := range record.Belief.Positions() {
			if weights[i] == 0 {
				continue
			}
			rows = append(rows, []string{
				record.Episode,
				record.Adversary,
				strconv.FormatBool(record.Belief.Removed()),
				strconv.Itoa(p.X),
				strconv.Itoa(p.Y),
				strconv.FormatFloat(weights[i], 'g', -1, 64),
			})
		}
	}
	return w.write("belief_records.csv", header, rows)
}

func (w *Writer) write(name string, header []string, rows [][]string) error {
	// Create a file
	path := filepath.Join(w.baseDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)

	// Write header
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}

	// Write each row
	for _, row := range rows {
		err = writer.Write(row)
		if err != nil {
			return fmt.Errorf("failed to write %s row: %w", name, err)
		}
	}

	writer.Flush()
	if err = writer.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", name, err)
	}
	return nil
}

func joinBools(values []bool) string {
	s := ""
	for i, v := range values {
		if i > 0 {
			s += " "
		}
		s += strconv.FormatBool(v)
	}
	return s
}

func joinReadings(trace TickTrace) string {
	s := ""
	for i, r := range trace.Readings {
		if i > 0 {
			s += " "
		}
		s += strconv.Itoa(int(r))
	}
	return s
}

func joinEstimates(trace TickTrace) string {
	s := ""
	for i, p := range trace.Estimates {
		if i > 0 {
			s += " "
		}
		s += strconv.Itoa(p.X) + ":" + strconv.Itoa(p.Y)
	}
	return s
}
