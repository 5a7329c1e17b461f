package experiments

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"busters/config"
	"busters/server"

	"github.com/stretchr/testify/require"
)

type countingPublisher struct {
	sources   int
	publishes int
}

func (p *countingPublisher) SetSource(server.Source) { p.sources++ }
func (p *countingPublisher) Publish()                { p.publishes++ }

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func smallConfig(t *testing.T) config.Config {
	cfg, err := config.Parse([]byte(`
layout: oneHunt
turns: 8
episodes: 2
ghosts:
  - {id: a, start: {x: 8, y: 3}}
tracker: {start: {x: 1, y: 1}, policy: random}
`))
	require.NoError(t, err)
	cfg.Output = t.TempDir()
	return cfg
}

func TestRunHunt(t *testing.T) {
	cfg := smallConfig(t)
	publisher := &countingPublisher{}

	dir, err := RunHunt("hunt", cfg, publisher)

	require.NoError(t, err)
	require.Equal(t, 2, publisher.sources, "One source per episode")

	episodes := readCSV(t, filepath.Join(dir, "episode_records.csv"))
	require.Len(t, episodes, 3)
	require.Equal(t, "oneHunt", episodes[1][1])
	require.NotEqual(t, episodes[1][0], episodes[2][0], "Episodes get distinct ids")

	turns := readCSV(t, filepath.Join(dir, "turn_records.csv"))
	ticks := readCSV(t, filepath.Join(dir, "tick_traces.csv"))
	require.Equal(t, len(turns), len(ticks))
	require.Equal(t, len(turns)-1, publisher.publishes, "Every turn is published")

	beliefs := readCSV(t, filepath.Join(dir, "belief_records.csv"))
	require.Greater(t, len(beliefs), 1)
}

func TestRunThroughput(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Episodes = 1

	dir, err := RunThroughput(cfg, []int{1, 4})

	require.NoError(t, err)
	episodes := readCSV(t, filepath.Join(dir, "episode_records.csv"))
	require.Len(t, episodes, 3)
	require.Equal(t, "1", episodes[1][9])
	require.Equal(t, "4", episodes[2][9])
	require.Equal(t, episodes[1][5], episodes[2][5], "Same seed, same number of turns")
}
