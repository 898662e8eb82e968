package generator

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/paisatrail/internal/dataset"
	"github.com/vanshika/paisatrail/internal/domain"
	"github.com/vanshika/paisatrail/internal/service"
)

func ringConfig() Config {
	cfg := DefaultConfig()
	cfg.SharedMuleChance = 0
	cfg.Seed = 7
	return cfg
}

func TestGenerateIsDeterministic(t *testing.T) {
	a, err := New(ringConfig()).Generate(context.Background())
	require.NoError(t, err)
	b, err := New(ringConfig()).Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a.Expected.Layer1, 5)
}

func TestGeneratedRingIsRecoveredByTracer(t *testing.T) {
	for _, write := range []struct {
		name string
		fn   func(io.Writer, Dataset) error
		read func(io.Reader) (dataset.Table, error)
	}{
		{"csv", WriteCSV, dataset.ReadCSV},
		{"xlsx", WriteXLSX, dataset.ReadXLSX},
	} {
		t.Run(write.name, func(t *testing.T) {
			ds, err := New(ringConfig()).Generate(context.Background())
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, write.fn(&buf, ds))
			table, err := write.read(&buf)
			require.NoError(t, err)
			require.Len(t, table.Rows, len(ds.Rows))

			svc := service.NewTraceService(slog.New(slog.NewTextHandler(io.Discard, nil)), service.DefaultSettings())
			res, err := svc.Run(context.Background(), table)
			require.NoError(t, err)

			assert.Equal(t, domain.AccountID(ds.Expected.Victim), res.Trace.Victim)
			var got []string
			for _, n := range res.Trace.Layer1 {
				got = append(got, n.Account.String())
			}
			assert.Equal(t, ds.Expected.Layer1, got)
			assert.Equal(t, ds.Expected.HighWithdrawals, res.Trace.HighCount())
			assert.Equal(t, DefaultConfig().NoiseRows, res.Stats.BelowThreshold)
			assert.Equal(t, DefaultConfig().MalformedRows, res.Stats.Malformed)
		})
	}
}

func TestGenerateSingleMuleKeepsVictim(t *testing.T) {
	cfg := ringConfig()
	cfg.NumLayer1 = 1
	cfg.RepeatChance = 0
	cfg.WithdrawalChance = 1
	ds, err := New(cfg).Generate(context.Background())
	require.NoError(t, err)

	counts := map[string]int{}
	for _, row := range ds.Rows[:len(ds.Rows)-cfg.NoiseRows-cfg.MalformedRows] {
		counts[row.Sender]++
	}
	for acct, n := range counts {
		assert.LessOrEqual(t, n, counts[ds.Expected.Victim], "account %s out-sends the victim", acct)
	}
}

func TestGenerateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(ringConfig()).Generate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteFile(t *testing.T) {
	ds, err := New(ringConfig()).Generate(context.Background())
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "ring.csv")
	require.NoError(t, WriteFile(path, ds))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.ErrorIs(t, WriteFile(filepath.Join(dir, "ring.pdf"), ds), ErrUnsupportedOutput)
}
