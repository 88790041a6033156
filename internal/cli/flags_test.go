package cli

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/backoffice-recon/internal/adapters/tabular"
	"github.com/eshaffer321/backoffice-recon/internal/infrastructure/config"
)

func TestParseReconcileFlags(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		flags, err := ParseReconcileFlags([]string{"-left", "d.csv", "-right", "c.csv"}, io.Discard)

		require.NoError(t, err)
		assert.Equal(t, "ledger", flags.Mode)
		assert.False(t, flags.Save)
		assert.Equal(t, tabular.ReaderOptions{Delimiter: ',', Encoding: tabular.EncodingUTF8}, flags.ReaderOptions())
	})

	t.Run("all flags", func(t *testing.T) {
		flags, err := ParseReconcileFlags([]string{
			"-mode", "ticket", "-left", "t.xlsx", "-right", "r.xlsx", "-out", "out.XLSX",
			"-save", "-sheet", "Teller", "-delimiter", ";", "-encoding", "windows-1252",
		}, io.Discard)

		require.NoError(t, err)
		assert.True(t, flags.Save)
		format, err := flags.OutFormat()
		require.NoError(t, err)
		assert.Equal(t, tabular.FormatXLSX, format)
		assert.Equal(t, tabular.ReaderOptions{Delimiter: ';', Encoding: "windows-1252", Sheet: "Teller"}, flags.ReaderOptions())
	})

	t.Run("invalid combinations", func(t *testing.T) {
		tests := []struct {
			name string
			args []string
		}{
			{"unknown mode", []string{"-mode", "weekly", "-left", "a.csv", "-right", "b.csv"}},
			{"missing right", []string{"-left", "a.csv"}},
			{"multi-char delimiter", []string{"-left", "a.csv", "-right", "b.csv", "-delimiter", ";;"}},
			{"unknown export format", []string{"-left", "a.csv", "-right", "b.csv", "-out", "x.pdf"}},
			{"unknown flag", []string{"-bogus"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := ParseReconcileFlags(tt.args, io.Discard)
				assert.Error(t, err)
			})
		}
	})
}

func TestParseServeFlags(t *testing.T) {
	flags, err := ParseServeFlags([]string{"-port", "9000", "-verbose"}, io.Discard)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.ApplyDefaults()
	apiCfg := APIConfig(cfg, flags)

	assert.Equal(t, 9000, apiCfg.Port)
	assert.True(t, flags.Verbose)
	assert.Equal(t, int64(config.DefaultUploadLimitMB)<<20, apiCfg.UploadLimitBytes)

	flags, err = ParseServeFlags(nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPort, APIConfig(cfg, flags).Port)
}
