package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "medidrop/pkg/domain-errors"
)

func TestRequirementFor(t *testing.T) {
	table := MustSeedTable()

	t.Run("known pair returns requirement", func(t *testing.T) {
		req, err := table.RequirementFor("EG", "otc")
		require.NoError(t, err)
		assert.Equal(t, RequirementOTC, req)
	})

	t.Run("insulin requires cold chain", func(t *testing.T) {
		req, err := table.RequirementFor("AE", "insulin")
		require.NoError(t, err)
		assert.True(t, req.RequiresPrescription())
		assert.True(t, req.RequiresColdChain())
	})

	t.Run("unknown country blocks", func(t *testing.T) {
		_, err := table.RequirementFor("XX", "otc")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnknownJurisdiction))
	})

	t.Run("unknown class blocks even in known country", func(t *testing.T) {
		_, err := table.RequirementFor("EG", "narcotic")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnknownJurisdiction))
	})
}

func TestNewTableRejectsDuplicates(t *testing.T) {
	_, err := NewTable([]Rule{
		{Country: "EG", Class: "otc", Requirement: RequirementOTC},
		{Country: "EG", Class: "otc", Requirement: RequirementRx},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate rule")
}

func TestParseRequirement(t *testing.T) {
	for _, valid := range []string{"otc", "rx", "rx_cold_chain"} {
		req, err := ParseRequirement(valid)
		require.NoError(t, err)
		assert.Equal(t, Requirement(valid), req)
	}

	_, err := ParseRequirement("prescription")
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	t.Run("valid file loads", func(t *testing.T) {
		path := writeRules(t, `
rules:
  - country: EG
    class: otc
    requirement: otc
  - country: AE
    class: insulin
    requirement: rx_cold_chain
`)
		table, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, 2, table.Len())

		req, err := table.RequirementFor("AE", "insulin")
		require.NoError(t, err)
		assert.Equal(t, RequirementRxColdChain, req)
	})

	t.Run("bad requirement fails", func(t *testing.T) {
		path := writeRules(t, `
rules:
  - country: EG
    class: otc
    requirement: maybe
`)
		_, err := LoadFile(path)
		assert.Error(t, err)
	})

	t.Run("missing file fails", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
