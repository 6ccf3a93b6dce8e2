package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/chrissnell/rfxweather/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const calibrationFile = "../../pkg/config/testdata/th13-calibration.yaml"

func TestConvert(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "config.db")

	var out bytes.Buffer
	require.NoError(t, convert(&out, calibrationFile, dbPath, false, false))
	assert.Contains(t, out.String(), "Loaded 4 calibrations")

	p, err := config.NewSQLiteProvider(dbPath, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer p.Close()

	cals, err := p.GetCalibrations()
	require.NoError(t, err)
	require.Len(t, cals, 4)
	byName := map[string]config.CalibrationData{}
	for _, c := range cals {
		byName[c.Name] = c
	}
	rfxmngr := byName["rfxmngr-0x52"]
	assert.True(t, rfxmngr.Enabled)
	require.Len(t, rfxmngr.References, 1)
	assert.Equal(t, "dry", rfxmngr.References[0].Expect.HumidityStatus)
	assert.False(t, byName["interface-id-tail"].Enabled)

	err = convert(&bytes.Buffer{}, calibrationFile, dbPath, false, false)
	assert.ErrorContains(t, err, "already exists")
}

func TestConvertForceAndDryRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "config.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("stale"), 0o600))

	var out bytes.Buffer
	require.NoError(t, convert(&out, calibrationFile, dbPath, true, true))
	assert.Contains(t, out.String(), "interface-channel-first (packet type 0x01, disabled, 1 references)")

	stale, err := os.ReadFile(dbPath)
	require.NoError(t, err)
	assert.Equal(t, "stale", string(stale), "dry run leaves the target alone")

	require.NoError(t, convert(&bytes.Buffer{}, calibrationFile, dbPath, true, false))

	err = convert(&bytes.Buffer{}, "missing.yaml", dbPath, true, false)
	assert.ErrorContains(t, err, "does not exist")
}
