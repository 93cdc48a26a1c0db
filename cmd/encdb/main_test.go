package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oisee/encdb/pkg/isa"
	"github.com/oisee/encdb/pkg/result"
	"github.com/oisee/encdb/pkg/schema"
)

func TestParseWord(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{"0x403150b3", 0x403150b3},
		{"0b0000_0000_1000_0101", 0x85},
		{"133", 133},
	}
	for _, tc := range tests {
		got, err := parseWord(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
	_, err := parseWord("")
	assert.Error(t, err)
}

func TestConfigureLogger(t *testing.T) {
	log := logrus.New()
	require.NoError(t, configureLogger(log, "debug", "json"))
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	assert.Error(t, configureLogger(log, "loud", "text"))
	assert.Error(t, configureLogger(log, "info", "xml"))
}

func TestWriteReportJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	rep := result.NewReport("db.yaml", 32, 3, nil)
	require.NoError(t, writeReport(rep, nil, path, "json"))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	back, err := result.ReadJSON(f)
	require.NoError(t, err)
	assert.Equal(t, rep.RunID, back.RunID)
	assert.Empty(t, back.Findings)

	assert.Error(t, writeReport(rep, nil, path, "csv"))
}

func TestCheckFormats(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	db, err := schema.Load("../../pkg/schema/testdata/rvc.yaml")
	require.NoError(t, err)
	assert.NoError(t, checkFormats(db, log))

	db, err = schema.Parse([]byte(`
instructions:
  - name: b
    format:
      - if: {xlen: 32}
        then:
          size: 16
          opcodes:
            - {name: op, location: 15-0, value: "0000000000000001"}
`))
	require.NoError(t, err)
	err = checkFormats(db, log)
	var nfe *isa.NoFormatError
	require.ErrorAs(t, err, &nfe)
	assert.Equal(t, "b", nfe.Inst)
	assert.Equal(t, uint32(64), nfe.XLen)
}
