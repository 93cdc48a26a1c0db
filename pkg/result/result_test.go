package result

import (
	"bytes"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() []Finding {
	return []Finding{
		{Inst: "c.addi", Other: "c.nop", XLen: 32, InstMatch: "000-----------01", OtherMatch: "0000000000000001"},
		{Inst: "c.nop", Other: "c.addi", XLen: 32, InstMatch: "0000000000000001", OtherMatch: "000-----------01"},
	}
}

func TestTableConcurrentAdd(t *testing.T) {
	tbl := NewTable()
	var wg sync.WaitGroup
	for _, f := range append(sample(), sample()...) {
		wg.Add(1)
		go func(f Finding) {
			defer wg.Done()
			tbl.Add(f)
		}(f)
	}
	wg.Wait()

	assert.Equal(t, 4, tbl.Len())
	got := tbl.Findings()
	assert.Equal(t, "c.addi", got[0].Inst)
	assert.Equal(t, "c.nop", got[3].Inst)
}

func TestJSONRoundTrip(t *testing.T) {
	rep := NewReport("rvc.yaml", 32, 12, sample())
	require.NotEmpty(t, rep.RunID)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, rep))
	assert.Contains(t, buf.String(), `"inst_match": "000-----------01"`)

	back, err := ReadJSON(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(rep, back); diff != "" {
		t.Errorf("ReadJSON mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyReportHasFindingsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, NewReport("", 64, 0, nil)))
	assert.Contains(t, buf.String(), `"findings": []`)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	WriteTable(&buf, sample())
	out := buf.String()
	assert.Contains(t, out, "INSTRUCTION")
	assert.Contains(t, out, "c.addi")
	assert.Contains(t, out, "0000000000000001")
}

func TestBaseline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.gob")
	old := NewReport("", 32, 2, sample()[:1])
	require.NoError(t, SaveBaseline(path, BaselineOf(old)))

	b, err := LoadBaseline(path)
	require.NoError(t, err)
	assert.Equal(t, old.RunID, b.RunID)

	cur := NewReport("", 32, 2, sample())
	fresh := cur.NewSince(b)
	require.Len(t, fresh, 1)
	assert.Equal(t, "c.nop", fresh[0].Inst)

	assert.Len(t, cur.NewSince(nil), 2)

	_, err = LoadBaseline(filepath.Join(t.TempDir(), "missing.gob"))
	assert.Error(t, err)
}
