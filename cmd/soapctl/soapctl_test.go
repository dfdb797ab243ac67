package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const note = "S: stable\nA:\n1. Pneumonia\n[Current Management]\n- Augmentin\n2. DM\nP:\nContinue antibiotics"

const orderLog = "列印時間:2024/05/01 08:30\nNEW Augmentin 1.2g IV Q8H\nDC Augmentin 1.2g IV Q8H\nChest PA view\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParse_JSON(t *testing.T) {
	out, err := run(t, "parse",
		"--log", writeFile(t, "a.log", orderLog),
		"--note", writeFile(t, "note.txt", note),
		"--json")
	require.NoError(t, err)

	var res parseResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 3, res.EntryCount)
	require.Len(t, res.Medications, 1)
	assert.Equal(t, "[DC] Augmentin", res.Medications[0].Display)
	require.Len(t, res.Orders, 1)
	assert.Equal(t, "Chest Pa View", res.Orders[0].Name)
	assert.Len(t, res.Problems, 2)
	assert.Equal(t, "Continue antibiotics", res.Plan)
}

func TestParse_Text(t *testing.T) {
	out, err := run(t, "parse", "--log", writeFile(t, "a.log", orderLog))
	require.NoError(t, err)
	assert.Contains(t, out, "entries: 3\n")
	assert.Contains(t, out, "  [DC] Augmentin (Discontinued): Augmentin 1.2g IV Q8H\n")
	assert.Contains(t, out, "  Chest Pa View: Chest PA view\n")
}

func TestParse_NoteFromEnvironment(t *testing.T) {
	t.Setenv("SOAPCTL_NOTE", writeFile(t, "note.txt", note))

	out, err := run(t, "parse", "--json")
	require.NoError(t, err)

	var res parseResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res.Problems, 2)
	assert.Empty(t, res.Medications)
}

func TestMerge(t *testing.T) {
	out, err := run(t, "merge",
		"--base", writeFile(t, "base.txt", "1. Pneumonia\n[Current Management]\n- Augmentin\n\n[Consult]\n- ID"),
		"--updates", writeFile(t, "upd.txt", "[Current Management]\n- Zosyn"))
	require.NoError(t, err)
	assert.Equal(t, "1. Pneumonia\n[Current Management]\n- Augmentin\n- Zosyn\n\n[Consult]\n- ID", out)
}

func TestMerge_RequiresBase(t *testing.T) {
	_, err := run(t, "merge")
	assert.ErrorContains(t, err, "--base is required")
}

func TestAssemble(t *testing.T) {
	out, err := run(t, "assemble", "--note", writeFile(t, "note.txt", note))
	require.NoError(t, err)
	assert.Equal(t,
		"A:\n1. Pneumonia\n[Current Management]\n- Augmentin\n\n2. DM\n\nP:\nContinue antibiotics\n",
		out)
}

func TestAssemble_MissingInput(t *testing.T) {
	_, err := run(t, "assemble")
	assert.Error(t, err)
}
