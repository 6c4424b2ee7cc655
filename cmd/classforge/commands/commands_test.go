package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/classforge/internal/classfile"
	"git.home.luguber.info/inful/classforge/internal/eventstore"
	foundationerrors "git.home.luguber.info/inful/classforge/internal/foundation/errors"
	"git.home.luguber.info/inful/classforge/internal/transformers"
	"git.home.luguber.info/inful/classforge/internal/workspace"
)

var codec = classfile.NewYAMLCodec()

func writeWorkspace(t *testing.T, dir string, names ...string) {
	t.Helper()
	b := workspace.NewBundle(workspace.DefaultBundleName)
	for _, name := range names {
		data, err := codec.Encode(&classfile.Node{Name: name, Super: "java/lang/Object"}, nil)
		require.NoError(t, err)
		b.Put(workspace.NewClassInfo(name, data))
	}
	require.NoError(t, workspace.SaveResource(workspace.NewResource("input", b), dir))
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "classforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRunCommandWritesOutputReportAndEvents(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	db := filepath.Join(dir, "events.db")
	reportPath := filepath.Join(dir, "report.md")
	writeWorkspace(t, in, "a/A", "a/B")

	cfgPath := writeConfig(t, fmt.Sprintf(`
workspace:
  path: %s
run:
  max_passes: 4
  transformers: [rename_marker_field]
output:
  path: %s
events:
  sqlite_path: %s
`, in, out, db))

	cli := &CLI{Config: cfgPath}
	cmd := &RunCmd{Report: reportPath}
	require.NoError(t, cmd.Run(&Global{}, cli))

	res, err := workspace.LoadResource(out)
	require.NoError(t, err)
	info, _, ok := res.Find("a/A")
	require.True(t, ok)
	n, err := codec.Decode(info.Bytes())
	require.NoError(t, err)
	assert.NotNil(t, n.Field("$classforge$processed"))
	assert.Nil(t, n.Field("$classforge"))

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "add_marker_field")

	var buf bytes.Buffer
	store, err := eventstore.NewSQLiteStore(db)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	require.NoError(t, (&EventsCmd{Limit: 5}).printHistory(context.Background(), &buf, store))
	assert.Contains(t, buf.String(), "completed")
}

func TestRunCommandDryRunLeavesWorkspaceUntouched(t *testing.T) {
	in := t.TempDir()
	writeWorkspace(t, in, "a/A")
	before, err := os.ReadFile(filepath.Join(in, workspace.DefaultBundleName, "classes", "a", "A.class"))
	require.NoError(t, err)

	cfgPath := writeConfig(t, fmt.Sprintf("workspace:\n  path: %s\n", in))
	cmd := &RunCmd{Transformer: []string{"add_marker_field"}, DryRun: true}
	require.NoError(t, cmd.Run(&Global{}, &CLI{Config: cfgPath}))

	after, err := os.ReadFile(filepath.Join(in, workspace.DefaultBundleName, "classes", "a", "A.class"))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRunCommandRequiresTransformers(t *testing.T) {
	in := t.TempDir()
	writeWorkspace(t, in, "a/A")
	cfgPath := writeConfig(t, fmt.Sprintf("workspace:\n  path: %s\n", in))

	err := (&RunCmd{}).Run(&Global{}, &CLI{Config: cfgPath})
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryValidation))
}

func TestRunCommandUnknownTransformerIsFatal(t *testing.T) {
	in := t.TempDir()
	writeWorkspace(t, in, "a/A")
	cfgPath := writeConfig(t, fmt.Sprintf("workspace:\n  path: %s\n", in))

	err := (&RunCmd{Transformer: []string{"does_not_exist"}}).Run(&Global{}, &CLI{Config: cfgPath})
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryTransform))
}

func TestPlanCommandWritesMermaid(t *testing.T) {
	cfgPath := writeConfig(t, "run:\n  transformers: [rename_marker_field]\n")
	out := filepath.Join(t.TempDir(), "plan.mmd")

	cmd := &PlanCmd{Format: "mermaid", Output: out}
	require.NoError(t, cmd.Run(&Global{}, &CLI{Config: cfgPath}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "add_marker_field")
	assert.Contains(t, string(data), "rename_marker_field")
}

func TestWriteTransformerList(t *testing.T) {
	reg, err := transformers.NewRegistry(nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeTransformerList(&buf, reg))
	assert.Contains(t, buf.String(), "rename_marker_field (after add_marker_field)")
	assert.Contains(t, buf.String(), "strip_debug_info [prunable]")
}
