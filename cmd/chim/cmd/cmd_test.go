package cmd

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/chim/pkg/api"
	"github.com/ssargent/chim/pkg/config"
	"github.com/ssargent/chim/pkg/di"
)

// testContainer is a TES3 header record holding one 4 byte HEDR
func testContainer() []byte {
	data := []byte("TES3")
	data = binary.LittleEndian.AppendUint32(data, 12)
	data = append(data, make([]byte, 8)...)
	data = append(data, "HEDR"...)
	data = binary.LittleEndian.AppendUint32(data, 4)
	return append(data, 0xDE, 0xAD, 0xBE, 0xEF)
}

// testEnv holds the paths of an isolated CLI environment
type testEnv struct {
	dir        string
	dataDir    string
	configPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	SetContainer(di.NewContainer())
	t.Cleanup(func() { log.SetDefault(log.New(os.Stderr)) })

	return &testEnv{
		dir:        dir,
		dataDir:    filepath.Join(dir, "data"),
		configPath: filepath.Join(dir, "config.yaml"),
	}
}

// run executes the command tree with the environment's config and data paths
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append(args, "--config", e.configPath, "--data-dir", e.dataDir))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *testEnv) writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

type capturingStarter struct {
	config api.ServerConfig
	called bool
}

func (c *capturingStarter) StartServer(ctx context.Context, archive api.IArchive, config api.ServerConfig, logger *log.Logger) error {
	c.called = true
	c.config = config
	return nil
}

type capturingFactory struct {
	starter *capturingStarter
}

func (f capturingFactory) CreateServerStarter() api.ServerStarter { return f.starter }

func TestConvert_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	input := env.writeFile(t, "plugin.esp", testContainer())
	xmlPath := filepath.Join(env.dir, "plugin.xml")
	binPath := filepath.Join(env.dir, "rebuilt.esp")

	_, err := env.run(t, "convert", input, "-o", xmlPath)
	require.NoError(t, err)

	doc, err := os.ReadFile(xmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(doc), `<TES3 size="12">`)
	assert.Contains(t, string(doc), `<HEDR size="4">DEADBEEF</HEDR>`)

	_, err = env.run(t, "convert", xmlPath, "-o", binPath)
	require.NoError(t, err)

	rebuilt, err := os.ReadFile(binPath)
	require.NoError(t, err)
	assert.Equal(t, testContainer(), rebuilt)
}

func TestConvert_Stdout(t *testing.T) {
	env := newTestEnv(t)
	input := env.writeFile(t, "plugin.esp", testContainer())

	out, err := env.run(t, "convert", input, "--group-width", "2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `<CHIM xmlns:t="urn:chim:tag">`))
	assert.Contains(t, out, "DEAD BEEF")
}

func TestConvert_EnvironmentOverridesConfigFile(t *testing.T) {
	env := newTestEnv(t)
	cfg := config.DefaultConfig()
	cfg.Render.GroupWidth = 1
	require.NoError(t, config.SaveConfig(cfg, env.configPath))
	input := env.writeFile(t, "plugin.esp", testContainer())

	out, err := env.run(t, "convert", input)
	require.NoError(t, err)
	assert.Contains(t, out, "DE AD BE EF")

	t.Setenv("CHIM_RENDER_GROUP_WIDTH", "2")
	out, err = env.run(t, "convert", input)
	require.NoError(t, err)
	assert.Contains(t, out, "DEAD BEEF")

	// flags win over the environment
	out, err = env.run(t, "convert", input, "--group-width", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "DEADBEEF")
}

func TestConvert_Errors(t *testing.T) {
	env := newTestEnv(t)

	t.Run("missing file", func(t *testing.T) {
		_, err := env.run(t, "convert", filepath.Join(env.dir, "missing.esp"))
		assert.Error(t, err)
	})

	t.Run("truncated container", func(t *testing.T) {
		input := env.writeFile(t, "short.esp", testContainer()[:20])
		_, err := env.run(t, "convert", input)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode")
	})

	t.Run("invalid log level", func(t *testing.T) {
		input := env.writeFile(t, "plugin.esp", testContainer())
		_, err := env.run(t, "convert", input, "--log-level", "loud")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}

func TestInspect(t *testing.T) {
	env := newTestEnv(t)
	input := env.writeFile(t, "plugin.esp", testContainer())

	out, err := env.run(t, "inspect", input, "--subrecords")
	require.NoError(t, err)
	assert.Contains(t, out, "INDEX")
	assert.Contains(t, out, "TES3")
	assert.Contains(t, out, "HEDR")
	assert.Contains(t, out, "1 records, 1 subrecords, 28 bytes (binary)")
	assert.Contains(t, out, "BLAKE3: ")
}

func TestInspect_JSON(t *testing.T) {
	env := newTestEnv(t)
	input := env.writeFile(t, "plugin.esp", testContainer())

	out, err := env.run(t, "inspect", input, "--json")
	require.NoError(t, err)

	var report inspectReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.Summary.Records)
	require.Len(t, report.Records, 1)
	assert.Equal(t, "TES3", report.Records[0].Tag)
	assert.Len(t, report.Blake3, 64)
}

func TestInit(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "init", "--print-key")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration written")

	cfg, err := config.LoadConfig(env.configPath)
	require.NoError(t, err)
	assert.Equal(t, env.dataDir, cfg.DataDir)
	assert.Len(t, cfg.Security.APIKey, 64)
	assert.Contains(t, out, cfg.Security.APIKey)
	assert.DirExists(t, env.dataDir)

	out, err = env.run(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	again, err := config.LoadConfig(env.configPath)
	require.NoError(t, err)
	assert.Equal(t, cfg.Security.APIKey, again.Security.APIKey)

	_, err = env.run(t, "init", "--force")
	require.NoError(t, err)
	forced, err := config.LoadConfig(env.configPath)
	require.NoError(t, err)
	assert.NotEqual(t, cfg.Security.APIKey, forced.Security.APIKey)
}

func TestServe(t *testing.T) {
	t.Run("requires an API key", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.run(t, "serve")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no API key configured")
	})

	t.Run("passes resolved settings to the server", func(t *testing.T) {
		env := newTestEnv(t)
		starter := &capturingStarter{}
		container.SetServerFactory(capturingFactory{starter: starter})

		_, err := env.run(t, "serve", "--api-key", "secret", "--port", "9000", "--max-size", "1024", "--row-width", "16")
		require.NoError(t, err)

		require.True(t, starter.called)
		assert.Equal(t, "secret", starter.config.APIKey)
		assert.Equal(t, 9000, starter.config.Port)
		assert.Equal(t, "127.0.0.1", starter.config.Bind)
		assert.Equal(t, int64(1024), starter.config.MaxDocumentSize)
		assert.Equal(t, 16, starter.config.Layout.RowWidth)
	})

	t.Run("environment API key", func(t *testing.T) {
		env := newTestEnv(t)
		starter := &capturingStarter{}
		container.SetServerFactory(capturingFactory{starter: starter})
		t.Setenv("CHIM_SECURITY_API_KEY", "from-env")

		_, err := env.run(t, "serve")
		require.NoError(t, err)
		assert.Equal(t, "from-env", starter.config.APIKey)
	})
}

func TestUp_BootstrapsConfig(t *testing.T) {
	env := newTestEnv(t)
	starter := &capturingStarter{}
	container.SetServerFactory(capturingFactory{starter: starter})

	out, err := env.run(t, "up")
	require.NoError(t, err)
	assert.Contains(t, out, "First run detected")
	require.True(t, config.ConfigExists(env.configPath))

	cfg, err := config.LoadConfig(env.configPath)
	require.NoError(t, err)
	require.True(t, starter.called)
	assert.Equal(t, cfg.Security.APIKey, starter.config.APIKey)

	// the second run reuses the stored key
	starter.called = false
	out, err = env.run(t, "up")
	require.NoError(t, err)
	assert.NotContains(t, out, "First run detected")
	assert.True(t, starter.called)
	assert.Equal(t, cfg.Security.APIKey, starter.config.APIKey)
}

func TestArchive_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	input := env.writeFile(t, "plugin.esp", testContainer())

	out, err := env.run(t, "archive", "put", input)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "Stored "))
	id := strings.Fields(out)[1]

	out, err = env.run(t, "archive", "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)

	binPath := filepath.Join(env.dir, "out.esp")
	_, err = env.run(t, "archive", "get", id, "-o", binPath)
	require.NoError(t, err)
	stored, err := os.ReadFile(binPath)
	require.NoError(t, err)
	assert.Equal(t, testContainer(), stored)

	out, err = env.run(t, "archive", "get", id, "--format", "xml")
	require.NoError(t, err)
	assert.Contains(t, out, `<HEDR size="4">DEADBEEF</HEDR>`)

	out, err = env.run(t, "archive", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted "+id)

	_, err = env.run(t, "archive", "get", id)
	assert.Error(t, err)
}

func TestArchive_PutConvertsXML(t *testing.T) {
	env := newTestEnv(t)
	doc := `<CHIM><TES3 size="12"><HEDR size="4">DEADBEEF</HEDR></TES3></CHIM>`
	input := env.writeFile(t, "plugin.xml", []byte(doc))

	_, err := env.run(t, "archive", "put", input)
	require.NoError(t, err)

	out, err := env.run(t, "archive", "list", "--json")
	require.NoError(t, err)

	var docs []struct {
		ID      string `json:"id"`
		Size    int    `json:"size"`
		Records int    `json:"records"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, 28, docs[0].Size)
	assert.Equal(t, 1, docs[0].Records)
}

func TestArchive_Errors(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "archive", "get", "not-a-ksuid")
	assert.Error(t, err)

	_, err = env.run(t, "archive", "get", "2cVmCbJ2Q3pF3sZrNQ5G6ydRWUj", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}
