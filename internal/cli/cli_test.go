package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/clauseflag/internal/model"
	"github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

const contractSentence = "The Contractor shall indemnify the Sponsor for all claims whatsoever."

func writeWorkbook(t *testing.T, dir string) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	require.NoError(t, f.SetSheetName("Sheet1", "Indemnification"))
	rows := [][]interface{}{
		{"", "Common Problems", "Why", "1st response to Sponsor"},
		{"", "Contractor shall indemnify Sponsor for all claims", "unbounded liability"},
		{"", "Auburn Preferred Language"},
		{"", "Each party is responsible for its own negligence."},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Indemnification", cell, &r))
	}

	path := filepath.Join(dir, "tnc.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

// run executes the root command in an isolated home directory with fresh
// flag values and configuration. Caching is off unless the test enables it.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	if _, ok := os.LookupEnv("CLAUSEFLAG_CACHE_ENABLED"); !ok {
		t.Setenv("CLAUSEFLAG_CACHE_ENABLED", "false")
	}
	viper.Reset()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "clauseflag v"+Version+"\n", out)
}

func TestScanCommand(t *testing.T) {
	dir := t.TempDir()
	matrix := writeWorkbook(t, dir)
	doc := filepath.Join(dir, "contract.txt")
	require.NoError(t, os.WriteFile(doc, []byte("Work begins in June.\n"+contractSentence+"\n"), 0644))
	outDir := filepath.Join(dir, "reviews")

	out, err := run(t, "scan", matrix, doc, "-o", outDir, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, "Flagged:     1")

	text, err := os.ReadFile(filepath.Join(outDir, "flagged_contract.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(text), "Problem Category: Indemnification")
	assert.Contains(t, string(text), "Preferred Language: ['Each party is responsible for its own negligence.']")
	assert.Contains(t, string(text), "1st response to Sponsor: None")
	assert.True(t, strings.HasPrefix(string(text), "Work begins in June.\n"))

	_, err = os.Stat(filepath.Join(outDir, "flagged_contract.json"))
	assert.NoError(t, err)
}

func TestScanCommand_MissingDocument(t *testing.T) {
	dir := t.TempDir()
	matrix := writeWorkbook(t, dir)

	_, err := run(t, "scan", matrix, filepath.Join(dir, "nope.txt"), "-o", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RESOURCE_NOT_FOUND")
}

func TestMatrixCommand_YAML(t *testing.T) {
	dir := t.TempDir()
	matrix := writeWorkbook(t, dir)

	out, err := run(t, "matrix", matrix, "--yaml")
	require.NoError(t, err)

	var m model.Matrix
	require.NoError(t, yaml.Unmarshal([]byte(out), &m))
	require.Len(t, m.Categories, 1)
	c := m.Categories[0]
	assert.Equal(t, "Indemnification", c.Name)
	require.Len(t, c.Problems, 1)
	assert.Equal(t, "unbounded liability", *c.Problems[0].Why)
	assert.Nil(t, c.Problems[0].Response)
	assert.Equal(t, []string{"Each party is responsible for its own negligence."}, c.PreferredLanguage)
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clauseflag.yaml")

	out, err := run(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = run(t, "config", "init", "--config", path)
	assert.Error(t, err)

	t.Setenv("CLAUSEFLAG_ENGINE_THRESHOLD", "0.35")
	t.Setenv("OPENAI_API_KEY", "sk-secret")
	out, err = run(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "threshold: 0.35")
	assert.NotContains(t, out, "sk-secret")
	assert.Contains(t, out, "excluded_sheets:")
}

func TestBatchCommand_SameFileNames(t *testing.T) {
	dir := t.TempDir()
	matrix := writeWorkbook(t, dir)
	for _, sub := range []string{"a", "b"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", "contract.txt"), []byte(contractSentence), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b", "contract.txt"), []byte("Work begins in June."), 0644))
	list := filepath.Join(dir, "docs.list")
	require.NoError(t, os.WriteFile(list, []byte("a/contract.txt\nb/contract.txt\n"), 0644))
	outDir := filepath.Join(dir, "reviews")

	out, err := run(t, "batch", matrix, list, "-o", outDir, "--concurrency", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Success:   2")

	first, err := os.ReadFile(filepath.Join(outDir, "flagged_contract.txt"))
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(outDir, "flagged_contract-2.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(first), "Problem Category: Indemnification")
	assert.Equal(t, "Work begins in June.", string(second))
}

// llmServer fakes an OpenAI-compatible API and records the Authorization
// header of every request.
type llmServer struct {
	*httptest.Server
	mu    sync.Mutex
	auths []string
}

func newLLMServer(t *testing.T) *llmServer {
	t.Helper()
	s := &llmServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.auths = append(s.auths, r.Header.Get("Authorization"))
		s.mu.Unlock()

		if strings.HasSuffix(r.URL.Path, "/models") {
			_ = json.NewEncoder(w).Encode(openai.ModelsList{Models: []openai.Model{{ID: "test-model"}}})
			return
		}
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Model: "test-model",
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: "assistant", Content: "- Review the indemnity clause."},
			}},
		})
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *llmServer) authorizations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.auths...)
}

func scanWithSummary(t *testing.T, provider string) string {
	t.Helper()
	dir := t.TempDir()
	matrix := writeWorkbook(t, dir)
	doc := filepath.Join(dir, "contract.txt")
	require.NoError(t, os.WriteFile(doc, []byte(contractSentence), 0644))
	outDir := filepath.Join(dir, "reviews")

	_, err := run(t, "scan", matrix, doc, "-o", outDir, "--summary", provider)
	require.NoError(t, err)
	return filepath.Join(outDir, "flagged_contract.summary.md")
}

func TestScanCommand_OllamaDoesNotReceiveOpenAIKey(t *testing.T) {
	ollama := newLLMServer(t)
	t.Setenv("OPENAI_API_KEY", "sk-secret")
	t.Setenv("OLLAMA_BASE_URL", ollama.URL)

	summary := scanWithSummary(t, "ollama")

	_, err := os.Stat(summary)
	require.NoError(t, err)
	auths := ollama.authorizations()
	require.NotEmpty(t, auths)
	for _, a := range auths {
		assert.NotContains(t, a, "sk-secret")
	}
}

func TestScanCommand_OpenAIIgnoresOllamaBaseURL(t *testing.T) {
	ollama := newLLMServer(t)
	openaiAPI := newLLMServer(t)
	t.Setenv("OPENAI_API_KEY", "sk-secret")
	t.Setenv("OPENAI_BASE_URL", openaiAPI.URL)
	t.Setenv("OLLAMA_BASE_URL", ollama.URL)

	summary := scanWithSummary(t, "openai")

	_, err := os.Stat(summary)
	require.NoError(t, err)
	assert.Empty(t, ollama.authorizations())
	auths := openaiAPI.authorizations()
	require.NotEmpty(t, auths)
	for _, a := range auths {
		assert.Equal(t, "Bearer sk-secret", a)
	}
}

func TestCacheClear(t *testing.T) {
	dir := t.TempDir()
	matrix := writeWorkbook(t, dir)
	cacheDir := filepath.Join(dir, "cache")
	t.Setenv("CLAUSEFLAG_CACHE_ENABLED", "true")
	t.Setenv("CLAUSEFLAG_CACHE_DIR", cacheDir)

	cached := func() int {
		entries, err := filepath.Glob(filepath.Join(cacheDir, "*.json"))
		require.NoError(t, err)
		return len(entries)
	}

	_, err := run(t, "matrix", matrix)
	require.NoError(t, err)
	require.Equal(t, 1, cached())

	out, err := run(t, "cache", "clear", matrix)
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared cached")
	assert.Equal(t, 0, cached())

	_, err = run(t, "matrix", matrix)
	require.NoError(t, err)
	require.Equal(t, 1, cached())

	_, err = run(t, "cache", "clear")
	require.NoError(t, err)
	assert.Equal(t, 0, cached())

	_, err = run(t, "cache", "clear", filepath.Join(dir, "missing.xlsx"))
	assert.Error(t, err)
}

func TestNewLimiter_HostOverrides(t *testing.T) {
	limiter := newLimiter(model.RateLimitingConfig{
		RequestsPerSecond: 0.01,
		BurstSize:         1,
		Hosts: []model.HostRate{
			{Host: "localhost:11434", RequestsPerSecond: 0},
			{Host: "", RequestsPerSecond: 0},
		},
	})

	passes := func(endpoint string) bool {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		return limiter.Wait(ctx, endpoint) == nil
	}

	for i := 0; i < 3; i++ {
		assert.True(t, passes("http://localhost:11434/v1"), "call %d to the unthrottled host", i)
	}
	assert.True(t, passes("https://api.openai.com/v1"))
	assert.False(t, passes("https://api.openai.com/v1"))
}
