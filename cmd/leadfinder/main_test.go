package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/shpitdev/leadfinder/internal/config"
	"github.com/shpitdev/leadfinder/internal/search"
	"github.com/shpitdev/leadfinder/internal/version"
)

const tableReply = `| Name | Category | Keywords | Email | Phone | Website | Address | Maps Link |
|---|---|---|---|---|---|---|---|
| Acme | Bakery | bread | N/A | 555-0100 | N/A | 1 Main St | N/A |`

func fakeFactory(gen search.GeneratorFunc) generatorFactory {
	return func(context.Context, config.Config, *zap.Logger) (search.Generator, error) {
		return gen, nil
	}
}

func run(t *testing.T, factory generatorFactory, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("LEADFINDER_CONFIG", "")
	t.Setenv("LOG_LEVEL", "error")

	cmd := newRootCmdWith(factory)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, _, err := run(t, nil, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, version.Current) {
		t.Fatalf("expected version %s in %q", version.Current, out)
	}
}

func TestSearchCmd_WritesCSVToStdout(t *testing.T) {
	var prompt string
	gen := search.GeneratorFunc(func(_ context.Context, p string) (string, error) {
		prompt = p
		return tableReply, nil
	})

	out, _, err := run(t, fakeFactory(gen), "search", "--keyword", "bakery", "--city", "Lyon", "--limit", "5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(prompt, "EXACTLY 5") {
		t.Fatalf("limit not used in prompt: %q", prompt)
	}
	want := "Name,Category,Keywords,Email,Phone,Website,Address,Maps Link\n" +
		`"Acme","Bakery","bread","","555-0100","","1 Main St","N/A"`
	if out != want {
		t.Fatalf("unexpected output:\n got: %q\nwant: %q", out, want)
	}
}

func TestSearchCmd_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		gen     search.GeneratorFunc
		wantErr string
	}{
		{
			name:    "missing criteria",
			args:    []string{"search", "--keyword", "bakery"},
			wantErr: "keyword and city are required",
		},
		{
			name: "model failure",
			args: []string{"search", "--instructions", "bakeries"},
			gen: func(context.Context, string) (string, error) {
				return "", errors.New("upstream 500")
			},
			wantErr: "failed to fetch leads",
		},
		{
			name: "nothing parsed",
			args: []string{"search", "--instructions", "bakeries"},
			gen: func(context.Context, string) (string, error) {
				return "nothing here", nil
			},
			wantErr: "could not parse any leads",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := run(t, fakeFactory(tc.gen), tc.args...)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestSearchThenEnrichCmd(t *testing.T) {
	dir := t.TempDir()
	leadsPath := filepath.Join(dir, "leads.csv")
	enrichedPath := filepath.Join(dir, "enriched.csv")

	gen := search.GeneratorFunc(func(_ context.Context, p string) (string, error) {
		if !strings.Contains(p, "- ID: ") {
			return tableReply, nil
		}
		id := strings.Fields(p[strings.Index(p, "- ID: ")+len("- ID: "):])[0]
		return "| ID | Email | Website |\n|---|---|---|\n| " + id + " | hello@acme.test | https://acme.test |", nil
	})

	if _, _, err := run(t, fakeFactory(gen), "search", "--instructions", "bakeries in Lyon", "-o", leadsPath); err != nil {
		t.Fatalf("search: %v", err)
	}
	_, stderr, err := run(t, fakeFactory(gen), "enrich", "-i", leadsPath, "-o", enrichedPath)
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if !strings.Contains(stderr, "enriched 1 leads") {
		t.Fatalf("unexpected stderr: %q", stderr)
	}

	b, err := os.ReadFile(enrichedPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(b), `"Acme","Bakery","bread","hello@acme.test","555-0100","https://acme.test"`) {
		t.Fatalf("unexpected enriched csv:\n%s", b)
	}
}

func TestEnrichCmd_RequiresFlags(t *testing.T) {
	_, _, err := run(t, fakeFactory(nil), "enrich")
	if err == nil || !strings.Contains(err.Error(), "required flag") {
		t.Fatalf("expected required flag error, got %v", err)
	}
}

func TestGeminiGeneratorRequiresKey(t *testing.T) {
	_, err := newGeminiGenerator(context.Background(), config.Default(), zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "etcd")
	_, _, err := run(t, fakeFactory(nil), "search", "--instructions", "x")
	if err == nil || !strings.Contains(err.Error(), "invalid session backend") {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestSearchCmd_ShowRaw(t *testing.T) {
	gen := search.GeneratorFunc(func(context.Context, string) (string, error) {
		return "Only found this: **Acme Bakery** on Main St.", nil
	})
	_, stderr, err := run(t, fakeFactory(gen), "search", "--instructions", "bakeries", "--show-raw")
	if err == nil {
		t.Fatalf("expected nothing-parsed error")
	}
	if !strings.Contains(stderr, "Acme Bakery") {
		t.Fatalf("expected raw reply on stderr, got %q", stderr)
	}
}
