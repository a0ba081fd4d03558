package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/borges12matheus/pipeline-aws-price/extractor/aws"
	"github.com/borges12matheus/pipeline-aws-price/extractor/sink"
)

func TestSplitAndTrim_Empty(t *testing.T) {
	result := splitAndTrim("")
	if len(result) != 0 {
		t.Errorf("expected empty slice, got %v", result)
	}
}

func TestSplitAndTrim_Single(t *testing.T) {
	result := splitAndTrim("us-east-1")
	if len(result) != 1 || result[0] != "us-east-1" {
		t.Errorf("expected [us-east-1], got %v", result)
	}
}

func TestSplitAndTrim_Multiple(t *testing.T) {
	result := splitAndTrim("us-east-1,sa-east-1,eu-west-1")
	if len(result) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(result))
	}
	expected := []string{"us-east-1", "sa-east-1", "eu-west-1"}
	for i, v := range expected {
		if result[i] != v {
			t.Errorf("element %d: expected %q, got %q", i, v, result[i])
		}
	}
}

func TestSplitAndTrim_Whitespace(t *testing.T) {
	result := splitAndTrim(" us-east-1 , , sa-east-1 ")
	if len(result) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(result))
	}
	if result[0] != "us-east-1" || result[1] != "sa-east-1" {
		t.Errorf("expected [us-east-1 sa-east-1], got %v", result)
	}
}

func TestCompileRegexes_Valid(t *testing.T) {
	regexes, err := compileRegexes([]string{"m5\\..*", "c5\\..*"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(regexes) != 2 {
		t.Errorf("expected 2 regexes, got %d", len(regexes))
	}
}

func TestCompileRegexes_Invalid(t *testing.T) {
	_, err := compileRegexes([]string{"[invalid"})
	if err == nil {
		t.Error("expected error for invalid regex, got nil")
	}
}

func TestCompileRegexes_Empty(t *testing.T) {
	regexes, err := compileRegexes([]string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(regexes) != 0 {
		t.Errorf("expected 0 regexes, got %d", len(regexes))
	}
}

func TestValidateOperatingSystems(t *testing.T) {
	valid := []string{"Linux", "RHEL", "SUSE", "Windows"}
	for _, os := range valid {
		t.Run("valid/"+os, func(t *testing.T) {
			if err := validateOperatingSystems([]string{os}); err != nil {
				t.Errorf("unexpected error for %q: %v", os, err)
			}
		})
	}

	invalid := []string{"macOS", "Ubuntu", "linux", ""}
	for _, os := range invalid {
		t.Run("invalid/"+os, func(t *testing.T) {
			if err := validateOperatingSystems([]string{os}); err == nil {
				t.Errorf("expected error for %q, got nil", os)
			}
		})
	}
}

func TestParseFilters(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    []aws.Filter
		wantErr bool
	}{
		{name: "none", input: nil, want: []aws.Filter{}},
		{
			name:  "single",
			input: []string{"productFamily=Compute Instance"},
			want:  []aws.Filter{{Field: "productFamily", Value: "Compute Instance"}},
		},
		{
			name:  "value with equals and commas",
			input: []string{"location = US East (N. Virginia)", "usagetype=a=b,c"},
			want: []aws.Filter{
				{Field: "location", Value: "US East (N. Virginia)"},
				{Field: "usagetype", Value: "a=b,c"},
			},
		},
		{name: "missing separator", input: []string{"productFamily"}, wantErr: true},
		{name: "empty field", input: []string{"=Compute"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFilters(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %v, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d filters, got %d", len(tt.want), len(got))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("filter %d: expected %+v, got %+v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestResolveDestination(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		format  string
		want    sink.Format
		wantErr bool
	}{
		{name: "inferred csv", out: defaultComputeOut, want: sink.FormatCSV},
		{name: "inferred parquet", out: defaultRawOut, want: sink.FormatParquet},
		{name: "explicit format wins", out: "data/prices.out", format: "Parquet", want: sink.FormatParquet},
		{name: "postgres dsn", out: "postgres://localhost/prices", want: sink.FormatPostgres},
		{name: "unknown format", out: "x.csv", format: "xlsx", wantErr: true},
		{name: "no output", out: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst, err := resolveDestination(tt.out, tt.format)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if dst.Format != tt.want || dst.Path != tt.out {
				t.Errorf("expected %s:%s, got %s", tt.want, tt.out, dst)
			}
		})
	}
}

func TestPageLimit(t *testing.T) {
	if got := pageLimit(0); got >= 0 {
		t.Errorf("expected 0 to mean unbounded, got %d", got)
	}
	if got := pageLimit(-5); got >= 0 {
		t.Errorf("expected negative to mean unbounded, got %d", got)
	}
	if got := pageLimit(3); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
}

func TestEnvFileFromArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "default", args: []string{"compute"}, want: defaultEnvFile},
		{name: "separate value", args: []string{"--env-file", "prod.env", "raw"}, want: "prod.env"},
		{name: "inline value", args: []string{"--log-level=debug", "--env-file=ci.env", "compute"}, want: "ci.env"},
		{name: "single dash", args: []string{"-env-file=x.env"}, want: "x.env"},
		{name: "after other flag values", args: []string{"--log-level", "debug", "--env-file", "dev.env", "raw"}, want: "dev.env"},
		{name: "after command is ignored", args: []string{"compute", "--env-file", "late.env"}, want: defaultEnvFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := envFileFromArgs(tt.args); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "AWS_PRICE_EXTRACT_TEST_NEW=from-file\nAWS_PRICE_EXTRACT_TEST_KEEP=from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Setenv("AWS_PRICE_EXTRACT_TEST_KEEP", "from-env")
	t.Cleanup(func() { os.Unsetenv("AWS_PRICE_EXTRACT_TEST_NEW") })

	if err := loadEnvFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("AWS_PRICE_EXTRACT_TEST_NEW"); got != "from-file" {
		t.Errorf("expected value from file, got %q", got)
	}
	if got := os.Getenv("AWS_PRICE_EXTRACT_TEST_KEEP"); got != "from-env" {
		t.Errorf("expected existing value to win, got %q", got)
	}
}

func TestLoadEnvFile_Missing(t *testing.T) {
	if err := loadEnvFile(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("expected missing env file to be ignored, got %v", err)
	}
}

// runApp executes the CLI without letting exit codes terminate the test binary.
func runApp(t *testing.T, args ...string) (int, error) {
	t.Helper()
	exitCode := 0
	orig := cli.OsExiter
	cli.OsExiter = func(code int) { exitCode = code }
	t.Cleanup(func() { cli.OsExiter = orig })

	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{appName}, args...))
	return exitCode, err
}

func TestApp_RejectsInvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown operating system", args: []string{"compute", "--operating-system", "macOS"}},
		{name: "invalid regex", args: []string{"compute", "--instance-regexes", "[bad"}},
		{name: "unknown format", args: []string{"compute", "--format", "xlsx"}},
		{name: "malformed filter", args: []string{"raw", "--filter", "productFamily"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := runApp(t, tt.args...)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if code != 2 {
				t.Errorf("expected exit code 2, got %d", code)
			}
		})
	}
}
