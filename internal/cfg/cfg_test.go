package cfg

import (
	"flag"
	"strings"
	"testing"
	"time"
)

func wantErrContains(t *testing.T, err error, sub string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error containing %q, got <nil>", sub)
	}
	if !strings.Contains(err.Error(), sub) {
		t.Fatalf("error %q does not contain %q", err.Error(), sub)
	}
}

// newTestConfig registers flags on a fresh FlagSet, parses the given args,
// and returns the resulting App. This isolates each test from flag.CommandLine.
func newTestConfig(t *testing.T, args []string) App {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var c App
	Register(fs, &c)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("flag parse: %v", err)
	}
	return c
}

func TestRegister_Defaults(t *testing.T) {
	c := newTestConfig(t, nil)

	if !c.LogJSON {
		t.Error("LogJSON: want true")
	}
	if c.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", c.LogLevel)
	}
	if c.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d, want 8080", c.HTTPPort)
	}
	if c.AdminPort != 9000 {
		t.Errorf("AdminPort = %d, want 9000", c.AdminPort)
	}
	if c.MaxFileBytes != 50*1024*1024 {
		t.Errorf("MaxFileBytes = %d, want 50MiB", c.MaxFileBytes)
	}
	if c.FetchTimeout != 60*time.Second {
		t.Errorf("FetchTimeout = %s, want 60s", c.FetchTimeout)
	}
	if c.SignedPathPrefix != "/storage/v1/object/sign/" {
		t.Errorf("SignedPathPrefix = %q", c.SignedPathPrefix)
	}
	if c.ConvertConcurrency != 4 {
		t.Errorf("ConvertConcurrency = %d, want 4", c.ConvertConcurrency)
	}
	if c.StorageOrigin != "" {
		t.Errorf("StorageOrigin = %q, want empty", c.StorageOrigin)
	}
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	c := newTestConfig(t, nil)
	if err := Validate(c); err != nil {
		t.Fatalf("Validate(defaults): %v", err)
	}
}

func TestValidate_EmptyStorageOriginAllowed(t *testing.T) {
	// fail-closed at request time, not at startup
	c := newTestConfig(t, nil)
	c.StorageOrigin = ""
	if err := Validate(c); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidate_BadPorts(t *testing.T) {
	c := newTestConfig(t, nil)
	c.HTTPPort = 0
	wantErrContains(t, Validate(c), "HTTP_PORT")

	c = newTestConfig(t, nil)
	c.AdminPort = 70000
	wantErrContains(t, Validate(c), "ADMIN_PORT")

	c = newTestConfig(t, nil)
	c.AdminPort = c.HTTPPort
	wantErrContains(t, Validate(c), "must differ")
}

func TestValidate_BadLogLevel(t *testing.T) {
	c := newTestConfig(t, nil)
	c.LogLevel = "loud"
	wantErrContains(t, Validate(c), "LOG_LEVEL")
}

func TestValidate_IngestBounds(t *testing.T) {
	c := newTestConfig(t, nil)
	c.MaxFileBytes = 0
	wantErrContains(t, Validate(c), "MAX_FILE_BYTES")

	c = newTestConfig(t, nil)
	c.FetchTimeout = 100 * time.Millisecond
	wantErrContains(t, Validate(c), "FETCH_TIMEOUT")

	c = newTestConfig(t, nil)
	c.ConvertConcurrency = 0
	wantErrContains(t, Validate(c), "CONVERT_CONCURRENCY")

	c = newTestConfig(t, nil)
	c.SignedPathPrefix = "storage/v1/"
	wantErrContains(t, Validate(c), "SIGNED_PATH_PREFIX")
}

func TestValidate_PyroscopeRequirements(t *testing.T) {
	c := newTestConfig(t, nil)
	c.EnablePyroscope = true
	wantErrContains(t, Validate(c), "PYRO_SERVER")

	c.PyroServer = "not a url"
	wantErrContains(t, Validate(c), "PYRO_SERVER must be a URL")

	c.PyroServer = "http://pyro.internal:4040"
	wantErrContains(t, Validate(c), "PYRO_TENANT")

	c.PyroTenantID = "team-a"
	if err := Validate(c); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidate_TracingRequirements(t *testing.T) {
	c := newTestConfig(t, nil)
	c.EnableTracing = true
	wantErrContains(t, Validate(c), "OTLP_ENDPOINT")

	c.OTLPEndpoint = "no-port"
	wantErrContains(t, Validate(c), "host:port")

	c.OTLPEndpoint = "localhost:4317"
	if err := Validate(c); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidate_JoinsMultipleErrors(t *testing.T) {
	c := newTestConfig(t, nil)
	c.HTTPPort = -1
	c.MaxFileBytes = -5
	err := Validate(c)
	wantErrContains(t, err, "HTTP_PORT")
	wantErrContains(t, err, "MAX_FILE_BYTES")
}

func TestFillFromEnv_SetsUnsetFlags(t *testing.T) {
	t.Setenv("MDTEST_STORAGE_ORIGIN", "https://proj.supabase.co")
	t.Setenv("MDTEST_MAX_FILE_BYTES", "1048576")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var c App
	Register(fs, &c)
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse: %v", err)
	}

	FillFromEnv(fs, "MDTEST_", nil)

	if c.StorageOrigin != "https://proj.supabase.co" {
		t.Errorf("StorageOrigin = %q", c.StorageOrigin)
	}
	if c.MaxFileBytes != 1048576 {
		t.Errorf("MaxFileBytes = %d", c.MaxFileBytes)
	}
}

func TestFillFromEnv_CLIWins(t *testing.T) {
	t.Setenv("MDTEST_HTTP_PORT", "9999")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var c App
	Register(fs, &c)
	if err := fs.Parse([]string{"-http-port", "8088"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	var logged []string
	FillFromEnv(fs, "MDTEST_", func(f string, args ...any) {
		logged = append(logged, f)
	})

	if c.HTTPPort != 8088 {
		t.Errorf("HTTPPort = %d, want cli value 8088", c.HTTPPort)
	}
	if len(logged) == 0 {
		t.Error("expected an override log line")
	}
}

func TestFillFromEnv_InvalidEnvIgnored(t *testing.T) {
	t.Setenv("MDTEST_HTTP_PORT", "not-a-number")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var c App
	Register(fs, &c)
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse: %v", err)
	}

	FillFromEnv(fs, "MDTEST_", nil)

	if c.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d, want default 8080 after invalid env", c.HTTPPort)
	}
}
