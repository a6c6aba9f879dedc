package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

type testOptions struct {
	Config string `help:"Config file path"`

	StringField   string        `toml:"test.string_field" env:"STRING_FIELD"`
	BoolField     bool          `toml:"test.bool_field" env:"BOOL_FIELD"`
	IntField      int           `toml:"test.int_field" env:"INT_FIELD"`
	FloatField    float64       `toml:"test.float_field" env:"FLOAT_FIELD"`
	DurationField time.Duration `toml:"test.duration_field" env:"DURATION_FIELD"`
	SliceField    []string      `toml:"test.slice_field" env:"SLICE_FIELD"`
	NestedString  string        `toml:"nested.deep.value" env:"NESTED_VALUE"`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const testTOML = `
[test]
string_field = "hello world"
bool_field = true
int_field = 42
float_field = 2.5
duration_field = "250ms"
slice_field = ["a", "b"]

[nested.deep]
value = "nested value"
`

func TestLoadConfigFromTOML(t *testing.T) {
	opts := &testOptions{Config: writeFile(t, "config.toml", testTOML)}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	want := testOptions{
		Config:        opts.Config,
		StringField:   "hello world",
		BoolField:     true,
		IntField:      42,
		FloatField:    2.5,
		DurationField: 250 * time.Millisecond,
		SliceField:    []string{"a", "b"},
		NestedString:  "nested value",
	}
	if !reflect.DeepEqual(*opts, want) {
		t.Errorf("got %+v\nwant %+v", *opts, want)
	}
}

func TestLoadConfigIntegerAsFloat(t *testing.T) {
	opts := &testOptions{Config: writeFile(t, "config.toml", "[test]\nfloat_field = 20\n")}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatal(err)
	}
	if opts.FloatField != 20 {
		t.Errorf("FloatField = %v, want 20", opts.FloatField)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	t.Setenv("REMOTECAM_STRING_FIELD", "from env")
	t.Setenv("REMOTECAM_FLOAT_FIELD", "7.25")
	t.Setenv("REMOTECAM_DURATION_FIELD", "2s")
	t.Setenv("REMOTECAM_SLICE_FIELD", "x, y ,z")

	opts := &testOptions{Config: writeFile(t, "config.toml", testTOML)}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatal(err)
	}

	if opts.StringField != "from env" {
		t.Errorf("StringField = %q", opts.StringField)
	}
	if opts.FloatField != 7.25 {
		t.Errorf("FloatField = %v", opts.FloatField)
	}
	if opts.DurationField != 2*time.Second {
		t.Errorf("DurationField = %v", opts.DurationField)
	}
	if !reflect.DeepEqual(opts.SliceField, []string{"x", "y", "z"}) {
		t.Errorf("SliceField = %v", opts.SliceField)
	}
	if opts.IntField != 42 {
		t.Errorf("IntField = %d, file value should survive", opts.IntField)
	}
}

func TestLoadConfigCLIWins(t *testing.T) {
	t.Setenv("REMOTECAM_INT_FIELD", "7")

	opts := &testOptions{Config: writeFile(t, "config.toml", testTOML)}
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().IntVar(&opts.IntField, "int-field", 0, "")
	cmd.Flags().StringVar(&opts.StringField, "string-field", "", "")
	if err := cmd.Flags().Parse([]string{"--int-field=99"}); err != nil {
		t.Fatal(err)
	}

	if err := LoadConfig(opts, cmd); err != nil {
		t.Fatal(err)
	}
	if opts.IntField != 99 {
		t.Errorf("IntField = %d, want CLI value 99", opts.IntField)
	}
	if opts.StringField != "hello world" {
		t.Errorf("StringField = %q, unchanged flag should take the file value", opts.StringField)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
		env  map[string]string
	}{
		{"invalid toml", "[test\n", nil},
		{"type mismatch", "[test]\nint_field = \"many\"\n", nil},
		{"bad duration", "[test]\nduration_field = \"soon\"\n", nil},
		{"bad env float", "", map[string]string{"REMOTECAM_FLOAT_FIELD": "fast"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			opts := &testOptions{Config: writeFile(t, "config.toml", tt.toml)}
			if err := LoadConfig(opts, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	opts := &testOptions{Config: filepath.Join(t.TempDir(), "absent.toml"), IntField: 3}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
	if opts.IntField != 3 {
		t.Errorf("IntField = %d, default should survive", opts.IntField)
	}
}

func TestFieldNameToFlag(t *testing.T) {
	tests := map[string]string{
		"Port":          "port",
		"LoggingLevel":  "logging-level",
		"CameraTimeout": "camera-timeout",
		"LoggingAPI":    "logging-api",
		"HTTPPort":      "http-port",
		"ControlMS":     "control-ms",
	}
	for in, want := range tests {
		if got := fieldNameToFlag(in); got != want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadLoggingConfig(t *testing.T) {
	path := writeFile(t, "config.toml", `
[logging]
level = "debug"
format = "json"
producer = "warn"
transport = "error"
`)
	cfg := LoadLoggingConfig(path)
	if cfg.Level != "debug" || cfg.Format != "json" {
		t.Errorf("level/format = %s/%s", cfg.Level, cfg.Format)
	}
	if cfg.Modules["producer"] != "warn" || cfg.Modules["transport"] != "error" {
		t.Errorf("modules = %v", cfg.Modules)
	}

	if def := LoadLoggingConfig(""); def.Level != "info" || def.Format != "text" {
		t.Errorf("defaults = %+v", def)
	}
}
