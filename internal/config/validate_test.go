package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/wirereport/wirereport/internal/core"
)

type nopModule struct{}

func (nopModule) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{ID: "source.test", New: func() core.Module { return nopModule{} }}
}

func TestMain(m *testing.M) {
	core.RegisterModule(nopModule{})
	os.Exit(m.Run())
}

func moduleMap(ids ...string) map[string]yaml.Node {
	m := make(map[string]yaml.Node)
	for _, id := range ids {
		m[id] = yaml.Node{}
	}
	return m
}

func TestValidateAcceptsMinimalConfig(t *testing.T) {

	cfg := &Config{Version: "1", Modules: moduleMap("source.test")}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsMissingVersion(t *testing.T) {

	cfg := &Config{Modules: moduleMap("source.test")}
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "version field is required") {
		t.Fatalf("err = %v, want version error", err)
	}
}

func TestValidateRejectsUnknownModule(t *testing.T) {

	cfg := &Config{Version: "1", Modules: moduleMap("source.test", "notify.bogus")}
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), `unknown module "notify.bogus"`) {
		t.Fatalf("err = %v, want unknown module error", err)
	}
}

func TestValidateReportingSection(t *testing.T) {

	cfg := &Config{
		Version: "1",
		Modules: moduleMap("source.test"),
		Reporting: ReportingConfig{
			Timeframes: map[string]TimeframeConfig{
				"1h":    {Schedule: "0 * * * *", Threshold: 5, Retention: 48},
				"bogus": {},
			},
		},
	}
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), `invalid timeframe "bogus"`) {
		t.Fatalf("err = %v, want timeframe error", err)
	}
}

func TestValidateRejectsBadCronSchedule(t *testing.T) {

	cfg := &Config{
		Version: "1",
		Modules: moduleMap("source.test"),
		Cleanup: CleanupConfig{Schedule: "not a cron"},
	}
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "invalid schedule") {
		t.Fatalf("err = %v, want schedule error", err)
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("WR_TEST_TOKEN", "secret-token")

	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `version: "1"
data_dir: ${WR_TEST_DATADIR:-/var/lib/wirereport}
modules:
  source.test:
    token: ${WR_TEST_TOKEN}
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "/var/lib/wirereport" {
		t.Fatalf("data_dir = %q, default was not applied", cfg.DataDir)
	}

	var mod struct {
		Token string `yaml:"token"`
	}
	node := cfg.Modules["source.test"]
	if err := node.Decode(&mod); err != nil {
		t.Fatalf("decode module config: %v", err)
	}
	if mod.Token != "secret-token" {
		t.Fatalf("token = %q, env var was not expanded", mod.Token)
	}
}

func TestLoadFailsOnUnresolvedVariable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := "version: \"1\"\nmodules:\n  source.test:\n    token: ${WR_TEST_MISSING_VAR}\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "unresolved variable: WR_TEST_MISSING_VAR") {
		t.Fatalf("err = %v, want unresolved variable error", err)
	}
}

func TestThresholdsAndRetention(t *testing.T) {
	r := ReportingConfig{Timeframes: map[string]TimeframeConfig{
		"10m": {Threshold: 3, Retention: 24},
		"1h":  {},
	}}

	thresholds := r.Thresholds()
	if len(thresholds) != 1 || thresholds["10m"] != 3 {
		t.Fatalf("thresholds = %v", thresholds)
	}
	retention := r.RetentionCounts()
	if len(retention) != 1 || retention["10m"] != 24 {
		t.Fatalf("retention = %v", retention)
	}
}
