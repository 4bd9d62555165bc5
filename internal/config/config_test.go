package config

import "testing"

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ASGN_FACULTY_ROOT", "/srv/fac")
	t.Setenv("ASGN_MAKE", "gmake")
	t.Setenv("ASGN_LOG_LEVEL", "debug")

	cfg := Load()
	if cfg.FacultyRoot != "/srv/fac" || cfg.MakeCommand != "gmake" || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestGetEnvFallback(t *testing.T) {
	t.Setenv("ASGN_TEST_KEY", "set")
	if got := getEnv("ASGN_TEST_KEY", "fallback"); got != "set" {
		t.Fatalf("got %q", got)
	}
	if got := getEnv("ASGN_TEST_KEY_ABSENT", "fallback"); got != "fallback" {
		t.Fatalf("got %q", got)
	}
}
