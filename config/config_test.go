package config

import "testing"

func TestGetSessionSecretFromEnv(t *testing.T) {
	t.Setenv("PULMO_SESSION_SECRET", "configured-secret")
	if got := GetSessionSecret(); got != "configured-secret" {
		t.Errorf("GetSessionSecret() = %q, expected env value", got)
	}
}

func TestGetSessionSecretGeneratedFallback(t *testing.T) {
	t.Setenv("PULMO_SESSION_SECRET", "")

	first := GetSessionSecret()
	if len(first) != 32 {
		t.Fatalf("generated secret length = %d, expected 32", len(first))
	}
	// stable within the process so all cookies verify against one key
	if second := GetSessionSecret(); second != first {
		t.Error("generated secret not stable across calls")
	}
}
