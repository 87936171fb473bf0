package telemetry

import (
	"testing"

	"tillcraft.ai/internal/sim/catalogs"
)

func mustCatalogs(t *testing.T) *catalogs.Catalogs {
	t.Helper()
	cats, err := catalogs.Load("../../configs")
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	return cats
}
