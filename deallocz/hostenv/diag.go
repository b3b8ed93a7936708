package hostenv

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
)

// Diagnostics summarizes the host CPU topology a CurrentCPU() reading is
// relative to. It exists for a CLI status line, never the sampling path.
type Diagnostics struct {
	LogicalCores int
	ModelName    string
}

// ReadDiagnostics queries the host via gopsutil. Safe to call rarely; not
// meant for any hot path.
func ReadDiagnostics(ctx context.Context) (Diagnostics, error) {
	counts, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return Diagnostics{}, fmt.Errorf("hostenv: read cpu counts: %w", err)
	}

	info, err := cpu.InfoWithContext(ctx)
	if err != nil || len(info) == 0 {
		return Diagnostics{LogicalCores: counts}, nil
	}

	return Diagnostics{LogicalCores: counts, ModelName: info[0].ModelName}, nil
}
