package exportpprof

import (
	"fmt"
	"io"

	"github.com/coral-mesh/deallocprof/deallocz"
)

// WriteTo builds a pprof profile from p and writes its gzip-compressed
// protobuf encoding to w, the format `go tool pprof` reads directly.
func WriteTo(w io.Writer, p *deallocz.Profile) error {
	prof, err := Build(p)
	if err != nil {
		return err
	}
	if err := prof.Write(w); err != nil {
		return fmt.Errorf("exportpprof: write profile: %w", err)
	}
	return nil
}
