package convert

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/geobench/geobench/internal/exec"
	"github.com/geobench/geobench/pkg/errors"
	"github.com/geobench/geobench/pkg/utils"
)

// gpqPass normalizes a Parquet file into valid GeoParquet with the gpq
// command-line tool. The conversion runs to a sibling temp file which then
// replaces the original, so a failed pass never leaves a half-written
// output behind.
func gpqPass(ctx context.Context, logger *utils.Logger, recorder exec.ToolRecorder,
	gpqPath, target string, timeout time.Duration) error {

	if gpqPath == "" {
		gpqPath = "gpq"
	}
	tmp := filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+".gpq")

	err := exec.Run(ctx, logger, exec.Spec{
		Path:     gpqPath,
		Args:     []string{"convert", target, tmp},
		Timeout:  timeout,
		Recorder: recorder,
	})
	if err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return errors.New(errors.ErrCodeConversionFailed, "cannot replace output with normalized file").
			WithComponent("convert").WithCause(err)
	}
	return nil
}
