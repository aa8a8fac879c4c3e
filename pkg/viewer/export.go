package viewer

import (
	"context"
	"time"

	"github.com/recera/tmapview/pkg/scheduler"
)

// DefaultExportScale is the zoom factor applied while an export is rendered
const DefaultExportScale = 2.0

// ExportToken identifies a pending export. Its context is cancelled when the
// export completes or is cancelled.
type ExportToken struct {
	ID    uint64
	Scale float64

	ctx    context.Context
	cancel context.CancelFunc
	zoom   float64
}

// Context is done once the export has been completed or cancelled
func (t *ExportToken) Context() context.Context {
	return t.ctx
}

// BeginExport scales the zoom by scale for a high resolution capture and
// returns the token that restores it. Only one export can be pending.
func (v *Viewer) BeginExport(ctx context.Context, scale float64) (*ExportToken, error) {
	if v.export != nil {
		return nil, ErrExportPending
	}
	if scale <= 0 {
		scale = DefaultExportScale
	}
	v.exportSeq++
	t := &ExportToken{ID: v.exportSeq, Scale: scale, zoom: v.camera.Zoom()}
	t.ctx, t.cancel = context.WithCancel(ctx)
	v.export = t

	v.log.Debug().Uint64("export", t.ID).Float64("scale", scale).Msg("export started")
	v.camera.SetZoom(t.zoom * scale)
	return t, nil
}

// CompleteExport restores the zoom saved by BeginExport and recomputes the
// watchers against it.
func (v *Viewer) CompleteExport(t *ExportToken) error {
	if t == nil || v.export != t {
		return ErrStaleExport
	}
	v.finishExport(t)
	v.log.Debug().Uint64("export", t.ID).Msg("export completed")
	return nil
}

// CancelExport abandons a pending export. Stale tokens are ignored.
func (v *Viewer) CancelExport(t *ExportToken) {
	if t == nil || v.export != t {
		return
	}
	v.finishExport(t)
	v.log.Debug().Uint64("export", t.ID).Msg("export cancelled")
}

func (v *Viewer) finishExport(t *ExportToken) {
	v.export = nil
	t.cancel()
	v.camera.SetZoom(t.zoom)
	if err := v.watchers.RecomputeAll(); err != nil {
		v.fail(err, "export restore")
	}
}

// ExportPending returns the pending export token
func (v *Viewer) ExportPending() (*ExportToken, bool) {
	return v.export, v.export != nil
}

// ScheduleExport begins an export and runs capture on the loop after delay,
// completing the export afterwards. Cancelling the returned task before it
// fires leaves the export pending; callers then use CancelExport. It must be
// called from the loop that owns v.
func (v *Viewer) ScheduleExport(loop *scheduler.Scheduler, scale float64, delay time.Duration, capture func(*ExportToken) error) (*ExportToken, *scheduler.Task, error) {
	t, err := v.BeginExport(context.Background(), scale)
	if err != nil {
		return nil, nil, err
	}
	task := loop.After(delay, func() {
		if t.ctx.Err() != nil {
			return
		}
		if capture != nil {
			if err := capture(t); err != nil {
				v.log.Error().Err(err).Uint64("export", t.ID).Msg("export capture failed")
			}
		}
		_ = v.CompleteExport(t)
	})
	return t, task, nil
}
