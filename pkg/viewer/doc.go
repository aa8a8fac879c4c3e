// Package viewer keeps the selection, vertex watchers, color overrides and
// screen annotations of a point-cloud view in sync with its camera.
//
// A Viewer is created over one or more series, each bound to a point store
// and, for interactive series, a spatial index. The viewer subscribes to the
// camera's "updated" notification; on every change it re-projects the label
// anchors and selection indicators and delivers all registered watchers.
//
// The package does no rendering and no picking. Hosts implement Camera,
// PointStore, SpatialIndex and Annotator (see package host for reference
// implementations) and forward pointer events through HandleHover and
// HandleClick.
//
// A Viewer is single-threaded: all calls and all collaborator notifications
// must come from one event loop, such as a scheduler.Scheduler.
package viewer
