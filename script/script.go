// Package script replays editing scripts against an editor session. A script is a JSON array of
// steps; each step is one user action on the map surface or one of undo, redo and save.
package script

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"map-editor/editor"
	"map-editor/logger"
	"map-editor/models"
)

const (
	OpCreateArea     = "create-area"
	OpCreateLandmark = "create-landmark"
	OpUpdateArea     = "update-area"
	OpUpdateLandmark = "update-landmark"
	OpSetBoundary    = "set-boundary"
	OpMoveLandmark   = "move-landmark"
	OpDeleteArea     = "delete-area"
	OpDeleteLandmark = "delete-landmark"
	OpUploadImage    = "upload-image"
	OpSelect         = "select"
	OpUndo           = "undo"
	OpRedo           = "redo"
	OpSave           = "save"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Step is one scripted action. Which fields are read depends on Op.
//
// Records created by the script can be named with As and referenced later as "$name";
// the reference follows the record when a save replaces its temporary id.
type Step struct {
	Op string `json:"op"`
	ID string `json:"id,omitempty"`
	As string `json:"as,omitempty"`

	Area          *models.AreaRecord     `json:"area,omitempty"`
	Landmark      *models.LandmarkRecord `json:"landmark,omitempty"`
	AreaPatch     *models.AreaPatch      `json:"areaPatch,omitempty"`
	LandmarkPatch *models.LandmarkPatch  `json:"landmarkPatch,omitempty"`
	Boundary      models.Ring            `json:"boundary,omitempty"`
	Lat           *float64               `json:"lat,omitempty"`
	Lng           *float64               `json:"lng,omitempty"`
	File          string                 `json:"file,omitempty"`
}

// Parse strictly decodes a script
func Parse(data []byte) ([]Step, error) {
	var steps []Step
	if err := models.DecodeStrict(bytes.NewReader(data), &steps); err != nil {
		return nil, fmt.Errorf("failed to decode script: %w", err)
	}
	for i, step := range steps {
		if step.Op == "" {
			return nil, fmt.Errorf("step %d: missing op", i+1)
		}
	}
	return steps, nil
}

// Report summarizes a run
type Report struct {
	Steps int
	Saves []editor.SaveResult
	// Refs maps every script name to the record id it ends up with
	Refs map[string]string
}

// Runner replays steps against one session
type Runner struct {
	session  *editor.Session
	refs     map[string]string
	baseDir  string
	readFile func(string) ([]byte, error)
	logger   *slog.Logger
}

// NewRunner creates a runner for session. Image paths are resolved against baseDir.
func NewRunner(session *editor.Session, baseDir string) *Runner {
	return &Runner{
		session:  session,
		refs:     map[string]string{},
		baseDir:  baseDir,
		readFile: os.ReadFile,
		logger:   logger.L(),
	}
}

// Run executes steps in order and stops at the first failing one
func (r *Runner) Run(ctx context.Context, steps []Step) (Report, error) {
	report := Report{}
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return r.finish(report), err
		}
		result, saved, err := r.apply(ctx, step)
		if saved {
			report.Saves = append(report.Saves, result)
			r.remap(result.Created)
		}
		if err != nil {
			r.logger.Error("script_step_failed", "step", i+1, "op", step.Op, "err", err)
			return r.finish(report), fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
		report.Steps++
		r.logger.Debug("script_step", "step", i+1, "op", step.Op)
	}
	return r.finish(report), nil
}

func (r *Runner) apply(ctx context.Context, step Step) (editor.SaveResult, bool, error) {
	s := r.session
	switch step.Op {
	case OpCreateArea:
		if step.Area == nil {
			return editor.SaveResult{}, false, errors.New("missing area")
		}
		created := s.CreateArea(*step.Area)
		r.name(step.As, created.ID)
	case OpCreateLandmark:
		if step.Landmark == nil {
			return editor.SaveResult{}, false, errors.New("missing landmark")
		}
		created := s.CreateLandmark(*step.Landmark)
		r.name(step.As, created.ID)
	case OpUpdateArea:
		if step.AreaPatch == nil {
			return editor.SaveResult{}, false, errors.New("missing areaPatch")
		}
		_, err := s.UpdateArea(r.resolve(step.ID), *step.AreaPatch)
		return editor.SaveResult{}, false, err
	case OpUpdateLandmark:
		if step.LandmarkPatch == nil {
			return editor.SaveResult{}, false, errors.New("missing landmarkPatch")
		}
		_, err := s.UpdateLandmark(r.resolve(step.ID), *step.LandmarkPatch)
		return editor.SaveResult{}, false, err
	case OpSetBoundary:
		if len(step.Boundary) == 0 {
			return editor.SaveResult{}, false, errors.New("missing boundary")
		}
		return editor.SaveResult{}, false, s.DragAreaBoundary(r.resolve(step.ID), step.Boundary)
	case OpMoveLandmark:
		if step.Lat == nil || step.Lng == nil {
			return editor.SaveResult{}, false, errors.New("missing lat or lng")
		}
		return editor.SaveResult{}, false, s.DragLandmark(r.resolve(step.ID), *step.Lat, *step.Lng)
	case OpDeleteArea:
		return editor.SaveResult{}, false, s.DeleteArea(ctx, r.resolve(step.ID))
	case OpDeleteLandmark:
		return editor.SaveResult{}, false, s.DeleteLandmark(ctx, r.resolve(step.ID))
	case OpUploadImage:
		if step.File == "" {
			return editor.SaveResult{}, false, errors.New("missing file")
		}
		path := step.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(r.baseDir, path)
		}
		data, err := r.readFile(path)
		if err != nil {
			return editor.SaveResult{}, false, err
		}
		_, err = s.UploadLandmarkImage(ctx, r.resolve(step.ID), filepath.Base(path), data)
		return editor.SaveResult{}, false, err
	case OpSelect:
		if !s.Select(r.resolve(step.ID)) {
			return editor.SaveResult{}, false, fmt.Errorf("record %s: %w", step.ID, editor.ErrRecordNotFound)
		}
	case OpUndo:
		if !s.Undo() {
			return editor.SaveResult{}, false, ErrNothingToUndo
		}
	case OpRedo:
		if !s.Redo() {
			return editor.SaveResult{}, false, ErrNothingToRedo
		}
	case OpSave:
		result, err := s.Save(ctx)
		return result, true, err
	default:
		return editor.SaveResult{}, false, fmt.Errorf("unknown op %q", step.Op)
	}
	return editor.SaveResult{}, false, nil
}

func (r *Runner) name(as, id string) {
	if as != "" {
		r.refs[as] = id
	}
}

// resolve turns "$name" into the id currently bound to name
func (r *Runner) resolve(id string) string {
	if name, ok := strings.CutPrefix(id, "$"); ok {
		if bound, ok := r.refs[name]; ok {
			return bound
		}
	}
	return id
}

func (r *Runner) remap(created map[string]string) {
	for name, id := range r.refs {
		if permanent, ok := created[id]; ok {
			r.refs[name] = permanent
		}
	}
}

func (r *Runner) finish(report Report) Report {
	report.Refs = make(map[string]string, len(r.refs))
	for name, id := range r.refs {
		report.Refs[name] = id
	}
	return report
}
