package main

import (
	"context"
	"fmt"

	"github.com/philipparndt/stlcut/internal/job"
	"github.com/philipparndt/stlcut/internal/loader"
	"github.com/philipparndt/stlcut/internal/store"
	"github.com/philipparndt/stlcut/pkg/cut"
	"github.com/philipparndt/stlcut/pkg/cutter"
	"github.com/philipparndt/stlcut/pkg/mesh"
)

// jobRequest loads the input of a file-based job into a pipeline request
func jobRequest(ctx context.Context, j *job.Job) (cut.Request, error) {
	planes, err := j.CutPlanes()
	if err != nil {
		return cut.Request{}, err
	}
	mat, err := j.Matrix()
	if err != nil {
		return cut.Request{}, err
	}
	m, err := newLoader().LoadMesh(ctx, j.InputPath())
	if err != nil {
		return cut.Request{}, err
	}
	name := j.Name
	if name == "" {
		name = m.Name
	}
	return cut.Request{Name: name, Mesh: m, Transform: mat, Planes: planes}, nil
}

// runJob executes one job and writes its outputs. Outputs are written for
// partial results too, as long as at least one plane was applied.
func runJob(ctx context.Context, j *job.Job) (*cut.Result, error) {
	if j.Record != "" {
		return runRecordJob(ctx, j)
	}

	req, err := jobRequest(ctx, j)
	if err != nil {
		return nil, err
	}
	result, runErr := newPipeline().Run(ctx, req)
	if runErr == nil || result.Applied > 0 {
		if err := writeJobOutputs(j, result.Mesh, req.Planes); err != nil {
			return result, err
		}
	}
	return result, runErr
}

func runRecordJob(ctx context.Context, j *job.Job) (*cut.Result, error) {
	svc := newService()
	planes, err := j.CutPlanes()
	if err != nil {
		return nil, err
	}
	mat, err := j.Matrix()
	if err != nil {
		return nil, err
	}
	if mat != nil {
		if _, err := svc.PlaceOrigin(ctx, j.Record, *mat); err != nil {
			return nil, err
		}
	}

	if len(planes) == 0 {
		r, err := svc.Store().Get(ctx, j.Record)
		if err != nil {
			return nil, err
		}
		latest, _ := r.Latest()
		m, err := svc.Mesh(ctx, j.Record, latest)
		if err != nil {
			return nil, err
		}
		return nil, writeJobOutputs(j, m, nil)
	}

	_, result, cutErr := svc.Cut(ctx, j.Record, planes)
	if result != nil && (cutErr == nil || result.Applied > 0) {
		if err := writeJobOutputs(j, result.Mesh, planes); err != nil {
			return result, err
		}
	}
	return result, cutErr
}

func writeJobOutputs(j *job.Job, m *mesh.Mesh, planes []cutter.Plane) error {
	if out := j.OutputPath(); out != "" {
		if err := loader.Save(out, m, j.OutputFormat()); err != nil {
			return err
		}
		logger.Info("mesh written", "job", j.Name, "path", out)
	}
	if preview := j.PreviewPath(); preview != "" {
		if err := writePreview(preview, m, planes); err != nil {
			return fmt.Errorf("preview: %w", err)
		}
		logger.Info("preview written", "job", j.Name, "path", preview)
	}
	return nil
}

// latestArtifact is the artifact shown for a record by default
func latestArtifact(r *store.Record) store.Artifact {
	a, ok := r.Latest()
	if !ok {
		return store.ArtifactOrigin
	}
	return a
}
