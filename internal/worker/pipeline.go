// Package worker implements the vetting worker pool: the pg_notify
// listener loop, advisory-lock dispatch, and the four-stage pipeline run
// against each claimed job.
package worker

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/skillreg/registry/internal/datastore"
	"github.com/skillreg/registry/internal/dcontext"
	"github.com/skillreg/registry/internal/metrics"
	"github.com/skillreg/registry/internal/objectstore"
	"github.com/skillreg/registry/internal/secretstore"
	"github.com/skillreg/registry/internal/skillpkg"
	"github.com/skillreg/registry/internal/worker/stages"
)

// Pipeline holds the dependencies every job's run needs.
type Pipeline struct {
	DB          *datastore.DB
	Store       objectstore.Store
	Secrets     secretstore.Store
	Bucket      string
	CASecretARN string
}

// Run executes the full vetting pipeline for jobID: download and unpack
// the artifact, run Stages 1 through 4 in order, and write the resulting
// terminal state. The first stage failure aborts the remaining stages.
func (p *Pipeline) Run(ctx context.Context, jobID uuid.UUID) error {
	logger := dcontext.GetLogger(ctx)

	in, err := p.DB.LoadPipelineInput(ctx, jobID)
	if err != nil {
		return fmt.Errorf("loading pipeline input: %w", err)
	}

	artifact, err := p.Store.Get(ctx, in.StoragePath)
	if err != nil {
		return fmt.Errorf("downloading artifact %s: %w", in.StoragePath, err)
	}

	tmpDir, err := skillpkg.UnpackToTempDir(artifact)
	if err != nil {
		return fmt.Errorf("unpacking artifact: %w", err)
	}

	runErr := p.runStages(ctx, in, tmpDir)
	if runErr == nil {
		if err := p.DB.CompleteJob(ctx, jobID, datastore.JobPass, "all stages passed"); err != nil {
			return err
		}
		metrics.ObserveJobOutcome(string(datastore.JobPass))
		logger.Infof("job %s completed successfully", jobID)
		return nil
	}

	status := datastore.JobFail
	if stages.IsYanked(runErr) {
		status = datastore.JobQuarantined
	}
	if err := p.DB.CompleteJob(ctx, jobID, status, runErr.Error()); err != nil {
		return err
	}
	metrics.ObserveJobOutcome(string(status))
	logger.Warnf("job %s pipeline error: %s", jobID, runErr)
	return nil
}

func (p *Pipeline) runStages(ctx context.Context, in datastore.JobPipelineInput, tmpDir string) error {
	if err := stageTimed("structure", func() error { return stages.CheckStructure(tmpDir) }); err != nil {
		return fmt.Errorf("Stage 1 failed: %w", err)
	}

	if err := stageTimed("content", func() error { return stages.CheckContent(tmpDir) }); err != nil {
		return fmt.Errorf("Stage 2 failed: %w", err)
	}

	existingNames, err := p.DB.ExistingPackageNames(ctx)
	if err != nil {
		return err
	}
	yankedRows, err := p.DB.YankedVersions(ctx)
	if err != nil {
		return err
	}
	yanked := make([][2]string, len(yankedRows))
	for i, yv := range yankedRows {
		yanked[i] = [2]string{yv.Name, yv.Version}
	}
	if err := stageTimed("safety", func() error {
		return stages.CheckSafety(in.PackageName, in.Version, existingNames, yanked)
	}); err != nil {
		return fmt.Errorf("Stage 3 failed: %w", err)
	}

	var sigPath string
	if err := stageTimed("signing", func() error {
		var signErr error
		sigPath, signErr = stages.RunSigning(ctx, in.SHA256, in.StoragePath, p.Store, p.Secrets, p.CASecretARN)
		return signErr
	}); err != nil {
		return fmt.Errorf("Stage 4 failed: %w", err)
	}

	if err := p.DB.SetVersionSigPath(ctx, in.VersionID, sigPath); err != nil {
		return err
	}

	return nil
}

// stageTimed runs fn, recording its duration under the named stage
// regardless of outcome.
func stageTimed(stage string, fn func() error) error {
	stop := metrics.StageTimer(stage)
	defer stop()
	return fn()
}
