// Package core implements the verification engine: first-time manifest
// generation and the classified diff between a manifest and the live
// tree. Hashing runs on a bounded worker pool; outcomes are collated in
// path order so reports are deterministic regardless of parallelism.
package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CireWire/preserv/internal/audit"
	"github.com/CireWire/preserv/internal/config"
	"github.com/CireWire/preserv/internal/digest"
	"github.com/CireWire/preserv/internal/filesystem"
	"github.com/CireWire/preserv/internal/manifest"
	"github.com/CireWire/preserv/internal/policy"
	"github.com/CireWire/preserv/pkg/models"
)

// HashFunc produces the content digest of a file.
type HashFunc func(path string) (string, error)

// ProbeFunc reads a file's size and mtime without reading content.
type ProbeFunc func(path string) (int64, time.Time, error)

// Engine orchestrates walker, policy, hasher and manifest store.
type Engine struct {
	cfg    *config.Config
	log    *audit.Log
	store  *manifest.Store
	walker *filesystem.Walker

	// hash and probe are injectable for tests that need to hold
	// metadata constant while content changes underneath.
	hash  HashFunc
	probe ProbeFunc

	progressCallback ProgressCallback
}

// NewEngine builds an engine from the supplied configuration. The
// activity log handle is passed in explicitly; the engine keeps no
// process-wide state.
func NewEngine(cfg *config.Config, log *audit.Log) (*Engine, error) {
	walker, err := filesystem.NewWalker(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:    cfg,
		log:    log,
		store:  manifest.NewStore(cfg.ManifestPath),
		walker: walker,
		hash:   digest.SumFile,
		probe:  digest.Probe,
	}, nil
}

// Store exposes the manifest store for collaborators (stats, load).
func (e *Engine) Store() *manifest.Store { return e.store }

func checkRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRootInaccessible, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrRootInaccessible, root)
	}
	// Stat succeeds on a directory whose parent is readable even when
	// the directory itself cannot be listed. Running against an
	// unlistable root would misreport every tracked file as missing, so
	// readability is proven up front by listing one entry.
	dir, err := os.Open(root)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRootInaccessible, err)
	}
	defer dir.Close()
	if _, err := dir.Readdirnames(1); err != nil && err != io.EOF {
		return fmt.Errorf("%w: %v", ErrRootInaccessible, err)
	}
	return nil
}

func (e *Engine) fullPath(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}

// enumerate walks root and returns the ordered relative paths of all
// eligible files. Only context expiry aborts the walk; unreadable
// entries were already skipped and logged by the walker.
func (e *Engine) enumerate(ctx context.Context, root string) ([]string, error) {
	var paths []string
	err := e.walker.Walk(root, func(rel string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return paths, err
}

// Generate walks root, hashes every file, and writes a fresh manifest
// atomically. Files that fail to hash are omitted and logged; Generate
// still completes and reports the failure count. On cancellation no
// manifest is written and ErrCancelled is returned alongside the
// partial summary.
func (e *Engine) Generate(ctx context.Context, root string) (*manifest.Manifest, *models.GenerateSummary, error) {
	if err := checkRoot(root); err != nil {
		return nil, nil, err
	}
	lock, err := e.store.Acquire()
	if err != nil {
		return nil, nil, err
	}
	defer lock.Release()

	workers := e.cfg.EffectiveWorkers()
	summary := &models.GenerateSummary{
		RunID:       uuid.NewString(),
		Root:        root,
		StartTime:   time.Now(),
		WorkersUsed: workers,
	}
	e.log.Infof("generating manifest for: %s (run %s)", root, summary.RunID)

	summary.TotalFiles = e.walker.Count(root)

	emit, stopProgress := e.startProgress()
	defer stopProgress()

	paths, walkErr := e.enumerate(ctx, root)
	if walkErr != nil && ctx.Err() == nil {
		return nil, nil, walkErr
	}

	jobs := make(chan string, workers*2)
	results := make(chan genResult, workers*2)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go e.generateWorker(ctx, &wg, root, jobs, results)
	}
	go func() {
		defer close(jobs)
		for _, rel := range paths {
			select {
			case <-ctx.Done():
				return
			case jobs <- rel:
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	man := manifest.New()
	for res := range results {
		if res.err != nil {
			summary.FailedFiles = append(summary.FailedFiles, res.rel)
			e.log.Errorf("failed to process %s: %v", res.rel, res.err)
			continue
		}
		man.Put(res.rec)
		summary.ProcessedFiles++
		e.log.Infof("processed: %s", res.rel)
		emit(res.rel, models.OutcomeNew)
	}
	sort.Strings(summary.FailedFiles)

	summary.EndTime = time.Now()
	summary.Duration = summary.EndTime.Sub(summary.StartTime)

	if ctx.Err() != nil {
		summary.Incomplete = true
		e.log.Warnf("manifest generation cancelled after %d files", summary.ProcessedFiles)
		return nil, summary, ErrCancelled
	}

	if err := e.store.Save(man); err != nil {
		return nil, summary, fmt.Errorf("persist manifest: %w", err)
	}

	e.log.Infof("manifest generation complete: %d files processed, %d failed",
		summary.ProcessedFiles, len(summary.FailedFiles))
	return man, summary, nil
}

type genResult struct {
	rel string
	rec manifest.Record
	err error
}

func (e *Engine) generateWorker(ctx context.Context, wg *sync.WaitGroup, root string, jobs <-chan string, results chan<- genResult) {
	defer wg.Done()

	for rel := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}
		rec, err := e.buildRecord(root, rel)
		results <- genResult{rel: rel, rec: rec, err: err}
	}
}

// buildRecord probes then hashes a single file. One open handle at a
// time: the probe is a stat, the hash opens and closes the file itself.
func (e *Engine) buildRecord(root, rel string) (manifest.Record, error) {
	full := e.fullPath(root, rel)

	size, modTime, err := e.probe(full)
	if err != nil {
		return manifest.Record{}, err
	}
	sum, err := e.hash(full)
	if err != nil {
		return manifest.Record{}, err
	}

	return manifest.Record{
		RelativePath: rel,
		Checksum:     sum,
		Size:         size,
		ModTime:      modTime,
		GeneratedAt:  time.Now().UTC(),
	}, nil
}

// Verify classifies every file as unchanged, modified, missing or new
// against the given manifest. The manifest itself is never mutated; if
// the pass absorbs new files or refreshes drifted metadata, a clone is
// written back once, atomically, after all files are classified.
func (e *Engine) Verify(ctx context.Context, root string, man *manifest.Manifest) (*models.VerificationReport, error) {
	if err := checkRoot(root); err != nil {
		return nil, err
	}
	lock, err := e.store.Acquire()
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	workers := e.cfg.EffectiveWorkers()
	report := &models.VerificationReport{
		RunID:       uuid.NewString(),
		Root:        root,
		StartTime:   time.Now(),
		DeepVerify:  e.cfg.DeepVerify,
		AddNew:      e.cfg.AddNewFiles,
		WorkersUsed: workers,
	}
	e.log.Infof("verifying integrity for: %s (run %s)", root, report.RunID)

	emit, stopProgress := e.startProgress()
	defer stopProgress()

	paths, walkErr := e.enumerate(ctx, root)
	if walkErr != nil && ctx.Err() == nil {
		return nil, walkErr
	}
	current := make(map[string]bool, len(paths))
	for _, p := range paths {
		current[p] = true
	}

	// Manifest entries the walker did not find are missing. This is a
	// tree-level judgment, not a probe failure, and it is only sound
	// when the walk ran to completion: a cut-short enumeration would
	// misreport every unreached file.
	if walkErr == nil {
		for _, rel := range man.Paths() {
			if current[rel] {
				continue
			}
			rec, _ := man.Get(rel)
			report.AddOutcome(models.VerificationOutcome{
				RelativePath: rel,
				Outcome:      models.OutcomeMissing,
				Before:       &models.FileState{Checksum: rec.Checksum, Size: rec.Size, ModTime: rec.ModTime},
			})
			e.log.Warnf("MISSING: %s", rel)
			emit(rel, models.OutcomeMissing)
		}
	}

	jobs := make(chan verifyJob, workers*2)
	results := make(chan verifyResult, workers*2)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go e.verifyWorker(ctx, &wg, root, jobs, results)
	}
	go func() {
		defer close(jobs)
		for _, rel := range paths {
			job := verifyJob{rel: rel}
			job.rec, job.known = man.Get(rel)
			select {
			case <-ctx.Done():
				return
			case jobs <- job:
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	merged := make(map[string]manifest.Record)
	for res := range results {
		if res.hashed {
			report.HashedFiles++
		}
		if res.err != nil {
			report.FailedFiles = append(report.FailedFiles, res.rel)
			e.log.Errorf("failed to process %s: %v", res.rel, res.err)
			continue
		}
		report.AddOutcome(res.outcome)
		if res.updated != nil {
			merged[res.rel] = *res.updated
		}
		emit(res.rel, res.outcome.Outcome)
	}
	sort.Strings(report.FailedFiles)

	// Collation: workers finish in arbitrary order, the report is
	// fixed to the walker's ordering.
	sort.Slice(report.Outcomes, func(i, j int) bool {
		return report.Outcomes[i].RelativePath < report.Outcomes[j].RelativePath
	})

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)

	if ctx.Err() != nil {
		report.Incomplete = true
		e.log.Warnf("verification cancelled after %d files", len(report.Outcomes))
		return report, ErrCancelled
	}

	if len(merged) > 0 {
		out := man.Clone()
		for _, rec := range merged {
			out.Put(rec)
		}
		if err := e.store.Save(out); err != nil {
			return report, fmt.Errorf("persist manifest: %w", err)
		}
		e.log.Infof("manifest updated with %d record(s)", len(merged))
	}

	e.log.Infof("integrity check complete. OK: %d, Modified: %d, Missing: %d, New: %d",
		report.Unchanged, report.Modified, report.Missing, report.New)
	return report, nil
}

type verifyJob struct {
	rel   string
	rec   manifest.Record
	known bool
}

type verifyResult struct {
	rel     string
	outcome models.VerificationOutcome
	updated *manifest.Record
	hashed  bool
	err     error
}

func (e *Engine) verifyWorker(ctx context.Context, wg *sync.WaitGroup, root string, jobs <-chan verifyJob, results chan<- verifyResult) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if job.known {
			results <- e.verifyKnown(root, job)
		} else {
			results <- e.verifyNew(root, job)
		}
	}
}

// verifyKnown classifies a file that is both tracked and present.
func (e *Engine) verifyKnown(root string, job verifyJob) verifyResult {
	res := verifyResult{rel: job.rel}
	full := e.fullPath(root, job.rel)

	size, modTime, err := e.probe(full)
	if err != nil {
		res.err = err
		return res
	}

	decision := policy.MustRehash
	if !e.cfg.DeepVerify {
		decision = policy.Evaluate(job.rec, size, modTime)
	}
	if decision == policy.TrustExistingHash {
		res.outcome = models.VerificationOutcome{
			RelativePath: job.rel,
			Outcome:      models.OutcomeUnchanged,
		}
		e.log.Infof("OK: %s (unchanged)", job.rel)
		return res
	}

	sum, err := e.hash(full)
	if err != nil {
		res.err = err
		return res
	}
	res.hashed = true

	if sum == job.rec.Checksum {
		// Metadata drift without content drift (a touch that changed
		// no bytes) is not an integrity violation. The record's
		// metadata is refreshed so the next run skips the rehash.
		res.outcome = models.VerificationOutcome{
			RelativePath: job.rel,
			Outcome:      models.OutcomeUnchanged,
		}
		if size != job.rec.Size || !modTime.Equal(job.rec.ModTime) {
			res.updated = &manifest.Record{
				RelativePath: job.rel,
				Checksum:     sum,
				Size:         size,
				ModTime:      modTime,
				GeneratedAt:  time.Now().UTC(),
			}
			e.log.Infof("OK: %s (metadata changed but hash matches)", job.rel)
		} else {
			e.log.Infof("OK: %s (rehashed)", job.rel)
		}
		return res
	}

	res.outcome = models.VerificationOutcome{
		RelativePath: job.rel,
		Outcome:      models.OutcomeModified,
		Before:       &models.FileState{Checksum: job.rec.Checksum, Size: job.rec.Size, ModTime: job.rec.ModTime},
		After:        &models.FileState{Checksum: sum, Size: size, ModTime: modTime},
	}
	e.log.Errorf("MODIFIED: %s", job.rel)
	return res
}

// verifyNew classifies a file the manifest does not track. With add-new
// enabled a fresh record is synthesized for the final write-back.
func (e *Engine) verifyNew(root string, job verifyJob) verifyResult {
	res := verifyResult{rel: job.rel}
	res.outcome = models.VerificationOutcome{
		RelativePath: job.rel,
		Outcome:      models.OutcomeNew,
	}

	if e.cfg.AddNewFiles {
		rec, err := e.buildRecord(root, job.rel)
		if err != nil {
			res.err = err
			return res
		}
		res.hashed = true
		res.updated = &rec
		res.outcome.After = &models.FileState{Checksum: rec.Checksum, Size: rec.Size, ModTime: rec.ModTime}
	}

	e.log.Infof("NEW: %s", job.rel)
	return res
}
