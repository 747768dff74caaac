package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vadymuxd/searching-the-fox/internal/domain"
	"github.com/vadymuxd/searching-the-fox/internal/logger"
	"github.com/vadymuxd/searching-the-fox/internal/scraper"
)

// Board identifiers accepted from clients.
const (
	SiteIndeed       = "indeed"
	SiteLinkedIn     = "linkedin"
	SiteZipRecruiter = "zip_recruiter"
	SiteGlassdoor    = "glassdoor"
	SiteAll          = "all"
)

// defaultSites is the board set used when a trigger request names none.
var defaultSites = []string{SiteIndeed, SiteLinkedIn, SiteZipRecruiter, SiteGlassdoor}

// allSites is the expansion of the "all" meta-selector on queued runs. It
// deliberately covers fewer boards than defaultSites: queued runs are
// background work and the slower boards are not worth their timeout risk
// there.
var allSites = []string{SiteIndeed, SiteLinkedIn}

// Run outcomes reported to callers.
const (
	OutcomeSuccess        = "SUCCESS"
	OutcomePartialSuccess = "PARTIAL SUCCESS"
	OutcomeFailed         = "FAILED"
)

// ScrapeClient fetches raw job rows for one board.
type ScrapeClient interface {
	Scrape(ctx context.Context, site string, params domain.RunParams) ([]scraper.RawJob, error)
}

// JobWriter persists normalized job postings.
type JobWriter interface {
	CreateOrGet(ctx context.Context, job *domain.JobPosting) (string, bool, error)
}

// JobLinker attaches persisted jobs to a user.
type JobLinker interface {
	LinkJob(ctx context.Context, userID, jobID string) (bool, error)
}

// RunStore is the run lifecycle persistence surface.
type RunStore interface {
	Create(ctx context.Context, run *domain.SearchRun) error
	MarkRunning(ctx context.Context, id string) error
	AddJobsFound(ctx context.Context, id string, n int) error
	Finalize(ctx context.Context, id string, status domain.RunStatus, errorMessage string) error
	ClaimPending(ctx context.Context, limit int) ([]domain.SearchRun, error)
	FailStuck(ctx context.Context, olderThan time.Duration) (int64, error)
}

// LogoService resolves company logo URLs for a batch of jobs.
type LogoService interface {
	ResolveMany(ctx context.Context, reqs []LogoRequest) []string
}

// RunRequest is a client-initiated ingestion request. RunID references a
// pre-created pending run (queued by another client); when empty a fresh run
// record is created.
type RunRequest struct {
	RunID         string   `json:"search_run_id"`
	Sites         []string `json:"sites"`
	SearchTerm    string   `json:"search_term"`
	Location      string   `json:"location"`
	ResultsWanted int      `json:"results_wanted"`
	HoursOld      int      `json:"hours_old"`
	Country       string   `json:"country"`
	UserID        string   `json:"user_id"`
}

// RunResult summarizes one completed ingestion run.
type RunResult struct {
	RunID        string               `json:"run_id"`
	Success      bool                 `json:"success"`
	Outcome      string               `json:"outcome"`
	TotalJobs    int                  `json:"total_jobs"`
	SiteStatuses map[string]string    `json:"site_statuses"`
	Jobs         []*domain.JobPosting `json:"jobs"`
	Message      string               `json:"message,omitempty"`
}

// PipelineConfig holds pipeline tuning parameters.
type PipelineConfig struct {
	StuckRunThreshold time.Duration // runs running longer than this are failed by the sweep
	QueueBatchSize    int           // default claim size for queue polling
}

// Pipeline orchestrates ingestion runs: scrape each board, normalize,
// enrich with logos, persist, and record the run lifecycle.
type Pipeline struct {
	scraper ScrapeClient
	jobs    JobWriter
	links   JobLinker
	runs    RunStore
	logos   LogoService
	cfg     PipelineConfig
}

// NewPipeline creates a new Pipeline.
func NewPipeline(sc ScrapeClient, jobs JobWriter, links JobLinker, runs RunStore, logos LogoService, cfg PipelineConfig) *Pipeline {
	if cfg.StuckRunThreshold <= 0 {
		cfg.StuckRunThreshold = 5 * time.Minute
	}
	if cfg.QueueBatchSize <= 0 {
		cfg.QueueBatchSize = 5
	}
	return &Pipeline{scraper: sc, jobs: jobs, links: links, runs: runs, logos: logos, cfg: cfg}
}

// Run executes a client-triggered ingestion run end to end. A pre-created
// run referenced by RunID is adopted; otherwise a fresh record is created
// before any scraping so a crash mid-run leaves an auditable row for the
// stuck-run sweep.
func (p *Pipeline) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	sites := req.Sites
	if len(sites) == 0 {
		sites = defaultSites
	}

	run := &domain.SearchRun{
		ID:     req.RunID,
		UserID: req.UserID,
		Status: domain.RunStatusPending,
		RunParams: domain.RunParams{
			Sites:         domain.StringArray(sites),
			SearchTerm:    req.SearchTerm,
			Location:      req.Location,
			ResultsWanted: resultsWantedOrDefault(req.ResultsWanted),
			HoursOld:      hoursOldOrDefault(req.HoursOld),
			Country:       req.Country,
		},
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
		if err := p.runs.Create(ctx, run); err != nil {
			return nil, fmt.Errorf("failed to create run: %w", err)
		}
	}
	if err := p.runs.MarkRunning(ctx, run.ID); err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}

	ctx = logger.SetRunID(ctx, run.ID)
	return p.execute(ctx, run, sites)
}

// execute runs the per-board loop for an already-started run. Board
// failures are isolated: one board failing never aborts the others, and the
// run only fails when every board does.
func (p *Pipeline) execute(ctx context.Context, run *domain.SearchRun, sites []string) (*RunResult, error) {
	result := &RunResult{
		RunID:        run.ID,
		SiteStatuses: make(map[string]string, len(sites)),
	}
	var failures []string
	completed := 0

	for _, site := range sites {
		result.SiteStatuses[site] = "processing"
		siteCtx := logger.SetSite(ctx, site)

		jobs, saved, scraped, err := p.ingestSite(siteCtx, run, site)
		if err != nil {
			result.SiteStatuses[site] = fmt.Sprintf("failed: %s", err)
			failures = append(failures, fmt.Sprintf("%s: %s", site, err))
			logger.FromContext(siteCtx).WithError(err).Warn("Board ingestion failed")
			continue
		}

		completed++
		result.Jobs = append(result.Jobs, jobs...)

		// Guest runs count scraped rows; user runs count what was actually
		// new to that user.
		counted := scraped
		if run.UserID != "" {
			counted = saved
		}
		result.TotalJobs += counted
		if err := p.runs.AddJobsFound(ctx, run.ID, counted); err != nil {
			return nil, fmt.Errorf("failed to record job count: %w", err)
		}

		switch {
		case counted > 0:
			result.SiteStatuses[site] = fmt.Sprintf("completed: %d jobs", counted)
		case scraped > 0:
			result.SiteStatuses[site] = "completed: 0 saved (duplicates)"
		default:
			result.SiteStatuses[site] = "completed: 0 jobs"
		}
	}

	switch {
	case completed == len(sites):
		result.Outcome = OutcomeSuccess
	case completed > 0:
		result.Outcome = OutcomePartialSuccess
	default:
		result.Outcome = OutcomeFailed
	}

	result.Success = len(result.Jobs) > 0

	if completed > 0 {
		result.Message = fmt.Sprintf("Found %d jobs across %d boards", result.TotalJobs, completed)
		if err := p.runs.Finalize(ctx, run.ID, domain.RunStatusSuccess, ""); err != nil {
			return nil, fmt.Errorf("failed to finalize run: %w", err)
		}
	} else {
		result.Message = strings.Join(failures, "; ")
		if err := p.runs.Finalize(ctx, run.ID, domain.RunStatusFailed, result.Message); err != nil {
			return nil, fmt.Errorf("failed to finalize run: %w", err)
		}
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldRunID:  run.ID,
		logger.FieldCount:  result.TotalJobs,
		logger.FieldStatus: result.Outcome,
	}).Info("Ingestion run finished")
	return result, nil
}

// ingestSite scrapes one board, normalizes and enriches the rows, and
// persists them. It returns the normalized jobs, the number of rows newly
// visible to the run's owner (new links for user runs, new postings
// otherwise), and the number of rows scraped.
func (p *Pipeline) ingestSite(ctx context.Context, run *domain.SearchRun, site string) (jobs []*domain.JobPosting, saved, scraped int, err error) {
	rows, err := p.scraper.Scrape(ctx, site, run.RunParams)
	if err != nil {
		return nil, 0, 0, err
	}
	scraped = len(rows)
	if scraped == 0 {
		return nil, 0, 0, nil
	}

	jobs = make([]*domain.JobPosting, 0, scraped)
	reqs := make([]LogoRequest, 0, scraped)
	for i := range rows {
		job := NormalizeJob(&rows[i])
		if job.JobURL == "" {
			// Without a URL the row cannot be deduplicated or linked to.
			continue
		}
		jobs = append(jobs, job)
		reqs = append(reqs, LogoRequest{Company: job.Company, JobURL: job.JobURL, Site: job.Site})
	}

	if p.logos != nil {
		logoURLs := p.logos.ResolveMany(ctx, reqs)
		for i, logoURL := range logoURLs {
			jobs[i].CompanyLogoURL = logoURL
		}
	}

	for _, job := range jobs {
		jobID, created, err := p.jobs.CreateOrGet(ctx, job)
		if err != nil {
			return jobs, saved, scraped, fmt.Errorf("failed to save job: %w", err)
		}

		if run.UserID != "" {
			linked, err := p.links.LinkJob(ctx, run.UserID, jobID)
			if err != nil {
				return jobs, saved, scraped, fmt.Errorf("failed to link job: %w", err)
			}
			if linked {
				saved++
			}
		} else if created {
			saved++
		}
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldSite:  site,
		logger.FieldCount: scraped,
		"saved":           saved,
	}).Info("Board ingestion completed")
	return jobs, saved, scraped, nil
}

// ProcessQueued claims up to batchSize pending runs and processes each to
// completion sequentially. A batchSize of zero uses the configured default.
func (p *Pipeline) ProcessQueued(ctx context.Context, batchSize int) ([]RunResult, error) {
	if batchSize <= 0 {
		batchSize = p.cfg.QueueBatchSize
	}

	claimed, err := p.runs.ClaimPending(ctx, batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to claim pending runs: %w", err)
	}
	if len(claimed) == 0 {
		return nil, nil
	}

	results := make([]RunResult, 0, len(claimed))
	for i := range claimed {
		run := &claimed[i]
		runCtx := logger.SetRunID(ctx, run.ID)
		result, err := p.execute(runCtx, run, queuedSites(run))
		if err != nil {
			logger.FromContext(runCtx).WithError(err).Error("Queued run processing failed")
			continue
		}
		results = append(results, *result)
	}
	return results, nil
}

// CleanupStuckRuns fails runs that have been running beyond the configured
// threshold and returns how many were swept.
func (p *Pipeline) CleanupStuckRuns(ctx context.Context) (int64, error) {
	swept, err := p.runs.FailStuck(ctx, p.cfg.StuckRunThreshold)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep stuck runs: %w", err)
	}
	if swept > 0 {
		logger.FromContext(ctx).WithField(logger.FieldCount, swept).Warn("Failed stuck runs")
	}
	return swept, nil
}

// queuedSites resolves the board list for a queued run. The stored Sites
// list wins; otherwise SiteName is a single board or the "all" selector.
func queuedSites(run *domain.SearchRun) []string {
	if len(run.Sites) > 0 {
		return run.Sites
	}
	switch run.SiteName {
	case "", SiteAll:
		return allSites
	default:
		return []string{run.SiteName}
	}
}

func resultsWantedOrDefault(n int) int {
	if n <= 0 {
		return 20
	}
	return n
}

func hoursOldOrDefault(n int) int {
	if n <= 0 {
		return 72
	}
	return n
}
