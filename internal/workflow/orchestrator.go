// Package workflow owns the outreach state machine: the step resolver, the
// single-flight execution slot, and the orchestrator that runs one job step
// end-to-end against the automation session gateway.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tomerlv/outreach-be/internal/domain"
)

// RunDecision tells the caller whether their request started immediately or
// joined the wait queue.
type RunDecision string

const (
	RunStarted  RunDecision = "started"
	RunEnqueued RunDecision = "enqueued"
)

const abortedByUserMessage = "Aborted by user"

// Config holds orchestrator dependencies.
type Config struct {
	Store    Store
	Gateway  Gateway
	Activity Recorder
	Logger   *slog.Logger
}

// Orchestrator serializes all automation work through one execution slot.
// The gateway call is the only blocking operation in a run and the sole
// cancellation point; every other mutation is fast and in-memory or a single
// database write.
type Orchestrator struct {
	store    Store
	gateway  Gateway
	activity Recorder
	logger   *slog.Logger
	slot     *Slot
	started  atomic.Bool
	wg       sync.WaitGroup
}

// New creates an Orchestrator. Start must be called before RunJob.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		store:    cfg.Store,
		gateway:  cfg.Gateway,
		activity: cfg.Activity,
		logger:   cfg.Logger,
		slot:     NewSlot(),
	}
}

// Start reconciles jobs left processing by a previous process (the in-memory
// slot is gone after a restart, so such jobs can never finish) and then opens
// the orchestrator for run requests.
func (o *Orchestrator) Start(ctx context.Context) error {
	reset, err := o.store.ResetInterrupted(ctx)
	if err != nil {
		return fmt.Errorf("failed to reset interrupted jobs: %w", err)
	}
	if reset > 0 {
		o.logger.Warn("Reset interrupted jobs from previous run",
			slog.Int64("count", reset),
		)
	}
	o.started.Store(true)
	return nil
}

// RunJob requests execution of the next workflow step for a job. When the
// execution slot is idle the run starts immediately; otherwise the request
// joins the FIFO queue (replacing any queued request for the same job).
func (o *Orchestrator) RunJob(ctx context.Context, jobID string, opts domain.TriggerOptions) (RunDecision, error) {
	if !o.started.Load() {
		return "", domain.ErrNotStarted
	}

	if _, err := o.store.GetJob(ctx, jobID); err != nil {
		return "", err
	}

	if o.slot.TryAcquire(jobID) {
		o.wg.Add(1)
		go o.execute(jobID, opts)
		return RunStarted, nil
	}

	replaced := o.slot.Enqueue(jobID, opts)
	o.logger.Info("Run request queued",
		slog.String("job_id", jobID),
		slog.Bool("replaced_existing", replaced),
	)
	return RunEnqueued, nil
}

// AbortCurrent signals the in-flight run to stop at the gateway-call boundary.
// Returns the job ID that was signalled, or "" when nothing is running.
func (o *Orchestrator) AbortCurrent() string {
	jobID := o.slot.AbortCurrent()
	if jobID != "" {
		o.logger.Info("Abort requested for running job", slog.String("job_id", jobID))
	}
	return jobID
}

// AbortJob aborts jobID if it is running, or removes it from the queue if it
// is only waiting (no state change needed, it never left its resting state).
// Returns false when the job is neither running nor queued.
func (o *Orchestrator) AbortJob(jobID string) bool {
	if o.slot.RunningJobID() == jobID {
		return o.AbortCurrent() != ""
	}
	if o.slot.RemoveQueued(jobID) {
		o.activity.Record(context.Background(), domain.ActionWorkflowAborted,
			"Run request cancelled before start",
			map[string]any{"job_id": jobID, "was_queued": true}, jobID)
		return true
	}
	return false
}

// CurrentStatus reports the running job and the queued job IDs in FIFO order.
func (o *Orchestrator) CurrentStatus() (runningJobID string, queuedJobIDs []string) {
	return o.slot.Current()
}

// Shutdown aborts any in-flight run and waits for the worker goroutine to
// drain, or for ctx to expire.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.started.Store(false)
	o.slot.AbortCurrent()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// execute runs one job while holding the slot, then releases it and
// immediately dispatches the next queued request, if any. After Shutdown the
// queue is drained without dispatching: queued jobs never started, so they
// need no state change and must not outlive the process.
func (o *Orchestrator) execute(jobID string, opts domain.TriggerOptions) {
	defer o.wg.Done()

	runCtx, cancel := context.WithCancel(context.Background())
	o.slot.BindCancel(jobID, cancel)

	o.runOne(runCtx, jobID, opts)
	cancel()

	for next := o.slot.Release(); next != nil; next = o.slot.Release() {
		if o.started.Load() {
			o.wg.Add(1)
			go o.execute(next.JobID, next.Opts)
			return
		}
		o.logger.Info("Dropping queued run, orchestrator stopped",
			slog.String("job_id", next.JobID),
		)
	}
}

// runOne executes a single workflow step for a job: snapshot, mark
// processing, resolve, invoke, interpret, persist. Persistence always uses a
// background context so an abort cannot strand the job record mid-transition;
// only the gateway call observes runCtx.
func (o *Orchestrator) runOne(runCtx context.Context, jobID string, opts domain.TriggerOptions) {
	bg := context.Background()

	job, err := o.store.GetJob(bg, jobID)
	if err != nil {
		o.logger.Error("Failed to load job for execution",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		return
	}

	snapshot := job.TakeSnapshot()

	if err := o.store.UpdateJobState(bg, jobID, JobStateUpdate{
		Status:       domain.JobStatusProcessing,
		WorkflowStep: job.WorkflowStep,
	}); err != nil {
		o.logger.Error("Failed to mark job processing",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		return
	}

	action := Resolve(job, opts)
	o.logger.Info("Executing workflow step",
		slog.String("job_id", jobID),
		slog.String("workflow_step", job.WorkflowStep),
		slog.String("action", action.Type.String()),
	)

	switch action.Type {
	case ActionNoOp:
		// Nothing runnable from this state. Put the snapshot back and log it.
		o.restore(bg, job, snapshot, snapshot.ErrorMessage)
		o.activity.Record(bg, domain.ActionError,
			fmt.Sprintf("No runnable step from %s/%s", snapshot.Status, snapshot.WorkflowStep),
			map[string]any{"status": snapshot.Status, "workflow_step": snapshot.WorkflowStep},
			jobID)

	case ActionRequestCompanyInput:
		o.applyUpdate(bg, job, JobStateUpdate{
			Status:       domain.JobStatusNeedsInput,
			WorkflowStep: domain.StepCompanyExtraction,
		})
		o.activity.Record(bg, domain.ActionCompanyInputNeeded,
			"Unknown job site, user input needed",
			map[string]any{"url": job.URL}, jobID)

	case ActionExtractAndAdvance:
		if err := o.store.SetJobCompany(bg, jobID, action.CompanyName); err != nil {
			o.fail(bg, job, fmt.Sprintf("failed to store company name: %s", err))
			return
		}
		o.applyUpdate(bg, job, JobStateUpdate{
			Status:         domain.JobStatusCompleted,
			WorkflowStep:   domain.StepSearchConnections,
			TouchProcessed: true,
		})
		o.activity.Record(bg, domain.ActionCompanyExtracted,
			fmt.Sprintf("Company extracted: %s", action.CompanyName),
			map[string]any{"company": action.CompanyName, "url": job.URL}, jobID)

	case ActionResetWorkflow:
		o.applyUpdate(bg, job, JobStateUpdate{
			Status:       domain.JobStatusCompleted,
			WorkflowStep: domain.StepSearchConnections,
		})
		o.activity.Record(bg, domain.ActionConnectionSearch,
			"Workflow reset to search", nil, jobID)

	case ActionSearchAllDegrees, ActionSearchForMorePeople:
		o.runSearch(runCtx, bg, job, opts, snapshot, action.Type == ActionSearchForMorePeople)

	case ActionCheckReplies:
		o.runReplyCheck(runCtx, bg, job, snapshot)

	case ActionCheckAccepts:
		o.runAcceptCheck(runCtx, bg, job, snapshot)
	}
}

// runSearch drives the combined-degree search and interprets its tagged
// outcome. excludeMessaged re-searches without re-messaging contacts that
// already have a sent timestamp.
func (o *Orchestrator) runSearch(runCtx, bg context.Context, job *domain.Job, opts domain.TriggerOptions, snapshot domain.Snapshot, excludeMessaged bool) {
	template, err := o.store.GetTemplate(bg, opts.TemplateID)
	if err != nil {
		o.fail(bg, job, fmt.Sprintf("no message template available: %s", err))
		return
	}

	result, err := o.gateway.SearchAllDegrees(runCtx, SearchRequest{
		Company:         job.Company(),
		Template:        template.Content,
		ExcludeMessaged: excludeMessaged,
		FirstDegreeOnly: opts.FirstDegreeOnly,
	})
	if err != nil {
		o.finishWithError(bg, job, snapshot, err)
		return
	}

	switch result.Outcome {
	case SearchMessaged:
		contacts, saveErr := o.store.SaveMessagedContacts(bg, job.JobID, job.Company(), result.Messaged)
		if saveErr != nil {
			o.fail(bg, job, fmt.Sprintf("failed to save messaged contacts: %s", saveErr))
			return
		}
		for _, c := range contacts {
			o.activity.Record(bg, domain.ActionMessageSent,
				fmt.Sprintf("Message sent to %s", c.Name),
				map[string]any{"name": c.Name, "linkedin_url": c.LinkedInURL}, job.JobID)
		}
		o.applyUpdate(bg, job, JobStateUpdate{
			Status:       domain.JobStatusCompleted,
			WorkflowStep: domain.StepWaitingForReply,
		})

	case SearchRequestsSent:
		if _, saveErr := o.store.SaveRequestedContacts(bg, job.JobID, job.Company(), result.Requested); saveErr != nil {
			o.fail(bg, job, fmt.Sprintf("failed to save requested contacts: %s", saveErr))
			return
		}
		for _, p := range result.Requested {
			o.activity.Record(bg, domain.ActionConnectionRequestSent,
				fmt.Sprintf("Connection request sent to %s", p.Name),
				map[string]any{"name": p.Name, "linkedin_url": p.LinkedInURL}, job.JobID)
		}
		o.applyUpdate(bg, job, JobStateUpdate{
			Status:       domain.JobStatusCompleted,
			WorkflowStep: domain.StepWaitingForAccept,
		})

	case SearchTranslationMissing:
		// Not a failure: pause for user-provided translations.
		o.applyUpdate(bg, job, JobStateUpdate{
			Status:       domain.JobStatusNeedsInput,
			WorkflowStep: domain.StepNeedsHebrewNames,
			PendingNames: result.MissingNames,
		})
		o.activity.Record(bg, domain.ActionTranslationNeeded,
			fmt.Sprintf("Hebrew translation needed for %d name(s)", len(result.MissingNames)),
			map[string]any{"missing_names": result.MissingNames, "company": job.Company()}, job.JobID)

	case SearchNoneFound:
		if opts.FirstDegreeOnly {
			// Accept follow-up found nothing new: requests still pending.
			o.applyUpdate(bg, job, JobStateUpdate{
				Status:         domain.JobStatusCompleted,
				WorkflowStep:   domain.StepWaitingForAccept,
				TouchLastCheck: true,
			})
			return
		}
		msg := fmt.Sprintf("Could not find any people at %q on LinkedIn", job.Company())
		o.applyUpdate(bg, job, JobStateUpdate{
			Status:         domain.JobStatusFailed,
			WorkflowStep:   domain.StepDone,
			ErrorMessage:   &msg,
			TouchProcessed: true,
		})
		o.activity.Record(bg, domain.ActionError, msg,
			map[string]any{"company": job.Company()}, job.JobID)
	}
}

// runReplyCheck asks the gateway whether any messaged contact replied.
func (o *Orchestrator) runReplyCheck(runCtx, bg context.Context, job *domain.Job, snapshot domain.Snapshot) {
	contacts, err := o.store.ContactsAwaitingReply(bg, job.JobID)
	if err != nil {
		o.fail(bg, job, fmt.Sprintf("failed to load contacts: %s", err))
		return
	}
	if len(contacts) == 0 {
		o.applyUpdate(bg, job, JobStateUpdate{
			Status:         domain.JobStatusCompleted,
			WorkflowStep:   domain.StepWaitingForReply,
			TouchLastCheck: true,
		})
		return
	}

	result, err := o.gateway.CheckReplies(runCtx, contacts)
	if err != nil {
		o.finishWithError(bg, job, snapshot, err)
		return
	}

	if len(result.Replied) == 0 {
		// No reply yet: stay in waiting state, record the check time.
		o.applyUpdate(bg, job, JobStateUpdate{
			Status:         domain.JobStatusCompleted,
			WorkflowStep:   domain.StepWaitingForReply,
			TouchLastCheck: true,
		})
		return
	}

	for _, p := range result.Replied {
		if err := o.store.MarkContactReplied(bg, p.LinkedInURL); err != nil {
			o.logger.Error("Failed to mark contact replied",
				slog.String("linkedin_url", p.LinkedInURL),
				slog.String("error", err.Error()),
			)
			continue
		}
		o.activity.Record(bg, domain.ActionReplyReceived,
			fmt.Sprintf("Received reply from %s", p.Name),
			map[string]any{"name": p.Name, "linkedin_url": p.LinkedInURL}, job.JobID)
	}

	o.applyUpdate(bg, job, JobStateUpdate{
		Status:         domain.JobStatusCompleted,
		WorkflowStep:   domain.StepDone,
		TouchLastCheck: true,
		TouchProcessed: true,
	})
}

// runAcceptCheck asks the gateway whether any pending connection request was
// accepted. Found accepts move the job back to search_connections so the next
// run messages the new 1st-degree contacts.
func (o *Orchestrator) runAcceptCheck(runCtx, bg context.Context, job *domain.Job, snapshot domain.Snapshot) {
	contacts, err := o.store.ContactsAwaitingAccept(bg, job.JobID)
	if err != nil {
		o.fail(bg, job, fmt.Sprintf("failed to load contacts: %s", err))
		return
	}

	result, err := o.gateway.CheckAccepts(runCtx, contacts)
	if err != nil {
		o.finishWithError(bg, job, snapshot, err)
		return
	}

	if len(result.Accepted) == 0 {
		o.applyUpdate(bg, job, JobStateUpdate{
			Status:         domain.JobStatusCompleted,
			WorkflowStep:   domain.StepWaitingForAccept,
			TouchLastCheck: true,
		})
		return
	}

	for _, p := range result.Accepted {
		if err := o.store.MarkContactAccepted(bg, p.LinkedInURL); err != nil {
			o.logger.Error("Failed to mark contact accepted",
				slog.String("linkedin_url", p.LinkedInURL),
				slog.String("error", err.Error()),
			)
			continue
		}
		o.activity.Record(bg, domain.ActionConnectionFound,
			fmt.Sprintf("Connection request accepted by %s", p.Name),
			map[string]any{"name": p.Name, "linkedin_url": p.LinkedInURL}, job.JobID)
	}

	o.applyUpdate(bg, job, JobStateUpdate{
		Status:         domain.JobStatusCompleted,
		WorkflowStep:   domain.StepSearchConnections,
		TouchLastCheck: true,
	})
}

// finishWithError classifies a gateway failure: a user abort restores the
// pre-run snapshot, anything else marks the job failed but resumable from its
// current step.
func (o *Orchestrator) finishWithError(bg context.Context, job *domain.Job, snapshot domain.Snapshot, err error) {
	if o.aborted(job.JobID, err) {
		msg := abortedByUserMessage
		o.restore(bg, job, snapshot, &msg)
		o.activity.Record(bg, domain.ActionWorkflowAborted, abortedByUserMessage,
			map[string]any{"restored_status": snapshot.Status, "restored_step": snapshot.WorkflowStep},
			job.JobID)
		o.logger.Info("Workflow aborted, previous state restored",
			slog.String("job_id", job.JobID),
			slog.String("status", snapshot.Status),
			slog.String("workflow_step", snapshot.WorkflowStep),
		)
		return
	}

	o.fail(bg, job, err.Error())
}

// aborted reports whether the error represents a user abort of this run.
func (o *Orchestrator) aborted(jobID string, err error) bool {
	if !errors.Is(err, context.Canceled) {
		return false
	}
	return o.slot.AbortRequested(jobID)
}

// fail marks the job failed with a message; the workflow step is left
// unchanged so a user-triggered retry resumes from the same step.
func (o *Orchestrator) fail(bg context.Context, job *domain.Job, message string) {
	o.applyUpdate(bg, job, JobStateUpdate{
		Status:       domain.JobStatusFailed,
		WorkflowStep: job.WorkflowStep,
		ErrorMessage: &message,
		PendingNames: job.PendingNames,
	})
	o.activity.Record(bg, domain.ActionError,
		fmt.Sprintf("Workflow failed: %s", message),
		map[string]any{"error": message}, job.JobID)
	o.logger.Error("Workflow step failed",
		slog.String("job_id", job.JobID),
		slog.String("workflow_step", job.WorkflowStep),
		slog.String("error", message),
	)
}

// restore writes the pre-run snapshot back, with an optional replacement
// error message (abort transparency for the UI).
func (o *Orchestrator) restore(bg context.Context, job *domain.Job, snapshot domain.Snapshot, errorMessage *string) {
	o.applyUpdate(bg, job, JobStateUpdate{
		Status:       snapshot.Status,
		WorkflowStep: snapshot.WorkflowStep,
		ErrorMessage: errorMessage,
		PendingNames: job.PendingNames,
	})
}

func (o *Orchestrator) applyUpdate(bg context.Context, job *domain.Job, upd JobStateUpdate) {
	if err := o.store.UpdateJobState(bg, job.JobID, upd); err != nil {
		o.logger.Error("Failed to persist job transition",
			slog.String("job_id", job.JobID),
			slog.String("status", upd.Status),
			slog.String("workflow_step", upd.WorkflowStep),
			slog.String("error", err.Error()),
		)
	}
}
