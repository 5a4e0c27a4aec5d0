// Package scanner models the barcode-scanning workflow as a pure
// event-driven state machine. The controller owns all transient scan state
// (debounce window, in-flight guard, camera ownership) and performs no I/O:
// hosts feed it events and execute the commands it returns, which keeps
// every transition on one logical timeline.
package scanner

import (
	"time"

	"bookshelf/internal/book"
	"bookshelf/internal/scan"
)

// State identifies the controller's position in the scan workflow.
type State int

const (
	StateIdle State = iota
	StateInitializing
	StateScanning
	// StatePaused is the visibility-loss sub-state of Scanning: camera
	// frames are released but the device handle is kept.
	StatePaused
	StateProcessing
	StateShowingResult
	StateShowingError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitializing:
		return "initializing"
	case StateScanning:
		return "scanning"
	case StatePaused:
		return "paused"
	case StateProcessing:
		return "processing"
	case StateShowingResult:
		return "showing_result"
	case StateShowingError:
		return "showing_error"
	default:
		return "unknown"
	}
}

// Source distinguishes the two scan entry paths.
type Source string

const (
	SourceCamera Source = "camera"
	SourceFile   Source = "file"
)

// CameraFailure classifies camera acquisition errors.
type CameraFailure string

const (
	FailurePermission      CameraFailure = "permission"
	FailureNotFound        CameraFailure = "not_found"
	FailureUnsupported     CameraFailure = "unsupported"
	FailureInsecureContext CameraFailure = "insecure_context"
	FailureUnknown         CameraFailure = "unknown"
)

// Options configure a Controller.
type Options struct {
	// Constrained marks a battery/size-constrained device. The host decides;
	// the controller never sniffs the environment.
	Constrained bool
	// Cooldown suppresses repeat camera decodes of the same text.
	Cooldown time.Duration
	// ScanTimeout bounds continuous scanning on constrained devices.
	ScanTimeout time.Duration
	// Now is the clock; tests inject a fake.
	Now func() time.Time
}

const (
	defaultCooldown    = 2 * time.Second
	defaultScanTimeout = 2 * time.Minute
)

// Controller is the scanner workflow state machine. Not safe for concurrent
// use: the host must serialize events onto it, mirroring the single-threaded
// event loop it models.
type Controller struct {
	opts Options

	state      State
	cameraHeld bool

	// Sole mutual-exclusion mechanism: one decoded result in flight at a
	// time; decodes arriving while set are dropped, never queued.
	inFlight bool

	lastText     string
	lastDecodeAt time.Time
	scanningFrom time.Time

	draft    *scan.Draft
	saved    *book.Book
	warning  string
	lastErr  *scan.ScanError
	existing *book.Book
}

func New(opts Options) *Controller {
	if opts.Cooldown <= 0 {
		opts.Cooldown = defaultCooldown
	}
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = defaultScanTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{opts: opts, state: StateIdle}
}

func (c *Controller) State() State         { return c.state }
func (c *Controller) Draft() *scan.Draft   { return c.draft }
func (c *Controller) Saved() *book.Book    { return c.saved }
func (c *Controller) Warning() string      { return c.warning }
func (c *Controller) Err() *scan.ScanError { return c.lastErr }
func (c *Controller) CameraHeld() bool     { return c.cameraHeld }
func (c *Controller) InFlight() bool       { return c.inFlight }

// Existing returns the already-saved record behind a duplicate error, so
// hosts can link to it. Nil outside the duplicate case.
func (c *Controller) Existing() *book.Book { return c.existing }

// Handle applies one event and returns the commands the host must execute.
func (c *Controller) Handle(ev Event) []Command {
	switch ev := ev.(type) {
	case Start:
		return c.handleStart()
	case CameraReady:
		return c.handleCameraReady()
	case CameraFailed:
		return c.handleCameraFailed(ev)
	case Decoded:
		return c.handleDecoded(ev)
	case FileChosen:
		return c.handleFileChosen(ev)
	case FileDecoded:
		return c.handleFileDecoded(ev)
	case FileDecodeFailed:
		return c.handleFileDecodeFailed(ev)
	case OutcomeReceived:
		return c.handleOutcome(ev)
	case SubmitFailed:
		return c.handleSubmitFailed(ev)
	case Confirm:
		return c.handleConfirm()
	case ConfirmResult:
		return c.handleConfirmResult(ev)
	case Cancel:
		return c.handleCancel()
	case Retry:
		return c.handleRetry()
	case VisibilityLost:
		return c.handleVisibilityLost()
	case VisibilityRegained:
		return c.handleVisibilityRegained()
	case Resume:
		return c.handleResume()
	case OrientationChanged:
		return c.handleOrientationChanged()
	case Tick:
		return c.handleTick()
	case Stop:
		return c.handleStop()
	default:
		return nil
	}
}

func (c *Controller) handleStart() []Command {
	if c.state != StateIdle {
		return nil
	}
	c.state = StateInitializing
	c.lastErr = nil
	return []Command{AcquireCamera{}}
}

func (c *Controller) handleCameraReady() []Command {
	if c.state != StateInitializing {
		// Late ready after a stop: the host holds a device nobody wants.
		if !c.cameraHeld && c.state == StateIdle {
			return []Command{ReleaseCamera{}}
		}
		return nil
	}
	c.cameraHeld = true
	c.state = StateScanning
	c.scanningFrom = c.opts.Now()
	return nil
}

func (c *Controller) handleCameraFailed(ev CameraFailed) []Command {
	if c.state != StateInitializing {
		return nil
	}
	c.state = StateShowingError
	c.lastErr = classifyCameraFailure(ev)
	return nil
}

func (c *Controller) handleDecoded(ev Decoded) []Command {
	if c.state != StateScanning {
		return nil
	}
	if c.inFlight {
		// Dropped, not queued.
		return nil
	}
	now := c.opts.Now()
	if ev.Text == c.lastText && now.Sub(c.lastDecodeAt) < c.opts.Cooldown {
		return nil
	}
	c.lastText = ev.Text
	c.lastDecodeAt = now
	c.inFlight = true
	c.state = StateProcessing
	// Stop consuming frames while the round trip is outstanding.
	return []Command{PauseCamera{}, SubmitScan{Text: ev.Text, Source: SourceCamera}}
}

func (c *Controller) handleFileChosen(ev FileChosen) []Command {
	switch c.state {
	case StateIdle, StateScanning, StateShowingError, StateShowingResult:
	default:
		return nil
	}
	if c.inFlight {
		// File scans are cooldown-exempt but still single-flight.
		return nil
	}
	if scanErr := scan.ValidateFile(ev.File, c.opts.Constrained); scanErr != nil {
		c.state = StateShowingError
		c.lastErr = scanErr
		return nil
	}
	c.inFlight = true
	c.draft = nil
	c.state = StateProcessing
	cmds := []Command{}
	if c.cameraHeld {
		cmds = append(cmds, PauseCamera{})
	}
	return append(cmds, DecodeFile{File: ev.File})
}

func (c *Controller) handleFileDecoded(ev FileDecoded) []Command {
	if c.state != StateProcessing || !c.inFlight {
		return nil
	}
	return []Command{SubmitScan{Text: ev.Text, Source: SourceFile}}
}

func (c *Controller) handleFileDecodeFailed(ev FileDecodeFailed) []Command {
	if c.state != StateProcessing {
		return nil
	}
	c.inFlight = false
	c.state = StateShowingError
	c.lastErr = scan.NewScanError(scan.ErrBarcodeDetection, scan.SeverityLow,
		ev.Details,
		scan.WithRetry(),
		scan.WithDetails(ev.Details))
	return nil
}

func (c *Controller) handleOutcome(ev OutcomeReceived) []Command {
	if c.state != StateProcessing {
		return nil
	}
	c.inFlight = false
	c.existing = nil

	switch ev.Outcome.Kind {
	case scan.OutcomeMetadataFetched:
		c.state = StateShowingResult
		c.draft = ev.Outcome.Draft
		c.warning = ""
		return nil
	case scan.OutcomeMetadataUnavailable:
		c.state = StateShowingResult
		c.draft = ev.Outcome.Draft
		c.warning = ev.Outcome.Warning
		return nil
	case scan.OutcomeDuplicate:
		c.state = StateShowingError
		dup, _ := scan.DescribeErrorType(scan.ErrDuplicateBook)
		c.lastErr = dup
		c.existing = ev.Outcome.Existing
		return nil
	default:
		c.state = StateShowingError
		if ev.Outcome.Err != nil {
			c.lastErr = ev.Outcome.Err
		} else {
			c.lastErr = scan.NewScanError(scan.ErrUnknown, scan.SeverityMedium,
				"unexpected outcome", scan.WithRetry())
		}
		return nil
	}
}

func (c *Controller) handleSubmitFailed(ev SubmitFailed) []Command {
	if c.state != StateProcessing {
		return nil
	}
	c.inFlight = false
	c.state = StateShowingError
	if ev.Err != nil {
		c.lastErr = ev.Err
	} else {
		c.lastErr = scan.NewScanError(scan.ErrNetwork, scan.SeverityMedium,
			"scan submission failed", scan.WithRetry())
	}
	return nil
}

func (c *Controller) handleConfirm() []Command {
	if c.state != StateShowingResult || c.draft == nil {
		return nil
	}
	c.inFlight = true
	c.state = StateProcessing
	return []Command{SubmitConfirm{Draft: *c.draft}}
}

func (c *Controller) handleConfirmResult(ev ConfirmResult) []Command {
	if c.state != StateProcessing {
		return nil
	}
	c.inFlight = false
	if ev.Err != nil {
		c.state = StateShowingError
		c.lastErr = ev.Err
		return nil
	}
	c.draft = nil
	c.warning = ""
	c.saved = ev.Book
	return c.resumeOrIdle()
}

func (c *Controller) handleCancel() []Command {
	switch c.state {
	case StateShowingResult, StateShowingError, StateProcessing:
	default:
		return nil
	}
	// Cancelling an in-flight round trip drops its eventual result: the
	// in-flight flag is cleared so nothing stale is accepted.
	c.inFlight = false
	c.draft = nil
	c.warning = ""
	c.existing = nil
	return c.resumeOrIdle()
}

func (c *Controller) handleRetry() []Command {
	if c.state != StateShowingError {
		return nil
	}
	c.lastErr = nil
	c.draft = nil
	c.existing = nil
	if c.cameraHeld {
		c.state = StateScanning
		c.scanningFrom = c.opts.Now()
		return []Command{ResumeCamera{}}
	}
	c.state = StateInitializing
	return []Command{AcquireCamera{}}
}

func (c *Controller) handleVisibilityLost() []Command {
	if c.state != StateScanning {
		return nil
	}
	c.state = StatePaused
	// Release frames, keep the device: cheap to resume, kind to batteries.
	return []Command{PauseCamera{}}
}

func (c *Controller) handleVisibilityRegained() []Command {
	if c.state != StatePaused {
		return nil
	}
	// Resuming requires an explicit user action, never silent restart.
	return []Command{Notice{Text: "Scanning paused. Press resume to continue."}}
}

func (c *Controller) handleResume() []Command {
	if c.state != StatePaused {
		return nil
	}
	c.state = StateScanning
	c.scanningFrom = c.opts.Now()
	return []Command{ResumeCamera{}}
}

func (c *Controller) handleOrientationChanged() []Command {
	if c.state != StateScanning && c.state != StatePaused {
		return nil
	}
	// Full stop/restart so the capability re-negotiates frame geometry.
	c.cameraHeld = false
	c.state = StateInitializing
	return []Command{ReleaseCamera{}, AcquireCamera{}}
}

func (c *Controller) handleTick() []Command {
	if c.state != StateScanning || !c.opts.Constrained {
		return nil
	}
	if c.opts.Now().Sub(c.scanningFrom) < c.opts.ScanTimeout {
		return nil
	}
	c.state = StateIdle
	c.lastText = ""
	cmds := []Command{}
	if c.cameraHeld {
		c.cameraHeld = false
		cmds = append(cmds, ReleaseCamera{})
	}
	return append(cmds, Notice{Text: "Scanning stopped to conserve battery. Start again when ready."})
}

// handleStop covers every explicit exit path: stop button, page hide,
// navigation, teardown. The camera is released exactly once.
func (c *Controller) handleStop() []Command {
	c.state = StateIdle
	c.inFlight = false
	c.draft = nil
	c.warning = ""
	c.lastErr = nil
	c.existing = nil
	c.lastText = ""
	if c.cameraHeld {
		c.cameraHeld = false
		return []Command{ReleaseCamera{}}
	}
	return nil
}

func (c *Controller) resumeOrIdle() []Command {
	if c.cameraHeld {
		c.state = StateScanning
		c.scanningFrom = c.opts.Now()
		return []Command{ResumeCamera{}}
	}
	c.state = StateIdle
	return nil
}

func classifyCameraFailure(ev CameraFailed) *scan.ScanError {
	var t scan.ErrorType
	switch ev.Class {
	case FailurePermission:
		t = scan.ErrCameraPermission
	case FailureNotFound:
		t = scan.ErrCameraNotFound
	case FailureUnsupported:
		t = scan.ErrCameraUnsupported
	case FailureInsecureContext:
		t = scan.ErrInsecureContext
	default:
		t = scan.ErrUnknown
	}
	return scan.NewScanError(t, scan.SeverityMedium,
		"camera acquisition failed: "+ev.Details,
		scan.WithFileFallback(),
		scan.WithDetails(ev.Details))
}
