package scanner

import (
	"testing"
	"time"

	"bookshelf/internal/book"
	"bookshelf/internal/scan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestController(constrained bool) (*Controller, *fakeClock) {
	clock := newFakeClock()
	ctl := New(Options{
		Constrained: constrained,
		Cooldown:    2 * time.Second,
		ScanTimeout: 2 * time.Minute,
		Now:         clock.now,
	})
	return ctl, clock
}

// startScanning drives Idle -> Scanning.
func startScanning(t *testing.T, ctl *Controller) {
	t.Helper()
	cmds := ctl.Handle(Start{})
	require.Equal(t, []Command{AcquireCamera{}}, cmds)
	require.Equal(t, StateInitializing, ctl.State())
	require.Empty(t, ctl.Handle(CameraReady{}))
	require.Equal(t, StateScanning, ctl.State())
	require.True(t, ctl.CameraHeld())
}

func submitsOf(cmds []Command) []SubmitScan {
	var out []SubmitScan
	for _, c := range cmds {
		if s, ok := c.(SubmitScan); ok {
			out = append(out, s)
		}
	}
	return out
}

func TestStartCameraReady(t *testing.T) {
	ctl, _ := newTestController(false)
	startScanning(t, ctl)
}

func TestCameraFailureClassification(t *testing.T) {
	tests := []struct {
		class CameraFailure
		want  scan.ErrorType
	}{
		{FailurePermission, scan.ErrCameraPermission},
		{FailureNotFound, scan.ErrCameraNotFound},
		{FailureUnsupported, scan.ErrCameraUnsupported},
		{FailureInsecureContext, scan.ErrInsecureContext},
		{FailureUnknown, scan.ErrUnknown},
	}
	for _, tt := range tests {
		t.Run(string(tt.class), func(t *testing.T) {
			ctl, _ := newTestController(false)
			ctl.Handle(Start{})
			ctl.Handle(CameraFailed{Class: tt.class, Details: "boom"})

			assert.Equal(t, StateShowingError, ctl.State())
			require.NotNil(t, ctl.Err())
			assert.Equal(t, tt.want, ctl.Err().Type)
			// The file path must always stay available.
			assert.True(t, ctl.Err().ShowFileFallback)
			assert.True(t, ctl.Err().ShowManualEntry)
			assert.False(t, ctl.CameraHeld())
		})
	}
}

func TestDecodeSubmitsAndPausesCamera(t *testing.T) {
	ctl, _ := newTestController(false)
	startScanning(t, ctl)

	cmds := ctl.Handle(Decoded{Text: "9780306406157"})
	require.Len(t, cmds, 2)
	assert.Equal(t, PauseCamera{}, cmds[0])
	assert.Equal(t, SubmitScan{Text: "9780306406157", Source: SourceCamera}, cmds[1])
	assert.Equal(t, StateProcessing, ctl.State())
	assert.True(t, ctl.InFlight())
}

func TestDebounceSuppressesRepeatDecode(t *testing.T) {
	ctl, clock := newTestController(false)
	startScanning(t, ctl)

	first := ctl.Handle(Decoded{Text: "9780306406157"})
	require.Len(t, submitsOf(first), 1)

	// Round trip completes, camera resumes, same barcode still in frame.
	ctl.Handle(OutcomeReceived{Outcome: scan.Outcome{
		Kind:  scan.OutcomeMetadataFetched,
		Draft: &scan.Draft{ISBN: "9780306406157"},
	}})
	ctl.Handle(Cancel{})
	require.Equal(t, StateScanning, ctl.State())

	clock.advance(500 * time.Millisecond)
	again := ctl.Handle(Decoded{Text: "9780306406157"})
	assert.Empty(t, submitsOf(again), "same text inside cooldown is dropped")

	clock.advance(3 * time.Second)
	later := ctl.Handle(Decoded{Text: "9780306406157"})
	assert.Len(t, submitsOf(later), 1, "cooldown expired")
}

func TestDifferentTextInsideCooldownIsAccepted(t *testing.T) {
	ctl, clock := newTestController(false)
	startScanning(t, ctl)

	ctl.Handle(Decoded{Text: "9780306406157"})
	ctl.Handle(OutcomeReceived{Outcome: scan.Outcome{
		Kind:  scan.OutcomeMetadataUnavailable,
		Draft: &scan.Draft{ISBN: "9780306406157"},
	}})
	ctl.Handle(Cancel{})

	clock.advance(200 * time.Millisecond)
	cmds := ctl.Handle(Decoded{Text: "9791090636071"})
	assert.Len(t, submitsOf(cmds), 1, "cooldown only applies to the same text")
}

func TestDecodeWhileInFlightIsDropped(t *testing.T) {
	ctl, clock := newTestController(false)
	startScanning(t, ctl)

	ctl.Handle(Decoded{Text: "9780306406157"})
	require.True(t, ctl.InFlight())

	clock.advance(5 * time.Second)
	dropped := ctl.Handle(Decoded{Text: "9791090636071"})
	assert.Empty(t, dropped, "in-flight decodes are dropped, not queued")
}

func TestFileScanExemptFromCooldown(t *testing.T) {
	ctl, clock := newTestController(false)
	startScanning(t, ctl)

	ctl.Handle(Decoded{Text: "9780306406157"})
	ctl.Handle(OutcomeReceived{Outcome: scan.Outcome{
		Kind:  scan.OutcomeMetadataFetched,
		Draft: &scan.Draft{ISBN: "9780306406157"},
	}})
	ctl.Handle(Cancel{})

	clock.advance(100 * time.Millisecond)
	cmds := ctl.Handle(FileChosen{File: scan.FileInfo{
		Name: "b.jpg", ContentType: "image/jpeg", Size: 1024,
	}})
	var decodes int
	for _, c := range cmds {
		if _, ok := c.(DecodeFile); ok {
			decodes++
		}
	}
	assert.Equal(t, 1, decodes, "file scans are never suppressed by the camera cooldown")
}

func TestFileScanSerializedByInFlightGuard(t *testing.T) {
	ctl, _ := newTestController(false)
	startScanning(t, ctl)

	first := ctl.Handle(FileChosen{File: scan.FileInfo{
		Name: "a.jpg", ContentType: "image/jpeg", Size: 1024,
	}})
	require.NotEmpty(t, first)
	require.True(t, ctl.InFlight())

	second := ctl.Handle(FileChosen{File: scan.FileInfo{
		Name: "b.jpg", ContentType: "image/jpeg", Size: 1024,
	}})
	assert.Empty(t, second, "no two file scans processed concurrently")
}

func TestInvalidFileShortCircuitsBeforeDecode(t *testing.T) {
	ctl, _ := newTestController(false)
	startScanning(t, ctl)

	cmds := ctl.Handle(FileChosen{File: scan.FileInfo{
		Name: "big.jpg", ContentType: "image/jpeg", Size: 12 << 20,
	}})
	assert.Empty(t, cmds, "no decode attempt for an oversized file")
	assert.Equal(t, StateShowingError, ctl.State())
	require.NotNil(t, ctl.Err())
	assert.Equal(t, scan.ErrFileSize, ctl.Err().Type)
}

func TestConstrainedDeviceFileCap(t *testing.T) {
	ctl, _ := newTestController(true)
	startScanning(t, ctl)

	cmds := ctl.Handle(FileChosen{File: scan.FileInfo{
		Name: "mid.jpg", ContentType: "image/jpeg", Size: 8 << 20,
	}})
	assert.Empty(t, cmds)
	require.NotNil(t, ctl.Err())
	assert.Equal(t, scan.ErrFileSize, ctl.Err().Type)
}

func TestFileDecodeFlow(t *testing.T) {
	ctl, _ := newTestController(false)
	startScanning(t, ctl)

	ctl.Handle(FileChosen{File: scan.FileInfo{
		Name: "a.png", ContentType: "image/png", Size: 2048,
	}})
	cmds := ctl.Handle(FileDecoded{Text: "9780306406157"})
	require.Len(t, cmds, 1)
	assert.Equal(t, SubmitScan{Text: "9780306406157", Source: SourceFile}, cmds[0])
}

func TestFileDecodeFailure(t *testing.T) {
	ctl, _ := newTestController(false)
	startScanning(t, ctl)

	ctl.Handle(FileChosen{File: scan.FileInfo{
		Name: "a.png", ContentType: "image/png", Size: 2048,
	}})
	ctl.Handle(FileDecodeFailed{Details: "no barcode located"})

	assert.Equal(t, StateShowingError, ctl.State())
	assert.False(t, ctl.InFlight())
	require.NotNil(t, ctl.Err())
	assert.Equal(t, scan.ErrBarcodeDetection, ctl.Err().Type)
	assert.True(t, ctl.Err().ShowRetry)
}

func TestConfirmFlow(t *testing.T) {
	ctl, _ := newTestController(false)
	startScanning(t, ctl)

	ctl.Handle(Decoded{Text: "9780306406157"})
	ctl.Handle(OutcomeReceived{Outcome: scan.Outcome{
		Kind:  scan.OutcomeMetadataFetched,
		Draft: &scan.Draft{ISBN: "9780306406157", Title: "T"},
	}})
	require.Equal(t, StateShowingResult, ctl.State())
	require.NotNil(t, ctl.Draft())

	cmds := ctl.Handle(Confirm{})
	require.Len(t, cmds, 1)
	assert.Equal(t, SubmitConfirm{Draft: scan.Draft{ISBN: "9780306406157", Title: "T"}}, cmds[0])
	assert.Equal(t, StateProcessing, ctl.State())

	saved := book.Book{ISBN: "9780306406157", Title: "T"}
	cmds = ctl.Handle(ConfirmResult{Book: &saved})
	assert.Equal(t, StateScanning, ctl.State(), "save success resumes scanning")
	assert.Equal(t, []Command{ResumeCamera{}}, cmds)
	assert.Nil(t, ctl.Draft(), "draft cleared after save")
	require.NotNil(t, ctl.Saved())
	assert.Equal(t, "9780306406157", ctl.Saved().ISBN)
}

func TestConfirmFailureShowsError(t *testing.T) {
	ctl, _ := newTestController(false)
	startScanning(t, ctl)

	ctl.Handle(Decoded{Text: "9780306406157"})
	ctl.Handle(OutcomeReceived{Outcome: scan.Outcome{
		Kind:  scan.OutcomeMetadataUnavailable,
		Draft: &scan.Draft{ISBN: "9780306406157"},
	}})
	ctl.Handle(Confirm{})

	dup, _ := scan.DescribeErrorType(scan.ErrDuplicateBook)
	ctl.Handle(ConfirmResult{Err: dup})
	assert.Equal(t, StateShowingError, ctl.State())
	assert.Equal(t, scan.ErrDuplicateBook, ctl.Err().Type)
}

func TestCancelDiscardsDraftWithoutPersisting(t *testing.T) {
	ctl, _ := newTestController(false)
	startScanning(t, ctl)

	ctl.Handle(Decoded{Text: "9780306406157"})
	ctl.Handle(OutcomeReceived{Outcome: scan.Outcome{
		Kind:  scan.OutcomeMetadataFetched,
		Draft: &scan.Draft{ISBN: "9780306406157"},
	}})

	cmds := ctl.Handle(Cancel{})
	assert.Equal(t, []Command{ResumeCamera{}}, cmds)
	assert.Equal(t, StateScanning, ctl.State())
	assert.Nil(t, ctl.Draft())
}

func TestDuplicateOutcomeShowsError(t *testing.T) {
	ctl, _ := newTestController(false)
	startScanning(t, ctl)

	existing := book.Book{ISBN: "9780306406157", Title: "Mine"}
	ctl.Handle(Decoded{Text: "9780306406157"})
	ctl.Handle(OutcomeReceived{Outcome: scan.Outcome{
		Kind:     scan.OutcomeDuplicate,
		Existing: &existing,
	}})

	assert.Equal(t, StateShowingError, ctl.State())
	assert.Equal(t, scan.ErrDuplicateBook, ctl.Err().Type)
	require.NotNil(t, ctl.Existing())
	assert.Equal(t, "Mine", ctl.Existing().Title)

	ctl.Handle(Retry{})
	assert.Nil(t, ctl.Existing())
}

func TestRetryFromErrorResumesScanning(t *testing.T) {
	ctl, _ := newTestController(false)
	startScanning(t, ctl)

	ctl.Handle(Decoded{Text: "1234567890123"})
	invalid := scan.NewScanError(scan.ErrValidation, scan.SeverityLow, "checksum", scan.WithRetry())
	ctl.Handle(OutcomeReceived{Outcome: scan.Outcome{Kind: scan.OutcomeInvalidFormat, Err: invalid}})
	require.Equal(t, StateShowingError, ctl.State())

	cmds := ctl.Handle(Retry{})
	assert.Equal(t, []Command{ResumeCamera{}}, cmds)
	assert.Equal(t, StateScanning, ctl.State())
	assert.Nil(t, ctl.Err())
}

func TestRetryWithoutCameraReacquires(t *testing.T) {
	ctl, _ := newTestController(false)
	ctl.Handle(Start{})
	ctl.Handle(CameraFailed{Class: FailurePermission, Details: "denied"})
	require.Equal(t, StateShowingError, ctl.State())

	cmds := ctl.Handle(Retry{})
	assert.Equal(t, []Command{AcquireCamera{}}, cmds)
	assert.Equal(t, StateInitializing, ctl.State())
}

func TestVisibilityPauseNeedsExplicitResume(t *testing.T) {
	ctl, _ := newTestController(false)
	startScanning(t, ctl)

	cmds := ctl.Handle(VisibilityLost{})
	assert.Equal(t, []Command{PauseCamera{}}, cmds)
	assert.Equal(t, StatePaused, ctl.State())
	assert.True(t, ctl.CameraHeld(), "pause keeps the device handle")

	cmds = ctl.Handle(VisibilityRegained{})
	assert.Equal(t, StatePaused, ctl.State(), "never resumes silently")
	require.Len(t, cmds, 1)
	_, isNotice := cmds[0].(Notice)
	assert.True(t, isNotice)

	cmds = ctl.Handle(Resume{})
	assert.Equal(t, []Command{ResumeCamera{}}, cmds)
	assert.Equal(t, StateScanning, ctl.State())
}

func TestOrientationChangeRestartsCamera(t *testing.T) {
	ctl, _ := newTestController(false)
	startScanning(t, ctl)

	cmds := ctl.Handle(OrientationChanged{})
	assert.Equal(t, []Command{ReleaseCamera{}, AcquireCamera{}}, cmds)
	assert.Equal(t, StateInitializing, ctl.State())
	assert.False(t, ctl.CameraHeld())

	ctl.Handle(CameraReady{})
	assert.Equal(t, StateScanning, ctl.State())
}

func TestAutoTimeoutOnConstrainedDevice(t *testing.T) {
	ctl, clock := newTestController(true)
	startScanning(t, ctl)

	clock.advance(time.Minute)
	assert.Empty(t, ctl.Handle(Tick{}), "not yet")
	require.Equal(t, StateScanning, ctl.State())

	clock.advance(90 * time.Second)
	cmds := ctl.Handle(Tick{})
	require.Len(t, cmds, 2)
	assert.Equal(t, ReleaseCamera{}, cmds[0])
	_, isNotice := cmds[1].(Notice)
	assert.True(t, isNotice, "battery-conservation notice")
	assert.Equal(t, StateIdle, ctl.State())
	assert.False(t, ctl.CameraHeld())
}

func TestNoAutoTimeoutOnUnconstrainedDevice(t *testing.T) {
	ctl, clock := newTestController(false)
	startScanning(t, ctl)

	clock.advance(time.Hour)
	assert.Empty(t, ctl.Handle(Tick{}))
	assert.Equal(t, StateScanning, ctl.State())
}

func TestStopReleasesCameraOnEveryExitPath(t *testing.T) {
	scenarios := []struct {
		name  string
		setup func(ctl *Controller)
	}{
		{"while scanning", func(ctl *Controller) {}},
		{"while paused", func(ctl *Controller) {
			ctl.Handle(VisibilityLost{})
		}},
		{"while processing", func(ctl *Controller) {
			ctl.Handle(Decoded{Text: "9780306406157"})
		}},
		{"while showing result", func(ctl *Controller) {
			ctl.Handle(Decoded{Text: "9780306406157"})
			ctl.Handle(OutcomeReceived{Outcome: scan.Outcome{
				Kind:  scan.OutcomeMetadataFetched,
				Draft: &scan.Draft{ISBN: "9780306406157"},
			}})
		}},
	}
	for _, sc := range scenarios {
		t.Run(sc.name, func(t *testing.T) {
			ctl, _ := newTestController(false)
			startScanning(t, ctl)
			sc.setup(ctl)

			cmds := ctl.Handle(Stop{})
			assert.Equal(t, []Command{ReleaseCamera{}}, cmds)
			assert.Equal(t, StateIdle, ctl.State())
			assert.False(t, ctl.CameraHeld())
			assert.False(t, ctl.InFlight())

			// A second stop must not double-release.
			assert.Empty(t, ctl.Handle(Stop{}))
		})
	}
}

func TestAcquireReleaseStayBalanced(t *testing.T) {
	ctl, clock := newTestController(false)
	startScanning(t, ctl)

	var acquires, releases int
	count := func(cmds []Command) {
		for _, c := range cmds {
			switch c.(type) {
			case AcquireCamera:
				acquires++
			case ReleaseCamera:
				releases++
			}
		}
	}

	count(ctl.Handle(OrientationChanged{}))
	ctl.Handle(CameraReady{})
	count(ctl.Handle(Decoded{Text: "9780306406157"}))
	count(ctl.Handle(OutcomeReceived{Outcome: scan.Outcome{
		Kind:  scan.OutcomeMetadataFetched,
		Draft: &scan.Draft{ISBN: "9780306406157"},
	}}))
	count(ctl.Handle(Cancel{}))
	clock.advance(5 * time.Second)
	count(ctl.Handle(Stop{}))

	// startScanning issued the initial acquire.
	acquires++
	assert.Equal(t, acquires, releases, "every acquire is matched by a release once stopped")
	assert.Equal(t, 2, acquires)
}

func TestEventsInWrongStateAreIgnored(t *testing.T) {
	ctl, _ := newTestController(false)

	assert.Empty(t, ctl.Handle(Decoded{Text: "9780306406157"}), "decode while idle")
	assert.Empty(t, ctl.Handle(Confirm{}), "confirm with no draft")
	assert.Empty(t, ctl.Handle(Resume{}), "resume while idle")
	// A late ready after teardown means the host is holding an unwanted device.
	assert.Equal(t, []Command{ReleaseCamera{}}, ctl.Handle(CameraReady{}))
	assert.Equal(t, StateIdle, ctl.State())
}
