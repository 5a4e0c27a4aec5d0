package scanner

import (
	"bookshelf/internal/book"
	"bookshelf/internal/scan"
)

// Event is something that happened in the host environment: user input,
// camera lifecycle, a decode, or a server response.
type Event interface{ isEvent() }

// Start is the user starting the camera scan flow.
type Start struct{}

// CameraReady signals the detection capability was acquired.
type CameraReady struct{}

// CameraFailed signals camera acquisition failed, classified by the host.
type CameraFailed struct {
	Class   CameraFailure
	Details string
}

// Decoded carries a string decoded from a camera frame.
type Decoded struct {
	Text string
}

// FileChosen is the user selecting an image file to scan.
type FileChosen struct {
	File scan.FileInfo
}

// FileDecoded carries the string decoded from a chosen file.
type FileDecoded struct {
	Text string
}

// FileDecodeFailed signals no barcode was found in the chosen file.
type FileDecodeFailed struct {
	Details string
}

// OutcomeReceived carries the scan processor's response.
type OutcomeReceived struct {
	Outcome scan.Outcome
}

// SubmitFailed signals the round trip to the processor itself failed.
type SubmitFailed struct {
	Err *scan.ScanError
}

// Confirm is the explicit save action on a shown draft.
type Confirm struct{}

// ConfirmResult carries the save response.
type ConfirmResult struct {
	Book *book.Book
	Err  *scan.ScanError
}

// Cancel discards the current draft or in-flight interaction.
type Cancel struct{}

// Retry leaves the error view and resumes scanning.
type Retry struct{}

// VisibilityLost signals the host lost visibility or focus.
type VisibilityLost struct{}

// VisibilityRegained signals visibility came back. Scanning resumes only on
// an explicit Resume.
type VisibilityRegained struct{}

// Resume is the explicit user action resuming from the paused sub-state.
type Resume struct{}

// OrientationChanged signals a device orientation change.
type OrientationChanged struct{}

// Tick drives time-based transitions; the controller consults its clock.
type Tick struct{}

// Stop is any explicit exit: stop button, page unload, teardown.
type Stop struct{}

func (Start) isEvent()              {}
func (CameraReady) isEvent()        {}
func (CameraFailed) isEvent()       {}
func (Decoded) isEvent()            {}
func (FileChosen) isEvent()         {}
func (FileDecoded) isEvent()        {}
func (FileDecodeFailed) isEvent()   {}
func (OutcomeReceived) isEvent()    {}
func (SubmitFailed) isEvent()       {}
func (Confirm) isEvent()            {}
func (ConfirmResult) isEvent()      {}
func (Cancel) isEvent()             {}
func (Retry) isEvent()              {}
func (VisibilityLost) isEvent()     {}
func (VisibilityRegained) isEvent() {}
func (Resume) isEvent()             {}
func (OrientationChanged) isEvent() {}
func (Tick) isEvent()               {}
func (Stop) isEvent()               {}
