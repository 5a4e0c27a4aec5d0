package scanner

import "bookshelf/internal/scan"

// Command is a side effect the host must execute on the controller's behalf.
// The controller itself performs no I/O.
type Command interface{ isCommand() }

// AcquireCamera asks the host to acquire the shared detection capability.
type AcquireCamera struct{}

// ReleaseCamera fully releases the device handle.
type ReleaseCamera struct{}

// PauseCamera stops frame consumption but keeps the device handle.
type PauseCamera struct{}

// ResumeCamera resumes frame consumption on a held device.
type ResumeCamera struct{}

// DecodeFile asks the host to run the barcode detector over a chosen file.
type DecodeFile struct {
	File scan.FileInfo
}

// SubmitScan sends a decoded string to the scan processor boundary.
type SubmitScan struct {
	Text   string
	Source Source
}

// SubmitConfirm sends a draft to the save-confirmation boundary.
type SubmitConfirm struct {
	Draft scan.Draft
}

// Notice surfaces an informational message to the user.
type Notice struct {
	Text string
}

func (AcquireCamera) isCommand() {}
func (ReleaseCamera) isCommand() {}
func (PauseCamera) isCommand()   {}
func (ResumeCamera) isCommand()  {}
func (DecodeFile) isCommand()    {}
func (SubmitScan) isCommand()    {}
func (SubmitConfirm) isCommand() {}
func (Notice) isCommand()        {}
