// Package lockprobe decides whether a document is currently held open by an
// editor.
//
// Three signals are combined with OR:
//   - open: opening the file read-write without creating it fails with EBUSY,
//     EACCES, EPERM, or ETXTBSY.
//   - advisory: a non-blocking exclusive flock on the file is refused because
//     another process holds one.
//   - sentinel: an office suite owner file sits next to the document, such as
//     "~$report.docx" (Microsoft Office) or ".~lock.report.docx#" (LibreOffice).
//
// Open errors outside the locked set are indeterminate: the file is reported
// unlocked and the cause is returned in Result.Indeterminate for logging. A
// missing file is never a lock state; Probe returns ErrNotExist instead.
package lockprobe
