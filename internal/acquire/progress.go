// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

// ProgressFunc reports download progress after each chunk is written.
// total is -1 when the server did not announce a Content-Length.
type ProgressFunc func(transferred, total int64)

// DownloadTask tracks one file being written to disk. It lives only for
// the duration of that write.
type DownloadTask struct {
	Path        string
	Total       int64
	Transferred int64

	report ProgressFunc
}

func newDownloadTask(path string, total int64, report ProgressFunc) *DownloadTask {
	if total < 0 {
		total = -1
	}
	return &DownloadTask{Path: path, Total: total, report: report}
}

// Advance records n more bytes written and notifies the progress callback.
func (t *DownloadTask) Advance(n int) {
	t.Transferred += int64(n)
	if t.report != nil {
		t.report(t.Transferred, t.Total)
	}
}
