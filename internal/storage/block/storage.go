package block

import (
	"context"
	"fmt"
	"mime"
	"path"
	"time"
)

// ReportPrefix starts the name of every reports export
const ReportPrefix = "reportes_"

// ReportName returns the file name of a reports export made on day
func ReportName(day time.Time) string {
	return fmt.Sprintf("%s%s.pdf", ReportPrefix, day.Format("2006-01-02"))
}

// Save writes data to name and returns the stored object's metadata.
// An existing object with the same name is replaced.
func Save(ctx context.Context, st Storage, name string, data []byte) (*Metadata, error) {
	w, err := st.Writer(ctx, name)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, &StorageError{Op: "write", Path: name, Err: err}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return st.Stat(ctx, name)
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
