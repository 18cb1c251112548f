package transport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/usercache/internal/entry"
)

// BatchExt is the file extension of snappy-compressed JSON batches.
const BatchExt = ".json.sz"

// doneExt is appended to inbox files once they have been imported.
const doneExt = ".done"

// File exchanges batches through a directory, for hosts where another
// process does the actual upload.
//
//	<dir>/outbox/<batch id>.json.sz   written by Send
//	<dir>/inbox/*.json.sz            read by Fetch, renamed *.done by Ack
type File struct {
	outbox string
	inbox  string
}

// NewFile creates the outbox and inbox directories under dir.
func NewFile(dir string) (*File, error) {
	f := &File{
		outbox: filepath.Join(dir, "outbox"),
		inbox:  filepath.Join(dir, "inbox"),
	}
	for _, d := range []string{f.outbox, f.inbox} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create transport dir: %w", err)
		}
	}
	return f, nil
}

// Outbox returns the directory Send writes to.
func (f *File) Outbox() string { return f.outbox }

// Inbox returns the directory Fetch reads from.
func (f *File) Inbox() string { return f.inbox }

// Send writes the batch to the outbox. The file appears atomically.
func (f *File) Send(ctx context.Context, batch Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeBatch(batch)
	if err != nil {
		return err
	}

	final := filepath.Join(f.outbox, batch.ID+BatchExt)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write batch %s: %w", batch.ID, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publish batch %s: %w", batch.ID, err)
	}
	return nil
}

// Pending lists the inbox files not yet acknowledged, in name order.
func (f *File) Pending(_ context.Context) ([]string, error) {
	dirEntries, err := os.ReadDir(f.inbox)
	if err != nil {
		return nil, fmt.Errorf("list inbox: %w", err)
	}
	names := []string{}
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), BatchExt) {
			continue
		}
		names = append(names, de.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Fetch decodes one inbox file. The file stays pending.
func (f *File) Fetch(ctx context.Context, ref string) ([]entry.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := f.inboxPath(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inbox file %s: %w", ref, err)
	}
	records, err := decodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("inbox file %s: %w", ref, err)
	}
	return records, nil
}

// Ack renames an imported inbox file to *.done.
func (f *File) Ack(_ context.Context, ref string) error {
	path, err := f.inboxPath(ref)
	if err != nil {
		return err
	}
	if err := os.Rename(path, path+doneExt); err != nil {
		return fmt.Errorf("mark inbox file %s done: %w", ref, err)
	}
	return nil
}

func (f *File) inboxPath(ref string) (string, error) {
	if ref == "" || filepath.Base(ref) != ref || !strings.HasSuffix(ref, BatchExt) {
		return "", fmt.Errorf("invalid inbox ref %q", ref)
	}
	return filepath.Join(f.inbox, ref), nil
}

// WriteInbox drops records into the inbox as if the server had sent them.
func (f *File) WriteInbox(name string, records []entry.Record) error {
	batch, err := NewBatch(records)
	if err != nil {
		return err
	}
	data, err := encodeBatch(batch)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(f.inbox, name+BatchExt), data, 0o644); err != nil {
		return fmt.Errorf("write inbox file: %w", err)
	}
	return nil
}

// ReadBatchFile decodes one batch file, e.g. from the outbox.
func ReadBatchFile(path string) ([]entry.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	return decodeRecords(data)
}
