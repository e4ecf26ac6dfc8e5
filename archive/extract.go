package archive

import (
	"fmt"
	"io"
	"os"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/itchio/crowbar/counter"
	"github.com/itchio/headway/state"
	"github.com/pkg/errors"
)

// copyBufferSize is also the cancellation granularity within an entry
const copyBufferSize = 32 * 1024

// Extract unpacks an archive into params.OutputDir.
//
// Entries are processed one at a time, in archive order. A security or
// size violation aborts the whole run. On cancellation, the partial stats
// are returned along with an error of kind KindCancelled.
func Extract(params *ExtractParams) (*ExtractStats, error) {
	if params == nil {
		return nil, errors.New("archive.Extract called with nil params")
	}

	consumer := consumerOrSilent(params.Consumer)
	opts := params.Options
	if opts == nil {
		opts = DefaultExtractOptions()
	}

	startTime := time.Now()
	stats := &ExtractStats{Written: make(map[string]string)}
	finish := func(err error) (*ExtractStats, error) {
		stats.Duration = time.Since(startTime)
		if IsCancelled(err) {
			stats.Cancelled = true
		}
		return stats, err
	}

	vol, err := openVolume(params.ArchivePath, consumer)
	if err != nil {
		return finish(err)
	}

	handler, err := handlerFor(vol.Format)
	if err != nil {
		return finish(err)
	}

	if params.Cancel.IsCancelled() {
		return finish(cancelled())
	}

	if err := os.MkdirAll(params.OutputDir, DirMode); err != nil {
		return finish(ioError(errors.Wrap(err, "creating output directory")))
	}

	consumer.Opf("Extracting %s (%s) to %s", vol.Path, vol.Format, params.OutputDir)

	ex := &extractor{
		opts:   opts,
		stats:  stats,
		params: params,
		sink: &FolderSink{
			Directory: params.OutputDir,
			Consumer:  consumer,
		},
		consumer: consumer,
	}

	err = handler.Walk(&WalkParams{
		Path:     vol.Path,
		Format:   vol.Format,
		Password: opts.Password,
		Consumer: consumer,
	}, ex.entry)
	if err != nil {
		return finish(classifyBackendError(opts, err))
	}

	stats, err = finish(nil)
	consumer.Statf("Extracted %d files (%s) in %s, skipped %d",
		stats.FilesExtracted, humanize.IBytes(stats.BytesWritten), stats.Duration, ex.numSkipped)
	if ex.numDirs > 0 || ex.numLinks > 0 {
		consumer.Debugf("%d directories, %d links", ex.numDirs, ex.numLinks)
	}
	return stats, err
}

// openVolume checks that the archive exists and figures out its format,
// resolving multi-part sets to their first part.
func openVolume(archivePath string, consumer *state.Consumer) (*Volume, error) {
	if _, err := os.Stat(archivePath); err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(archivePath)
		}
		return nil, ioError(errors.WithStack(err))
	}

	vol, err := ResolveVolume(archivePath)
	if err != nil {
		return nil, err
	}

	if vol.MultiPart {
		if _, err := os.Stat(vol.Path); err != nil {
			if os.IsNotExist(err) {
				return nil, notFound(vol.Path)
			}
			return nil, ioError(errors.WithStack(err))
		}
		consumer.Infof("Multi-part archive, starting from first part %s", vol.Path)
	}
	return vol, nil
}

type extractor struct {
	opts     *ExtractOptions
	stats    *ExtractStats
	params   *ExtractParams
	sink     *FolderSink
	consumer *state.Consumer

	numDirs    int
	numLinks   int
	numSkipped int
}

func (ex *extractor) entry(raw *RawEntry, open OpenFunc) error {
	if ex.params.Cancel.IsCancelled() {
		return cancelled()
	}

	if raw.Undecodable {
		ex.consumer.Warnf("Skipping entry with undecodable name %q", raw.Name)
		ex.numSkipped++
		return nil
	}

	normalized, err := ValidatePath(raw.Name)
	if err != nil {
		return err
	}

	rel := StripComponents(normalized, ex.opts.StripComponents)
	if rel == "" {
		return nil
	}

	if !IsAdmissible(raw.Kind, ex.opts) {
		return securityError(SecurityUnsafeEntryType, fmt.Sprintf("%s (%s)", raw.Name, raw.Kind))
	}

	if prev, ok := ex.opts.Resume[rel]; ok && raw.Kind != EntryDir {
		ex.consumer.Debugf("%s was already extracted to %s", rel, prev)
		ex.stats.Written[rel] = prev
		return nil
	}

	switch raw.Kind {
	case EntryDir:
		ex.numDirs++
		return ex.sink.Mkdir(rel)
	case EntrySymlink:
		return ex.symlink(rel, raw)
	case EntryHardlink:
		return ex.hardlink(rel, raw)
	default:
		return ex.file(rel, raw, open)
	}
}

func (ex *extractor) file(rel string, raw *RawEntry, open OpenFunc) error {
	// bound disk usage before committing a single byte
	if err := CheckSize(addSize(ex.stats.BytesWritten, raw.Size), ex.opts.SizeLimit); err != nil {
		return err
	}

	w, err := ex.sink.GetWriter(rel, ex.opts.Overwrite, permFor(raw.Mode))
	if err != nil {
		return err
	}
	if w == nil {
		ex.numSkipped++
		return nil
	}

	src, err := open()
	if err != nil {
		w.Abort()
		return classifyBackendError(ex.opts, err)
	}

	written, err := ex.copy(w, src)
	src.Close()
	if err != nil {
		w.Abort()
		return err
	}

	if err := w.Commit(); err != nil {
		return err
	}
	ex.stats.Written[rel] = w.Path()

	ex.stats.BytesWritten += written
	ex.stats.FilesExtracted++
	ex.consumer.Infof("→ %s (%s)", rel, humanize.IBytes(written))

	if ex.params.OnProgress != nil {
		total := written
		if !ex.params.OnProgress(rel, ex.stats.BytesWritten, &total) {
			return cancelled()
		}
	}
	return nil
}

// copy streams one entry, checking for cancellation and enforcing the size
// limit on every chunk: declared sizes are not trusted.
func (ex *extractor) copy(dst io.Writer, src io.Reader) (uint64, error) {
	base := ex.stats.BytesWritten
	cw := counter.NewWithCallback(func(count int64) error {
		if ex.params.Cancel.IsCancelled() {
			return cancelled()
		}
		return CheckSize(addSize(base, uint64(count)), ex.opts.SizeLimit)
	}, dst)

	buf := make([]byte, copyBufferSize)
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := cw.Write(buf[:n]); err != nil {
				return uint64(cw.Count()), ioError(err)
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return uint64(cw.Count()), nil
			}
			return uint64(cw.Count()), classifyBackendError(ex.opts, readErr)
		}
	}
}

func (ex *extractor) symlink(rel string, raw *RawEntry) error {
	if err := validateSymlinkTarget(rel, raw.Linkname); err != nil {
		return err
	}

	dst, err := ex.sink.Symlink(rel, raw.Linkname, ex.opts.Overwrite)
	if err != nil {
		return err
	}
	if dst == "" {
		ex.numSkipped++
		return nil
	}
	ex.stats.Written[rel] = dst
	ex.numLinks++
	ex.consumer.Debugf("~> %s -> %s", rel, raw.Linkname)
	return nil
}

func (ex *extractor) hardlink(rel string, raw *RawEntry) error {
	target, err := ValidatePath(raw.Linkname)
	if err != nil {
		return err
	}

	target = StripComponents(target, ex.opts.StripComponents)
	if target == "" {
		// the target was stripped away, there is nothing to link to
		ex.consumer.Warnf("Skipping hardlink %s: target %s is outside the extracted tree", rel, raw.Linkname)
		ex.numSkipped++
		return nil
	}

	// hardlinks only ever point at what this run wrote, wherever renaming
	// put it, never at files that were already on disk
	src, ok := ex.stats.Written[target]
	if !ok {
		// skipped, or not a file this run wrote
		ex.consumer.Warnf("Skipping hardlink %s: target %s was not extracted", rel, raw.Linkname)
		ex.numSkipped++
		return nil
	}

	dst, err := ex.sink.Hardlink(rel, src, ex.opts.Overwrite)
	if err != nil {
		return err
	}
	if dst == "" {
		ex.numSkipped++
		return nil
	}
	ex.stats.Written[rel] = dst
	ex.numLinks++
	ex.consumer.Debugf("=> %s -> %s", rel, target)
	return nil
}
