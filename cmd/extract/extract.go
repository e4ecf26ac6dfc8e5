package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/itchio/crowbar/archive"
	"github.com/itchio/crowbar/comm"
	"github.com/itchio/crowbar/config"
	"github.com/itchio/crowbar/mansion"
	"github.com/itchio/headway/state"
	"github.com/itchio/headway/united"
	"github.com/pkg/errors"
	"github.com/skratchdot/open-golang/open"
	"golang.org/x/sync/errgroup"
)

// maxPasswordAttempts bounds interactive password prompts per archive
const maxPasswordAttempts = 3

const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

var args = struct {
	archives        *[]string
	out             *string
	overwrite       *string
	password        *string
	stripComponents *string
	sizeLimit       *string
	allowSymlinks   *bool
	allowHardlinks  *bool
	jobs            *int
	open            *bool
}{}

func Register(ctx *mansion.Context) {
	cmd := ctx.App.Command("extract", "Safely extract one or more archives (zip, tar.*, 7z, rar, iso, gz, bz2, xz)")
	args.archives = cmd.Arg("archives", "Paths of the archives to extract").Required().Strings()
	args.out = cmd.Flag("out", "Directory to extract to (defaults to a folder named after the archive, next to it)").Short('o').String()
	args.overwrite = cmd.Flag("overwrite", "What to do with existing files: replace, skip or rename").PlaceHolder("MODE").String()
	args.password = cmd.Flag("password", "Password for encrypted archives").Short('p').String()
	args.stripComponents = cmd.Flag("strip-components", "Remove that many leading path components from every entry").PlaceHolder("N").String()
	args.sizeLimit = cmd.Flag("size-limit", "Maximum number of bytes to write per archive, e.g. 20GiB, or 'none'").PlaceHolder("SIZE").String()
	args.allowSymlinks = cmd.Flag("allow-symlinks", "Create symbolic links found in archives").Bool()
	args.allowHardlinks = cmd.Flag("allow-hardlinks", "Create hard links found in archives").Bool()
	args.jobs = cmd.Flag("jobs", "How many archives to extract at once").Short('j').Int()
	args.open = cmd.Flag("open", "Open the output folder when done").Bool()
	ctx.Register(cmd, do)
}

func do(ctx *mansion.Context) {
	settings := ctx.Settings()

	opts, err := settings.ExtractOptions()
	ctx.Must(err)
	ctx.Must(applyFlags(opts))

	jobs := settings.Jobs
	if *args.jobs > 0 {
		jobs = *args.jobs
	}

	ctx.Must(Do(&ExtractParams{
		Archives:     *args.archives,
		OutputDir:    *args.out,
		Options:      opts,
		Jobs:         jobs,
		Interactive:  mansion.IsTerminal() && !ctx.JSON,
		OpenWhenDone: *args.open,
	}))
}

// applyFlags overrides config file values with command-line flags
func applyFlags(opts *archive.ExtractOptions) error {
	if *args.overwrite != "" {
		mode, err := archive.ParseOverwriteMode(*args.overwrite)
		if err != nil {
			return err
		}
		opts.Overwrite = mode
	}

	if *args.sizeLimit != "" {
		limit, err := config.ParseSizeLimit(*args.sizeLimit)
		if err != nil {
			return err
		}
		opts.SizeLimit = limit
	}

	if *args.stripComponents != "" {
		n, err := strconv.ParseUint(*args.stripComponents, 10, 32)
		if err != nil {
			return errors.Errorf("invalid --strip-components value %q", *args.stripComponents)
		}
		opts.StripComponents = uint32(n)
	}

	opts.AllowSymlinks = opts.AllowSymlinks || *args.allowSymlinks
	opts.AllowHardlinks = opts.AllowHardlinks || *args.allowHardlinks

	if *args.password != "" {
		opts.Password = args.password
	}
	return nil
}

type ExtractParams struct {
	Archives []string

	// OutputDir is used as-is for a single archive, and as a parent
	// folder when there are several. Empty means next to each archive.
	OutputDir string

	Options *archive.ExtractOptions
	Jobs    int

	// Interactive allows prompting for passwords
	Interactive bool

	OpenWhenDone bool
}

type job struct {
	id      string
	archive string
	output  string

	cancel *archive.CancelFlag

	// done is this job's share of the overall progress, in bytes
	done int64
}

// Do extracts every archive, each in its own job with its own options,
// cancel flag and stats. A failed archive doesn't stop the others.
func Do(params *ExtractParams) error {
	if len(params.Archives) == 0 {
		return errors.New("extract: at least one archive must be specified")
	}
	if params.Options == nil {
		params.Options = archive.DefaultExtractOptions()
	}
	if params.Jobs < 1 {
		params.Jobs = 1
	}

	jobs := make([]*job, len(params.Archives))
	for i, archivePath := range params.Archives {
		output := params.OutputDir
		switch {
		case output == "":
			output = DefaultOutputDir(archivePath)
		case len(params.Archives) > 1:
			output = filepath.Join(output, outputName(archivePath))
		}
		jobs[i] = &job{
			id:      uuid.New().String(),
			archive: archivePath,
			output:  output,
			cancel:  archive.NewCancelFlag(),
		}
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-sigCtx.Done():
			comm.Warnf("Interrupted, stopping after the current chunk")
			for _, j := range jobs {
				j.cancel.Cancel()
			}
		case <-finished:
		}
	}()

	totalBytes := estimateTotal(jobs)
	var doneBytes int64

	startTime := time.Now()
	comm.StartProgressWithTotalBytes(totalBytes)

	results := make([]*mansion.ExtractResult, len(jobs))
	var promptMu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(params.Jobs)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			onBytes := func(jobBytes uint64) {
				delta := int64(jobBytes) - atomic.LoadInt64(&j.done)
				atomic.StoreInt64(&j.done, int64(jobBytes))
				comm.ProgressBytes(atomic.AddInt64(&doneBytes, delta))
			}
			results[i] = runJob(params, j, len(jobs) > 1, &promptMu, onBytes)
			return nil
		})
	}
	g.Wait()
	comm.EndProgress()

	var numFailed, numCancelled int
	var totalWritten uint64
	for _, res := range results {
		totalWritten += res.BytesWritten
		switch res.Status {
		case StatusFailed:
			numFailed++
		case StatusCancelled:
			numCancelled++
		}
	}

	duration := time.Since(startTime)
	comm.Statf("Overall extraction speed: %s/s", united.FormatBPS(int64(totalWritten), duration))
	slog.Debug("extraction finished",
		slog.Int("archives", len(jobs)),
		slog.Int("failed", numFailed),
		slog.Int("cancelled", numCancelled),
		slog.Uint64("bytesWritten", totalWritten),
		slog.Duration("duration", duration),
	)

	if params.OpenWhenDone {
		for _, res := range results {
			if res.Status == StatusSuccess {
				if err := open.Start(res.Output); err != nil {
					comm.Warnf("Could not open %s: %s", res.Output, err.Error())
				}
			}
		}
	}

	switch {
	case numCancelled > 0:
		return errors.Errorf("extraction cancelled (%d of %d archives)", numCancelled, len(jobs))
	case numFailed > 0:
		return errors.Errorf("%d of %d archives failed to extract", numFailed, len(jobs))
	}
	return nil
}

func runJob(params *ExtractParams, j *job, prefixed bool, promptMu *sync.Mutex, onBytes func(uint64)) *mansion.ExtractResult {
	consumer := newJobConsumer(j, prefixed)
	logger := slog.With(slog.String("job", j.id), slog.String("archive", j.archive))
	opts := params.Options

	res := &mansion.ExtractResult{
		Archive: j.archive,
		Output:  j.output,
	}

	// ask before writing anything if we already know a password is needed
	if opts.Password == nil && params.Interactive {
		info, err := archive.Probe(&archive.ProbeParams{
			ArchivePath: j.archive,
			Consumer:    consumer,
		})
		if err == nil && info.Encrypted {
			pw, err := askPassword(promptMu, j.archive, false)
			if err == nil {
				opts = opts.WithPassword(pw)
			}
		}
	}

	var stats *archive.ExtractStats
	var err error
	for attempt := 1; ; attempt++ {
		stats, err = archive.Extract(&archive.ExtractParams{
			ArchivePath: j.archive,
			OutputDir:   j.output,
			Options:     opts,
			Cancel:      j.cancel,
			Consumer:    consumer,
			OnProgress: func(file string, bytesSoFar uint64, total *uint64) bool {
				onBytes(bytesSoFar)
				comm.ProgressLabel(file)
				return true
			},
		})

		if err == nil || !archive.IsPasswordError(err) || !params.Interactive || attempt > maxPasswordAttempts {
			break
		}

		logger.Debug("asking for password",
			slog.Int("attempt", attempt),
			slog.Any("error", err),
			slog.Int("resumable", len(stats.Written)),
		)
		pw, perr := askPassword(promptMu, j.archive, archive.KindOf(err) == archive.KindInvalidPassword)
		if perr != nil {
			break
		}
		opts = retryOptions(opts, pw, stats)
	}

	if stats != nil {
		res.FilesExtracted = stats.FilesExtracted
		res.BytesWritten = stats.BytesWritten
		res.Seconds = stats.Duration.Seconds()
	}

	fields := comm.JsonMessage{
		"archive": j.archive,
		"output":  j.output,
	}
	switch {
	case err == nil:
		res.Status = StatusSuccess
		fields["filesExtracted"] = res.FilesExtracted
		fields["bytesWritten"] = res.BytesWritten
	case archive.IsCancelled(err):
		res.Status = StatusCancelled
	default:
		res.Status = StatusFailed
		res.Error = err.Error()
		res.ErrorKind = archive.KindOf(err).String()
		fields["error"] = res.Error
		fields["errorKind"] = res.ErrorKind
		consumer.Debugf("%+v", err)
	}
	comm.Event(j.id, res.Status, fields)
	return res
}

// retryOptions carries a new password. Entries the failed attempt already
// wrote are resumed rather than written a second time.
func retryOptions(opts *archive.ExtractOptions, password string, previous *archive.ExtractStats) *archive.ExtractOptions {
	res := opts.WithPassword(password)
	if previous != nil && len(previous.Written) > 0 {
		resume := make(map[string]string, len(opts.Resume)+len(previous.Written))
		for rel, path := range opts.Resume {
			resume[rel] = path
		}
		for rel, path := range previous.Written {
			resume[rel] = path
		}
		res.Resume = resume
	}
	return res
}

func askPassword(promptMu *sync.Mutex, archivePath string, wrong bool) (string, error) {
	promptMu.Lock()
	defer promptMu.Unlock()

	comm.PauseProgress()
	defer comm.ResumeProgress()

	prompt := fmt.Sprintf("Password for %s: ", filepath.Base(archivePath))
	if wrong {
		prompt = fmt.Sprintf("Wrong password, try again for %s: ", filepath.Base(archivePath))
	}
	return mansion.ReadPassword(prompt)
}

// newJobConsumer logs through comm, prefixing messages with the archive
// name when several jobs share the output
func newJobConsumer(j *job, prefixed bool) *state.Consumer {
	prefix := ""
	if prefixed {
		prefix = fmt.Sprintf("[%s] ", filepath.Base(j.archive))
	}
	return &state.Consumer{
		OnMessage: func(level string, msg string) {
			comm.Logl(level, prefix+msg)
		},
	}
}

// estimateTotal probes every archive for a progress bar total. Archives
// that can't be probed just don't count, extraction will report why.
func estimateTotal(jobs []*job) int64 {
	var total int64
	for _, j := range jobs {
		info, err := archive.Probe(&archive.ProbeParams{ArchivePath: j.archive})
		if err != nil || info.UncompressedEstimate == nil {
			continue
		}
		total += int64(*info.UncompressedEstimate)
	}
	return total
}

// DefaultOutputDir is where an archive extracts to when no output folder
// is given: a folder named after it, next to it. Single compressed files
// extract right next to the archive.
func DefaultOutputDir(archivePath string) string {
	dir := filepath.Dir(archivePath)
	if format, err := archive.Detect(archivePath); err == nil && format.IsRawStream() {
		return dir
	}
	return filepath.Join(dir, outputName(archivePath))
}

// outputName is the archive's name without archive extensions, so that
// "game.tar.gz" and "game.part1.rar" both give "game"
func outputName(archivePath string) string {
	name := filepath.Base(archivePath)
	lower := strings.ToLower(name)

	for _, suffix := range []string{".tar.gz", ".tar.bz2", ".tar.xz"} {
		if strings.HasSuffix(lower, suffix) {
			return name[:len(name)-len(suffix)]
		}
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	// multi-part: game.part1.rar, game.7z.001
	if inner := filepath.Ext(stem); inner != "" {
		lowerInner := strings.ToLower(inner)
		if strings.HasPrefix(lowerInner, ".part") || lowerInner == ".7z" || lowerInner == ".zip" {
			stem = strings.TrimSuffix(stem, inner)
		}
	}

	if stem == "" {
		return name + ".out"
	}
	return stem
}
