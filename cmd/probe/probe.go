package probe

import (
	"fmt"

	humanize "github.com/dustin/go-humanize"
	"github.com/itchio/crowbar/archive"
	"github.com/itchio/crowbar/comm"
	"github.com/itchio/crowbar/mansion"
)

var args = struct {
	archive *string
	entries *bool
}{}

func Register(ctx *mansion.Context) {
	cmd := ctx.App.Command("probe", "Show what an archive contains without extracting it")
	args.archive = cmd.Arg("archive", "Path of the archive to analyze").Required().String()
	args.entries = cmd.Flag("entries", "List every entry, not just the summary").Short('e').Bool()
	ctx.Register(cmd, do)
}

func do(ctx *mansion.Context) {
	ctx.Must(Do(*args.archive, *args.entries))
}

// Do probes a single archive. In JSON mode, the whole entry list is always
// part of the result.
func Do(archivePath string, showEntries bool) error {
	info, err := archive.Probe(&archive.ProbeParams{
		ArchivePath: archivePath,
		Consumer:    comm.NewStateConsumer(),
	})
	if err != nil {
		return err
	}

	res := &mansion.ProbeResult{
		Path:                 archivePath,
		Format:               info.Format.String(),
		Entries:              info.Entries,
		CompressedBytes:      info.CompressedBytes,
		UncompressedEstimate: info.UncompressedEstimate,
		Encrypted:            info.Encrypted,
		EntryList:            info.EntryList,
	}

	comm.ResultOrPrint(res, func() {
		comm.Table([]string{"Archive", "Format", "Entries", "Size", "Unpacked", "Encrypted"}, [][]string{
			summaryRow(res),
		})
		if showEntries && len(res.EntryList) > 0 {
			comm.Table([]string{"Path", "Size", "Packed"}, entryRows(res.EntryList))
		}
	})
	return nil
}

func summaryRow(res *mansion.ProbeResult) []string {
	encrypted := "no"
	if res.Encrypted {
		encrypted = "yes"
	}
	return []string{
		res.Path,
		res.Format,
		fmt.Sprintf("%d", res.Entries),
		formatSize(res.CompressedBytes),
		formatSize(res.UncompressedEstimate),
		encrypted,
	}
}

func entryRows(entries []*archive.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir {
			rows = append(rows, []string{e.Path, "-", "-"})
			continue
		}
		rows = append(rows, []string{
			e.Path,
			humanize.IBytes(e.UncompressedSize),
			formatSize(e.CompressedSize),
		})
	}
	return rows
}

func formatSize(size *uint64) string {
	if size == nil {
		return "?"
	}
	return humanize.IBytes(*size)
}
