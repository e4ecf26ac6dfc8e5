package archive

import (
	"os"

	humanize "github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// Probe lists an archive without extracting anything. It shares format
// detection and backends with Extract, and never writes to disk.
func Probe(params *ProbeParams) (*ArchiveInfo, error) {
	if params == nil {
		return nil, errors.New("archive.Probe called with nil params")
	}
	consumer := consumerOrSilent(params.Consumer)

	vol, err := openVolume(params.ArchivePath, consumer)
	if err != nil {
		return nil, err
	}

	// multi-part sets are sized by the volume that gets read
	stats, err := os.Stat(vol.Path)
	if err != nil {
		return nil, ioError(errors.WithStack(err))
	}

	handler, err := handlerFor(vol.Format)
	if err != nil {
		return nil, err
	}

	compressedBytes := uint64(stats.Size())
	info := &ArchiveInfo{
		Format:          vol.Format,
		CompressedBytes: &compressedBytes,
		EntryList:       []*Entry{},
	}

	var totalSize uint64
	err = handler.Walk(&WalkParams{
		Path:     vol.Path,
		Format:   vol.Format,
		ListOnly: true,
		Consumer: consumer,
	}, func(raw *RawEntry, open OpenFunc) error {
		if raw.Undecodable {
			consumer.Warnf("Ignoring entry with undecodable name %q", raw.Name)
			return nil
		}
		if raw.Encrypted {
			info.Encrypted = true
		}

		info.EntryList = append(info.EntryList, &Entry{
			Path:             raw.Name,
			IsDir:            raw.Kind == EntryDir,
			UncompressedSize: raw.Size,
			CompressedSize:   raw.CompressedSize,
		})
		totalSize = addSize(totalSize, raw.Size)
		return nil
	})

	if err != nil {
		if KindOf(err) == KindUnknown && (errors.Is(err, ErrPassword) || mentionsPassword(err)) {
			consumer.Infof("%s cannot be listed without a password", vol.Path)
			return &ArchiveInfo{
				Format:          vol.Format,
				CompressedBytes: &compressedBytes,
				Encrypted:       true,
				EntryList:       []*Entry{},
			}, nil
		}
		return nil, classifyBackendError(nil, err)
	}

	info.Entries = uint64(len(info.EntryList))
	if totalSize > 0 {
		info.UncompressedEstimate = &totalSize
	}

	consumer.Debugf("%s: %d entries, %s uncompressed", vol.Format, info.Entries, humanize.IBytes(totalSize))
	return info, nil
}
