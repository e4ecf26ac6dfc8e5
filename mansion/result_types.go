package mansion

import "github.com/itchio/crowbar/archive"

// ProbeResult is sent in json mode by the probe command
//
// For command `probe`
type ProbeResult struct {
	Path                 string           `json:"path"`
	Format               string           `json:"format"`
	Entries              uint64           `json:"entries"`
	CompressedBytes      *uint64          `json:"compressedBytes,omitempty"`
	UncompressedEstimate *uint64          `json:"uncompressedEstimate,omitempty"`
	Encrypted            bool             `json:"encrypted"`
	EntryList            []*archive.Entry `json:"entryList"`
}

// ExtractResult is sent once per archive by the extract command
//
// For command `extract`
type ExtractResult struct {
	Archive        string  `json:"archive"`
	Output         string  `json:"output"`
	Status         string  `json:"status"`
	FilesExtracted uint64  `json:"filesExtracted"`
	BytesWritten   uint64  `json:"bytesWritten"`
	Seconds        float64 `json:"seconds"`
	Error          string  `json:"error,omitempty"`
	ErrorKind      string  `json:"errorKind,omitempty"`
}

// ConfigResult is sent in json mode by the config command
//
// For command `config`
type ConfigResult struct {
	Path     string      `json:"path"`
	Exists   bool        `json:"exists"`
	Settings interface{} `json:"settings"`
}
