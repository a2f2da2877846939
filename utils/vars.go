package utils

const (
	// DefaultChunkSize is the streaming chunk size used when the caller
	// does not configure one.
	DefaultChunkSize = 1024 * 1024

	// MaxChunkSize caps adaptive chunk growth for very large files.
	MaxChunkSize = 8 * 1024 * 1024

	// SmallFileThreshold is the size below which ranged downloads do not
	// pay off and a single stream is used instead.
	SmallFileThreshold = 10 * 1024 * 1024

	// DefaultNumParts is the number of parallel ranges per file.
	DefaultNumParts = 5

	// MaxURLLength is the DataQuery API limit on request URL length.
	MaxURLLength = 2080
)

const ToolUserAgent = "dataquery-go-sdk"
