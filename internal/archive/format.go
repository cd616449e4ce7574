// Package archive lists and extracts downloaded release archives and picks the
// executables worth installing out of them.
package archive

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"forge/internal/logger"
)

// Format is a supported archive layout. Raw means the download is the executable.
type Format string

const (
	Tar      Format = "tar"
	TarGz    Format = "tar.gz"
	TarBz2   Format = "tar.bz2"
	TarXz    Format = "tar.xz"
	TarZst   Format = "tar.zst"
	Zip      Format = "zip"
	SevenZip Format = "7z"
	Raw      Format = "raw"
)

// ErrUnexpectedContent is returned for downloads that are text, typically an
// HTML error page served in place of the asset.
var ErrUnexpectedContent = errors.New("download is not an archive or executable")

var suffixes = []struct {
	suffix string
	format Format
}{
	{".tar.gz", TarGz}, {".tgz", TarGz},
	{".tar.bz2", TarBz2}, {".tbz2", TarBz2}, {".tbz", TarBz2},
	{".tar.xz", TarXz}, {".txz", TarXz},
	{".tar.zst", TarZst}, {".tzst", TarZst},
	{".tar", Tar},
	{".zip", Zip},
	{".7z", SevenZip},
}

// FormatFromName infers the format from a file name's suffix.
func FormatFromName(name string) (Format, bool) {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s.suffix) {
			return s.format, true
		}
	}
	return "", false
}

// Detect decides the format of the downloaded file at path. The asset name wins
// when it carries a known suffix; otherwise the content is sniffed.
func Detect(path, assetName string) (Format, error) {
	if f, ok := FormatFromName(assetName); ok {
		return f, nil
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("detect type of %s: %w", path, err)
	}
	logger.Debug("[DEBUG] %s sniffed as %s\n", assetName, mt.String())

	switch {
	case mt.Is("application/x-tar"):
		return Tar, nil
	case mt.Is("application/gzip"), mt.Is("application/x-gzip"):
		return TarGz, nil
	case mt.Is("application/x-bzip2"):
		return TarBz2, nil
	case mt.Is("application/x-xz"):
		return TarXz, nil
	case mt.Is("application/zstd"):
		return TarZst, nil
	case mt.Is("application/zip"):
		return Zip, nil
	case mt.Is("application/x-7z-compressed"):
		return SevenZip, nil
	case strings.HasPrefix(mt.String(), "text/"):
		return "", fmt.Errorf("%w: %s is %s", ErrUnexpectedContent, assetName, mt.String())
	}
	return Raw, nil
}
