package github

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"forge/internal/logger"
	"forge/internal/platform"
)

var (
	// ErrNoAssets is returned when the latest release has no assets at all.
	ErrNoAssets = errors.New("release has no assets")
	// ErrNoMatchingAsset is returned when no asset scores above zero.
	ErrNoMatchingAsset = errors.New("no matching release asset")
)

// Discovery is the asset picked for download.
type Discovery struct {
	DownloadURL string
	Version     string
	AssetName   string
}

// Candidate is an eligible asset with its score.
type Candidate struct {
	Asset Asset
	Score int
}

// Scoring weights.
const (
	osMatch        = 10
	osAbsent       = 1
	archMatch      = 10
	archUniversal  = 5
	debugPenalty   = -10
	lengthDivisor  = 20
	maxDiagnostics = 10
)

// Suffixes that never name an installable build.
var excludedSuffixes = []string{
	".sig", ".asc", ".sha1", ".sha256", ".sha512", ".md5", ".minisig", ".pem", ".pub",
	".sbom", ".spdx", ".json", ".jsonl", ".txt",
	".deb", ".rpm", ".apk", ".dmg", ".pkg", ".msi",
}

// Tokens that mark checksum manifests or source bundles.
var excludedTokens = map[string]string{
	"checksums":  "checksum manifest",
	"checksum":   "checksum manifest",
	"sha256sum":  "checksum manifest",
	"sha256sums": "checksum manifest",
	"src":        "source archive",
	"source":     "source archive",
}

// formats lists archive suffixes with their preference bonus; anything else is a raw binary.
var formats = []struct {
	suffix string
	bonus  int
}{
	{".tar.gz", 5}, {".tgz", 5},
	{".zip", 4},
	{".tar.xz", 3}, {".txz", 3},
	{".tar.bz2", 2}, {".tbz2", 2}, {".tbz", 2},
	{".tar.zst", 1}, {".7z", 1},
}

// Lone compressed streams carry no file name, so they cannot be installed.
var bareCompressed = []string{".gz", ".xz", ".bz2", ".zst"}

var osAliases = map[platform.OS][]string{
	platform.Linux:   {"linux"},
	platform.MacOS:   {"darwin", "macos", "osx", "mac", "apple"},
	platform.Windows: {"windows", "win", "win32", "win64"},
}

var archAliases = map[platform.Arch][]string{
	platform.X86_64:  {"x86_64", "x86-64", "amd64", "x64"},
	platform.Aarch64: {"aarch64", "arm64"},
}

// Architecture tokens outside the supported set.
var foreignArchTokens = map[string]bool{
	"arm": true, "armv5": true, "armv6": true, "armv7": true, "armv7l": true, "armhf": true, "armel": true,
	"i386": true, "i486": true, "i586": true, "i686": true, "386": true, "x86": true, "x32": true,
	"ppc": true, "ppc64": true, "ppc64le": true, "s390x": true, "riscv64": true,
	"mips": true, "mipsle": true, "mips64": true, "mips64le": true, "loong64": true, "loongarch64": true,
}

func tokens(name string) []string {
	return strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// tokenIsOS reports whether tok names the OS: an alias itself, or an alias
// followed only by digits (win64, macos11).
func tokenIsOS(tok string, os platform.OS) bool {
	for _, alias := range osAliases[os] {
		if tok == alias {
			return true
		}
		if rest, ok := strings.CutPrefix(tok, alias); ok && rest != "" && strings.Trim(rest, "0123456789") == "" {
			return true
		}
	}
	return false
}

func mentionsOS(name string, toks []string, os platform.OS) bool {
	if os == platform.Windows && strings.HasSuffix(name, ".exe") {
		return true
	}
	for _, tok := range toks {
		if tokenIsOS(tok, os) {
			return true
		}
	}
	return false
}

func mentionsArch(name string, arch platform.Arch) bool {
	for _, alias := range archAliases[arch] {
		if strings.Contains(name, alias) {
			return true
		}
	}
	return false
}

// FormatBonus returns the archive preference bonus for name and whether it is an archive.
func FormatBonus(name string) (int, bool) {
	lower := strings.ToLower(name)
	for _, f := range formats {
		if strings.HasSuffix(lower, f.suffix) {
			return f.bonus, true
		}
	}
	return 0, false
}

// ScoreAsset rates one asset name for p. A false result means the asset is
// excluded outright, with the reason.
func ScoreAsset(name string, p platform.Platform) (int, bool, string) {
	lower := strings.ToLower(name)
	toks := tokens(lower)

	// Hard exclusions first: no score can make a checksum or signature the
	// asset to install.
	for _, suffix := range excludedSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return 0, false, "excluded file type " + suffix
		}
	}
	for _, tok := range toks {
		if reason, ok := excludedTokens[tok]; ok {
			return 0, false, reason
		}
	}
	// foo.gz is a compressed single file, not an archive of executables.
	bonus, archive := FormatBonus(lower)
	if !archive {
		for _, suffix := range bareCompressed {
			if strings.HasSuffix(lower, suffix) {
				return 0, false, "compressed file without archive " + suffix
			}
		}
	}

	score := 0

	// OS: a match scores high, naming another OS rules the asset out, and naming
	// none at all (a portable script, say) scores a little.
	switch {
	case mentionsOS(lower, toks, p.OS):
		score += osMatch
	default:
		for other := range osAliases {
			if other != p.OS && mentionsOS(lower, toks, other) {
				return 0, false, "built for " + string(other)
			}
		}
		score += osAbsent
	}

	// Arch works the same way, plus two cases: architectures forge does not
	// support (riscv64, s390x, ...) are rejected, and universal builds are fine.
	if mentionsArch(lower, p.Arch) {
		score += archMatch
	} else {
		for other := range archAliases {
			if other != p.Arch && mentionsArch(lower, other) {
				return 0, false, "built for " + string(other)
			}
		}
		universal := false
		for _, tok := range toks {
			if foreignArchTokens[tok] {
				return 0, false, "built for " + tok
			}
			if tok == "universal" || tok == "universal2" || tok == "all" {
				universal = true
			}
		}
		if universal {
			score += archUniversal
		}
	}

	// Tie breakers: preferred formats, no debug builds, shorter names.
	score += bonus
	if strings.Contains(lower, "debug") {
		score += debugPenalty
	}
	score -= len(name) / lengthDivisor

	return score, true, ""
}

// Rank scores every asset and returns the eligible ones best first. Ties keep
// release order.
func Rank(assets []Asset, p platform.Platform) []Candidate {
	ranked := make([]Candidate, 0, len(assets))
	for _, a := range assets {
		score, ok, reason := ScoreAsset(a.Name, p)
		if !ok {
			logger.Debug("[DEBUG] Skipping asset %s: %s\n", a.Name, reason)
			continue
		}
		logger.Debug("[DEBUG] Asset %s scores %d\n", a.Name, score)
		ranked = append(ranked, Candidate{Asset: a, Score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// SelectAsset picks the best asset for p from release.
func SelectAsset(release *Release, p platform.Platform) (*Discovery, error) {
	if len(release.Assets) == 0 {
		return nil, fmt.Errorf("%w: release %s", ErrNoAssets, release.Tag)
	}

	ranked := Rank(release.Assets, p)
	if len(ranked) == 0 || ranked[0].Score <= 0 {
		return nil, noMatch(release, ranked, p)
	}

	best := ranked[0].Asset
	return &Discovery{
		DownloadURL: best.DownloadURL,
		Version:     strings.TrimPrefix(release.Tag, "v"),
		AssetName:   best.Name,
	}, nil
}

func noMatch(release *Release, ranked []Candidate, p platform.Platform) error {
	var b strings.Builder
	if len(ranked) > 0 {
		b.WriteString("; best candidates:")
		for i, c := range ranked {
			if i == maxDiagnostics {
				break
			}
			fmt.Fprintf(&b, "\n  %s (score %d)", c.Asset.Name, c.Score)
		}
	}
	b.WriteString("\nset an explicit asset pattern for this tool")
	return fmt.Errorf("%w: release %s has no asset for %s%s", ErrNoMatchingAsset, release.Tag, p, b.String())
}

// Discover fetches the latest release of repo and selects its asset for p.
func Discover(ctx context.Context, src ReleaseSource, repo string, p platform.Platform) (*Discovery, error) {
	release, err := src.LatestRelease(ctx, repo)
	if err != nil {
		return nil, err
	}
	d, err := SelectAsset(release, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", repo, err)
	}
	logger.Info("[INFO] Selected %s from %s %s\n", d.AssetName, repo, release.Tag)
	return d, nil
}
