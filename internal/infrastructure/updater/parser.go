package updater

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/buger/jsonparser"

	"github.com/bnema/flashota/internal/domain/entity"
	"github.com/bnema/flashota/internal/logging"
)

const (
	// DefaultPrimaryBudget bounds the string data retained by the strict pass.
	DefaultPrimaryBudget = 12 * 1024
	// DefaultFallbackBudget bounds the string data retained by the lenient pass.
	DefaultFallbackBudget = 4 * 1024
)

// DefaultAssetTokens are the name fragments that mark an asset as firmware.
var DefaultAssetTokens = []string{"firmware", "esp32", "nostr", "signer"}

var (
	errMalformedJSON  = errors.New("malformed release document")
	errBudgetExceeded = errors.New("release document exceeds parse budget")
	errNoTagName      = errors.New("no tag_name found in release")
)

// ParserConfig configures the release parser.
type ParserConfig struct {
	PrimaryBudget  int
	FallbackBudget int
	AssetTokens    []string
}

// DefaultParserConfig returns the parser defaults.
func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		PrimaryBudget:  DefaultPrimaryBudget,
		FallbackBudget: DefaultFallbackBudget,
		AssetTokens:    DefaultAssetTokens,
	}
}

// Parser extracts a ReleaseInfo from a latest-release document.
type Parser struct {
	cfg ParserConfig
}

// NewParser creates a parser. Zero fields of cfg take their defaults.
func NewParser(cfg ParserConfig) *Parser {
	def := DefaultParserConfig()
	if cfg.PrimaryBudget <= 0 {
		cfg.PrimaryBudget = def.PrimaryBudget
	}
	if cfg.FallbackBudget <= 0 {
		cfg.FallbackBudget = def.FallbackBudget
	}
	if cfg.AssetTokens == nil {
		cfg.AssetTokens = def.AssetTokens
	}
	return &Parser{cfg: cfg}
}

// Parse implements port.ReleaseParser. An unusable document yields an invalid record.
func (p *Parser) Parse(ctx context.Context, raw []byte) entity.ReleaseInfo {
	log := logging.FromContext(ctx)

	if len(raw) == 0 {
		log.Error().Msg("empty release document")
		return entity.ReleaseInfo{}
	}

	info, err := p.strict(ctx, raw)
	switch {
	case err == nil:
		return info
	case errors.Is(err, errNoTagName):
		log.Error().Msg("no tag_name found in release")
		return entity.ReleaseInfo{}
	}

	log.Warn().
		Err(err).
		Str("preview", preview(raw, 200)).
		Msg("release parse failed, retrying with reduced budget")

	info, err = p.lenient(ctx, raw)
	if err != nil {
		log.Error().Err(err).Msg("failed to parse release info")
		return entity.ReleaseInfo{}
	}
	return info
}

// strict requires a well-formed document and counts the full changelog against the budget.
func (p *Parser) strict(ctx context.Context, raw []byte) (entity.ReleaseInfo, error) {
	if !json.Valid(raw) {
		return entity.ReleaseInfo{}, errMalformedJSON
	}

	b := &budget{limit: p.cfg.PrimaryBudget}

	info, err := p.header(raw, b)
	if err != nil {
		return entity.ReleaseInfo{}, err
	}

	if body, err := jsonparser.GetString(raw, "body"); err == nil {
		if err := b.spend(len(body)); err != nil {
			return entity.ReleaseInfo{}, err
		}
		info.Changelog = truncateChangelog(body)
	}

	if err := p.selectAsset(ctx, raw, b, &info); err != nil {
		return entity.ReleaseInfo{}, err
	}

	p.logResult(ctx, info)
	return info, nil
}

// lenient tolerates trailing garbage or truncation after the fields it needs.
// The changelog is only kept if it still fits once the asset is selected.
func (p *Parser) lenient(ctx context.Context, raw []byte) (entity.ReleaseInfo, error) {
	b := &budget{limit: p.cfg.FallbackBudget}

	info, err := p.header(raw, b)
	if err != nil {
		return entity.ReleaseInfo{}, err
	}

	if err := p.selectAsset(ctx, raw, b, &info); err != nil {
		return entity.ReleaseInfo{}, err
	}

	if body, err := jsonparser.GetString(raw, "body"); err == nil {
		changelog := truncateChangelog(body)
		if b.spend(len(changelog)) == nil {
			info.Changelog = changelog
		} else {
			logging.FromContext(ctx).Debug().Msg("changelog dropped to fit parse budget")
		}
	}

	p.logResult(ctx, info)
	return info, nil
}

func (*Parser) header(raw []byte, b *budget) (entity.ReleaseInfo, error) {
	tag, err := jsonparser.GetString(raw, "tag_name")
	if err != nil {
		if errors.Is(err, jsonparser.KeyPathNotFoundError) {
			return entity.ReleaseInfo{}, errNoTagName
		}
		return entity.ReleaseInfo{}, fmt.Errorf("%w: %w", errNoTagName, err)
	}
	if err := b.spend(len(tag)); err != nil {
		return entity.ReleaseInfo{}, err
	}
	return entity.ReleaseInfo{Version: stripV(tag)}, nil
}

// selectAsset picks the first asset with a name and download URL that looks like firmware.
func (p *Parser) selectAsset(ctx context.Context, raw []byte, b *budget, info *entity.ReleaseInfo) error {
	log := logging.FromContext(ctx)

	var (
		names    []string
		found    bool
		spendErr error
	)

	_, arrErr := jsonparser.ArrayEach(raw, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if found || spendErr != nil || dataType != jsonparser.Object {
			return
		}

		name, err := jsonparser.GetString(value, "name")
		if err != nil {
			return
		}
		if spendErr = b.spend(len(name)); spendErr != nil {
			return
		}
		names = append(names, name)

		downloadURL, err := jsonparser.GetString(value, "browser_download_url")
		if err != nil || !p.isFirmwareAsset(name) {
			return
		}
		if spendErr = b.spend(len(downloadURL)); spendErr != nil {
			return
		}

		info.DownloadURL = downloadURL
		info.AssetName = name
		if size, err := jsonparser.GetInt(value, "size"); err == nil && size > 0 {
			info.FileSize = uint64(size)
		}
		found = true
	}, "assets")

	if spendErr != nil {
		return spendErr
	}

	switch {
	case found:
		log.Debug().
			Str("asset", info.AssetName).
			Uint64("size", info.FileSize).
			Str("url", info.DownloadURL).
			Msg("selected firmware asset")
	case arrErr != nil && len(names) == 0:
		log.Error().Err(arrErr).Msg("no assets found in release")
	default:
		log.Error().Strs("assets", names).Msg("no firmware binary found in assets")
	}
	return nil
}

func (p *Parser) isFirmwareAsset(name string) bool {
	if strings.HasSuffix(name, ".bin") || strings.HasSuffix(name, ".firmware") {
		return true
	}
	for _, token := range p.cfg.AssetTokens {
		if token != "" && strings.Contains(name, token) {
			return true
		}
	}
	return false
}

func (*Parser) logResult(ctx context.Context, info entity.ReleaseInfo) {
	logging.FromContext(ctx).Debug().
		Str("version", info.Version).
		Int("changelog_len", len(info.Changelog)).
		Bool("valid", info.IsValid()).
		Msg("release info parsed")
}

type budget struct {
	limit int
	used  int
}

func (b *budget) spend(n int) error {
	if b.used+n > b.limit {
		return fmt.Errorf("%w: %d of %d bytes", errBudgetExceeded, b.used+n, b.limit)
	}
	b.used += n
	return nil
}

func stripV(tag string) string {
	if len(tag) > 0 && (tag[0] == 'v' || tag[0] == 'V') {
		return tag[1:]
	}
	return tag
}

// truncateChangelog keeps at most entity.MaxChangelogLength characters.
func truncateChangelog(body string) string {
	if utf8.RuneCountInString(body) <= entity.MaxChangelogLength {
		return body
	}
	runes := []rune(body)
	return string(runes[:entity.MaxChangelogLength-3]) + "..."
}
