package rewrite

import (
	"context"
	"fmt"
	"strings"

	"github.com/cms-content-migrator/internal/media"
	"github.com/cms-content-migrator/internal/models"
	"github.com/cms-content-migrator/internal/target"
	"github.com/rs/zerolog"
)

// Rewriter replaces embedded references to a post's files with image tags
// pointing at the migrated target media.
type Rewriter struct {
	resolver *media.Resolver
	client   target.Client
	log      zerolog.Logger
}

// NewRewriter creates a body rewriter
func NewRewriter(resolver *media.Resolver, client target.Client, log zerolog.Logger) *Rewriter {
	return &Rewriter{
		resolver: resolver,
		client:   client,
		log:      log.With().Str("service", "rewrite").Logger(),
	}
}

// RepairBody rewrites every located reference to the given files and
// returns the new body. Files that cannot be resolved are logged and left
// as they were; the remaining files are still processed.
func (r *Rewriter) RepairBody(ctx context.Context, body string, files []models.AttachedFile) (string, error) {
	urls := make(map[int64]string)

	for _, file := range files {
		mediaID, url, err := r.resolveWithURL(ctx, file, urls)
		if err != nil {
			r.log.Warn().Err(err).
				Int64("file_id", file.FileID).
				Str("filename", file.Filename).
				Msg("Failed to resolve file, leaving references unchanged")
			continue
		}
		if mediaID == media.NoMedia {
			continue
		}

		replacement := imageTag(url, file, mediaID)

		// Token-block convention: the first [[ ... "fid":"N" ... ]] block.
		if s, ok := tokenSpan(body, file.FileID); ok {
			body = body[:s.Start] + replacement + body[s.End:]
		}

		// Bare-filename convention: every < ... > span containing the
		// filename. Scanning resumes after each replacement (or past an
		// occurrence with no enclosing tag), so the loop terminates even
		// when the replacement itself contains the filename.
		for from := 0; from >= 0; {
			s, next, found := tagSpan(body, file.Filename, from)
			if !found {
				from = next
				continue
			}
			body = body[:s.Start] + replacement + body[s.End:]
			from = s.Start + len(replacement)
		}
	}

	return body, nil
}

// resolveWithURL resolves the file and fetches the target URL once per
// media id.
func (r *Rewriter) resolveWithURL(ctx context.Context, file models.AttachedFile, urls map[int64]string) (int64, string, error) {
	mediaID, err := r.resolver.Resolve(ctx, file)
	if err != nil || mediaID == media.NoMedia {
		return media.NoMedia, "", err
	}
	if url, ok := urls[mediaID]; ok {
		return mediaID, url, nil
	}
	record, err := r.client.GetMedia(ctx, mediaID)
	if err != nil {
		return media.NoMedia, "", fmt.Errorf("failed to fetch media %d url: %w", mediaID, err)
	}
	url := record.SourceURL
	if url == "" {
		url = record.Link
	}
	urls[mediaID] = url
	return mediaID, url, nil
}

// imageTag builds the replacement markup for one reference.
func imageTag(url string, file models.AttachedFile, mediaID int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<img src=%q alt=%q`, url, file.AltText())
	if file.Width > 0 && file.Height > 0 {
		fmt.Fprintf(&b, ` width="%d" height="%d"`, file.Width, file.Height)
	}
	fmt.Fprintf(&b, ` class="wp-image-%d" />`, mediaID)
	return b.String()
}
