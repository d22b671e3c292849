package coreimage

import (
	"context"
	"strings"

	apperrors "corecatalog/internal/errors"
)

// lastModifiedLayout renders a modification time as YYYYMMDD
const lastModifiedLayout = "20060102"

// FetchFreshness resolves the last-modified date of imageURL and the hash
// published for fileName in the checksum list at hashListURL.
func FetchFreshness(ctx context.Context, fetcher ContentFetcher, imageURL, hashListURL, fileName string) (FreshnessInfo, error) {
	modified, err := fetcher.LastModified(ctx, imageURL)
	if err != nil {
		return FreshnessInfo{}, apperrors.NewTransportError("last modified "+imageURL, err)
	}

	sums, err := fetcher.Download(ctx, hashListURL)
	if err != nil {
		return FreshnessInfo{}, apperrors.NewTransportError("download "+hashListURL, err)
	}

	return FreshnessInfo{
		LastModified: modified.UTC().Format(lastModifiedLayout),
		Hash:         hashFor(string(sums), fileName),
	}, nil
}

// hashFor returns the first token of the first checksum line naming fileName
func hashFor(sums, fileName string) string {
	for _, line := range strings.Split(sums, "\n") {
		if !strings.HasSuffix(strings.TrimSpace(line), fileName) {
			continue
		}
		if fields := strings.Fields(line); len(fields) > 0 {
			return fields[0]
		}
		return ""
	}
	return ""
}
