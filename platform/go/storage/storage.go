package storage

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ObjectLocation describes where a blob should live.
type ObjectLocation struct {
	Bucket   string
	FullPath string
}

// CardImageKey builds the logical key for a card image.
//   - side is "front" or "back".
//   - filename keeps the uploaded extension, e.g. "front.png".
func CardImageKey(cardID uuid.UUID, side string, filename string) (string, error) {
	side = strings.TrimSpace(strings.ToLower(side))
	if side != "front" && side != "back" {
		return "", fmt.Errorf("invalid image side %q", side)
	}
	filename = strings.TrimSpace(filename)
	filename = strings.TrimPrefix(filename, "/")
	if filename == "" || strings.Contains(filename, "..") || strings.Contains(filename, "/") {
		return "", fmt.Errorf("invalid image filename %q", filename)
	}

	return fmt.Sprintf("cards/%s/%s/%s", cardID.String(), side, filename), nil
}

// ResolveObjectLocation combines environment base prefix and logical key into a bucket/path pair.
//   - bucket must come from deployment configuration (one bucket per environment class).
//   - basePrefix includes the environment key and trailing slash (e.g. "dev/").
//   - logicalKey is a key such as "cards/<card_uuid>/front/file.png".
func ResolveObjectLocation(basePrefix string, bucket string, logicalKey string) (ObjectLocation, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return ObjectLocation{}, fmt.Errorf("bucket is required")
	}
	key := strings.TrimSpace(logicalKey)
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return ObjectLocation{}, fmt.Errorf("logical key is required")
	}

	prefix := basePrefix
	if prefix == "" {
		return ObjectLocation{}, fmt.Errorf("base prefix is missing")
	}

	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	fullPath := prefix + key
	return ObjectLocation{Bucket: bucket, FullPath: fullPath}, nil
}
