package response

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// DocumentETag returns a weak ETag for a rendered document. Documents are
// rebuilt per request, so only semantic equivalence is promised.
func DocumentETag(body []byte) string {
	hash := sha256.Sum256(body)
	return fmt.Sprintf(`W/"%s"`, hex.EncodeToString(hash[:16]))
}

// ParseIfNoneMatch splits an If-None-Match header into its entity tags
func ParseIfNoneMatch(header string) []string {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil
	}
	if header == "*" {
		return []string{"*"}
	}

	var etags []string
	for i := 0; i < len(header); {
		for i < len(header) && (header[i] == ' ' || header[i] == ',') {
			i++
		}
		if i >= len(header) {
			break
		}

		weak := strings.HasPrefix(header[i:], "W/")
		if weak {
			i += 2
		}
		if i >= len(header) || header[i] != '"' {
			// malformed tag, skip to the next comma
			for i < len(header) && header[i] != ',' {
				i++
			}
			continue
		}

		end := strings.IndexByte(header[i+1:], '"')
		if end < 0 {
			break
		}
		etag := header[i : i+end+2]
		if weak {
			etag = "W/" + etag
		}
		etags = append(etags, etag)
		i += end + 2
	}
	return etags
}

// MatchesETag reports whether etag weakly matches any of etags
func MatchesETag(etag string, etags []string) bool {
	for _, e := range etags {
		if e == "*" || strings.TrimPrefix(e, "W/") == strings.TrimPrefix(etag, "W/") {
			return true
		}
	}
	return false
}
