package response

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"
)

const (
	// JSONAPIMediaType is the JSON:API media type
	JSONAPIMediaType = "application/vnd.api+json"

	// JSONMediaType is used for clients that do not ask for JSON:API
	JSONMediaType = "application/json; charset=utf-8"
)

// IsJSONAPI checks if the request accepts JSON:API format
func IsJSONAPI(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if accept == "" {
		return false
	}

	for _, part := range strings.Split(accept, ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			if strings.Contains(part, JSONAPIMediaType) {
				return true
			}
			continue
		}
		if mediaType == JSONAPIMediaType {
			return true
		}
	}
	return false
}

// RenderDocument marshals a document and writes it with the JSON:API media
// type, or plain JSON when the request did not ask for JSON:API. Successful
// responses carry an ETag and answer a matching If-None-Match with 304.
func RenderDocument(w http.ResponseWriter, r *http.Request, status int, doc interface{}) error {
	// Marshal first so a failure never leaves a partial response
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	contentType := JSONAPIMediaType
	if r != nil && r.Header.Get("Accept") != "" && !IsJSONAPI(r) {
		contentType = JSONMediaType
	}

	w.Header().Set("Content-Type", contentType)

	if status == http.StatusOK {
		etag := DocumentETag(data)
		w.Header().Set("ETag", etag)
		if r != nil && MatchesETag(etag, ParseIfNoneMatch(r.Header.Get("If-None-Match"))) {
			w.WriteHeader(http.StatusNotModified)
			return nil
		}
	}

	w.WriteHeader(status)
	_, err = w.Write(data)
	return err
}
