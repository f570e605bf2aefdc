package sync

import "strings"

// NeedsUpload reports whether local has to be uploaded given the remote object
// stored under the same key, if any. Only content fingerprints are compared;
// timestamps are ignored.
func NeedsUpload(local LocalFile, remote *RemoteObject) bool {
	if remote == nil {
		return true
	}
	return local.Hex() != normalizeETag(remote.ETag)
}

// normalizeETag strips the quotes S3 wraps ETags in. Multipart ETags ("<md5>-<parts>")
// never equal a plain MD5, so such objects are always re-uploaded.
func normalizeETag(etag string) string {
	return strings.ToLower(strings.Trim(etag, `"`))
}
