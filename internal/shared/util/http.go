package util

import "mime"

// ContentDisposition builds an attachment disposition header value that
// survives non-ASCII file names.
func ContentDisposition(fileName string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": fileName})
}
