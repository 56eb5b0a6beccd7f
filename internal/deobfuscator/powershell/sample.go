package powershell

import "strings"

// ShowSample returns content unchanged; previews never touch the buffer
func ShowSample(content string) string {
	return content
}

// Head returns the first n lines of content, or all of it when n <= 0
func Head(content string, n int) string {
	if n <= 0 {
		return content
	}
	idx := 0
	for i := 0; i < n; i++ {
		next := strings.IndexByte(content[idx:], '\n')
		if next < 0 {
			return content
		}
		idx += next + 1
	}
	return content[:idx]
}
