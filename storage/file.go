package storage

// FileMetadata describes a stored file. Timestamps are whole seconds since
// the Unix epoch and are always derived from the store's clock, never
// supplied by callers.
type FileMetadata struct {
	Name            string   `json:"name"`
	Size            int64    `json:"size"`
	UploadTimestamp int64    `json:"upload_timestamp"`
	LastModified    int64    `json:"last_modified"`
	FileType        string   `json:"file_type"`
	IsEncrypted     bool     `json:"is_encrypted"`
	VersionHistory  []string `json:"version_history"`
	Tags            []string `json:"tags"`
}

// File is a named byte sequence plus its metadata record. The store keeps
// exclusive ownership of its buffers: content is copied on the way in and
// every File handed back to a caller is a deep copy.
type File struct {
	Name     string       `json:"name"`
	Content  []byte       `json:"content"`
	Metadata FileMetadata `json:"metadata"`
}

// clone returns a copy sharing no memory with the stored file.
func (f File) clone() File {
	cp := f
	cp.Content = cloneBytes(f.Content)
	cp.Metadata.VersionHistory = cloneStrings(f.Metadata.VersionHistory)
	cp.Metadata.Tags = cloneStrings(f.Metadata.Tags)
	return cp
}

func cloneBytes(b []byte) []byte {
	return append([]byte{}, b...)
}

func cloneStrings(ss []string) []string {
	return append([]string{}, ss...)
}
