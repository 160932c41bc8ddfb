package media

import "context"

// FileInfo is the resolved metadata for a platform file reference.
type FileInfo struct {
	FilePath string
	FileSize int64
}

// IFileAPI resolves opaque file references and fetches their bytes.
type IFileAPI interface {
	GetFile(ctx context.Context, fileID string) (*FileInfo, error)
	DownloadFile(ctx context.Context, filePath string) ([]byte, error)
}

// IObjectStorage is the durable blob side of the pipeline.
type IObjectStorage interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) error
	PublicURL(name string) string
}

// ITransferUsecase moves a platform file into durable storage.
//
// Any returned error means "no image"; callers continue their flow without
// one rather than aborting the user's action.
type ITransferUsecase interface {
	TransferPhoto(ctx context.Context, fileRef, ownerID string) (string, error)
}
